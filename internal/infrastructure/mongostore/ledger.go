package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/quotagate/quotagate/internal/domain/usage"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

var _ usage.Ledger = (*Ledger)(nil)

// Ledger stores one document per (user_id, endpoint), guarded by a unique
// index. Increments are $inc upserts.
type Ledger struct {
	counters *mongo.Collection
	logger   logger.Interface
}

func NewLedger(db *mongo.Database, logger logger.Interface) *Ledger {
	return &Ledger{
		counters: db.Collection(colUsageCounters),
		logger:   logger,
	}
}

func (l *Ledger) GetCount(ctx context.Context, userID, endpoint string) (int64, error) {
	var doc usageCounterDoc
	err := l.counters.FindOne(ctx, bson.M{"user_id": userID, "endpoint": endpoint}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		l.logger.Errorw("failed to get usage count", "error", err, "user_id", userID, "endpoint", endpoint)
		return 0, fmt.Errorf("failed to get usage count: %w", err)
	}
	return doc.Count, nil
}

func (l *Ledger) Increment(ctx context.Context, userID, endpoint string, at time.Time) (int64, error) {
	filter := bson.M{"user_id": userID, "endpoint": endpoint}

	doc, err := l.incrementOne(ctx, filter, at)
	if mongo.IsDuplicateKeyError(err) {
		// two upserts raced to create the document; the loser retries as an update
		doc, err = l.incrementOne(ctx, filter, at)
	}
	if err != nil {
		l.logger.Errorw("failed to increment usage", "error", err, "user_id", userID, "endpoint", endpoint)
		return 0, fmt.Errorf("failed to increment usage: %w", err)
	}
	return doc.Count, nil
}

func (l *Ledger) IncrementBelow(ctx context.Context, userID, endpoint string, limit int64, at time.Time) (int64, bool, error) {
	if limit > 0 {
		filter := bson.M{"user_id": userID, "endpoint": endpoint, "count": bson.M{"$lt": limit}}
		doc, err := l.incrementOne(ctx, filter, at)
		if mongo.IsDuplicateKeyError(err) {
			// either a racing insert created the counter or it is at the limit;
			// after one collision the document exists, so the retry settles it
			doc, err = l.incrementOne(ctx, filter, at)
		}
		switch {
		case err == nil:
			return doc.Count, true, nil
		case !mongo.IsDuplicateKeyError(err):
			l.logger.Errorw("failed to increment usage", "error", err, "user_id", userID, "endpoint", endpoint)
			return 0, false, fmt.Errorf("failed to increment usage: %w", err)
		}
		// the counter exists and is at or above limit, so the upsert collided
	}

	count, err := l.GetCount(ctx, userID, endpoint)
	return count, false, err
}

func (l *Ledger) incrementOne(ctx context.Context, filter bson.M, at time.Time) (*usageCounterDoc, error) {
	update := bson.M{
		"$inc": bson.M{"count": int64(1)},
		"$set": bson.M{"last_updated": at},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc usageCounterDoc
	if err := l.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (l *Ledger) List(ctx context.Context, userID string) ([]usage.Counter, error) {
	cursor, err := l.counters.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "endpoint", Value: 1}}))
	if err != nil {
		l.logger.Errorw("failed to list usage counters", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to list usage counters: %w", err)
	}
	var docs []usageCounterDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode usage counters: %w", err)
	}

	counters := make([]usage.Counter, len(docs))
	for i, d := range docs {
		counters[i] = usage.Counter{
			UserID:      d.UserID,
			Endpoint:    d.Endpoint,
			Count:       d.Count,
			LastUpdated: d.LastUpdated.UTC(),
		}
	}
	return counters, nil
}

func (l *Ledger) DeleteAll(ctx context.Context, userID string) error {
	if _, err := l.counters.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		l.logger.Errorw("failed to delete usage counters", "error", err, "user_id", userID)
		return fmt.Errorf("failed to delete usage counters: %w", err)
	}
	return nil
}
