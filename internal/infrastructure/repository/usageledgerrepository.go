package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quotagate/quotagate/internal/domain/usage"
	"github.com/quotagate/quotagate/internal/infrastructure/persistence/mappers"
	"github.com/quotagate/quotagate/internal/infrastructure/persistence/models"
	"github.com/quotagate/quotagate/internal/shared/db"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

var _ usage.Ledger = (*UsageLedgerRepositoryImpl)(nil)

// UsageLedgerRepositoryImpl keeps usage counters in the usage_counters table.
// Increments are single upsert statements keyed by (user_id, endpoint) and
// run on MySQL and SQLite alike.
type UsageLedgerRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewUsageLedgerRepository(db *gorm.DB, logger logger.Interface) *UsageLedgerRepositoryImpl {
	return &UsageLedgerRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *UsageLedgerRepositoryImpl) GetCount(ctx context.Context, userID, endpoint string) (int64, error) {
	count, err := r.readCount(db.GetTxFromContext(ctx, r.db), userID, endpoint)
	if err != nil {
		r.logger.Errorw("failed to get usage count", "error", err, "user_id", userID, "endpoint", endpoint)
		return 0, fmt.Errorf("failed to get usage count: %w", err)
	}
	return count, nil
}

func (r *UsageLedgerRepositoryImpl) Increment(ctx context.Context, userID, endpoint string, at time.Time) (int64, error) {
	var count int64
	err := db.GetTxFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := r.upsertIncrement(tx, userID, endpoint, at); err != nil {
			return err
		}
		var err error
		count, err = r.readCount(tx, userID, endpoint)
		return err
	})
	if err != nil {
		r.logger.Errorw("failed to increment usage", "error", err, "user_id", userID, "endpoint", endpoint)
		return 0, fmt.Errorf("failed to increment usage: %w", err)
	}
	return count, nil
}

func (r *UsageLedgerRepositoryImpl) IncrementBelow(ctx context.Context, userID, endpoint string, limit int64, at time.Time) (int64, bool, error) {
	var (
		count int64
		ok    bool
	)
	err := db.GetTxFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if limit > 0 {
			var err error
			ok, err = r.incrementExistingBelow(tx, userID, endpoint, limit, at)
			if err != nil {
				return err
			}
			if !ok {
				inserted := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.UsageCounterModel{
					UserID:      userID,
					Endpoint:    endpoint,
					Count:       1,
					LastUpdated: at,
				})
				if inserted.Error != nil {
					return inserted.Error
				}
				ok = inserted.RowsAffected == 1
			}
			if !ok {
				// a concurrent call created the row between the update and the insert
				if ok, err = r.incrementExistingBelow(tx, userID, endpoint, limit, at); err != nil {
					return err
				}
			}
		}

		var err error
		count, err = r.readCount(tx, userID, endpoint)
		return err
	})
	if err != nil {
		r.logger.Errorw("failed to increment usage", "error", err, "user_id", userID, "endpoint", endpoint)
		return 0, false, fmt.Errorf("failed to increment usage: %w", err)
	}
	return count, ok, nil
}

func (r *UsageLedgerRepositoryImpl) List(ctx context.Context, userID string) ([]usage.Counter, error) {
	var rows []*models.UsageCounterModel
	if err := db.GetTxFromContext(ctx, r.db).Where("user_id = ?", userID).Order("endpoint ASC").Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list usage counters", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to list usage counters: %w", err)
	}

	counters := make([]usage.Counter, 0, len(rows))
	for _, row := range rows {
		counters = append(counters, mappers.UsageCounterToDomain(row))
	}
	return counters, nil
}

func (r *UsageLedgerRepositoryImpl) DeleteAll(ctx context.Context, userID string) error {
	result := db.GetTxFromContext(ctx, r.db).Where("user_id = ?", userID).Delete(&models.UsageCounterModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete usage counters", "error", result.Error, "user_id", userID)
		return fmt.Errorf("failed to delete usage counters: %w", result.Error)
	}

	r.logger.Debugw("usage counters deleted", "user_id", userID, "rows", result.RowsAffected)
	return nil
}

func (r *UsageLedgerRepositoryImpl) upsertIncrement(tx *gorm.DB, userID, endpoint string, at time.Time) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "endpoint"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":        gorm.Expr("count + 1"),
			"last_updated": at,
		}),
	}).Create(&models.UsageCounterModel{
		UserID:      userID,
		Endpoint:    endpoint,
		Count:       1,
		LastUpdated: at,
	}).Error
}

func (r *UsageLedgerRepositoryImpl) incrementExistingBelow(tx *gorm.DB, userID, endpoint string, limit int64, at time.Time) (bool, error) {
	result := tx.Model(&models.UsageCounterModel{}).
		Where("user_id = ? AND endpoint = ? AND count < ?", userID, endpoint, limit).
		Updates(map[string]interface{}{
			"count":        gorm.Expr("count + 1"),
			"last_updated": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *UsageLedgerRepositoryImpl) readCount(tx *gorm.DB, userID, endpoint string) (int64, error) {
	var counts []int64
	err := tx.Model(&models.UsageCounterModel{}).
		Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Pluck("count", &counts).Error
	if err != nil || len(counts) == 0 {
		return 0, err
	}
	return counts[0], nil
}
