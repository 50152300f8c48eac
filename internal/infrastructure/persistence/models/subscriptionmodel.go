package models

import (
	"time"

	"github.com/quotagate/quotagate/internal/shared/constants"
)

// SubscriptionModel is one row per user. PlanName is NULL while the user has
// no plan.
type SubscriptionModel struct {
	UserID            string  `gorm:"primaryKey;size:64"`
	Username          string  `gorm:"not null;size:100;uniqueIndex:idx_subscriptions_username"`
	IsAdmin           bool    `gorm:"not null;default:false"`
	PlanName          *string `gorm:"size:100;index:idx_subscriptions_plan"`
	SubscriptionStart *time.Time
	SubscriptionEnd   *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}
