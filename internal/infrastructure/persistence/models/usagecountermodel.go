package models

import (
	"time"

	"github.com/quotagate/quotagate/internal/shared/constants"
)

// UsageCounterModel is the counter of one user on one endpoint.
type UsageCounterModel struct {
	ID          uint      `gorm:"primarykey"`
	UserID      string    `gorm:"not null;size:64;uniqueIndex:idx_usage_user_endpoint,priority:1"`
	Endpoint    string    `gorm:"not null;size:255;uniqueIndex:idx_usage_user_endpoint,priority:2"`
	Count       int64     `gorm:"not null;default:0"`
	LastUpdated time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (UsageCounterModel) TableName() string {
	return constants.TableUsageCounters
}
