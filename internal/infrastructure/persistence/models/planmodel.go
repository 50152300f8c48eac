package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/quotagate/quotagate/internal/shared/constants"
)

// PlanModel represents the database persistence model for plans. The granted
// permission names are stored as a JSON array.
type PlanModel struct {
	Name        string         `gorm:"primaryKey;size:100"`
	Description string         `gorm:"type:text"`
	Permissions datatypes.JSON `gorm:"not null"`
	CallLimit   int64          `gorm:"not null;default:0"`
	IsActive    bool           `gorm:"not null;index:idx_plans_active"`
	CreatedBy   string         `gorm:"size:100"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for GORM
func (PlanModel) TableName() string {
	return constants.TablePlans
}
