package models

import (
	"time"

	"github.com/quotagate/quotagate/internal/shared/constants"
)

// PermissionModel represents the database persistence model for permissions
type PermissionModel struct {
	Name        string `gorm:"primaryKey;size:100"`
	Endpoint    string `gorm:"not null;size:255;uniqueIndex:idx_permissions_endpoint"`
	Description string `gorm:"type:text"`
	CreatedBy   string `gorm:"size:100"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for GORM
func (PermissionModel) TableName() string {
	return constants.TablePermissions
}
