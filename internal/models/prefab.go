package models

import (
	"time"

	"gorm.io/datatypes"
)

// Prefab is the stored form of a prefab. Groups holds the ordered group/field
// tree as one JSON document so declaration order survives round-trips.
type Prefab struct {
	ID          string                      `gorm:"primaryKey;size:36" json:"id"`
	Name        string                      `gorm:"size:255;not null" json:"name"`
	Description string                      `gorm:"type:text" json:"description"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	IsActive    bool                        `gorm:"not null" json:"isActive"`
	Groups      datatypes.JSON              `gorm:"column:field_groups;not null" json:"groups"`
	OwnerID     string                      `gorm:"size:36;index;not null" json:"ownerId"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime:false" json:"updatedAt"`
}
