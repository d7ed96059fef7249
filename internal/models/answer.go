package models

import (
	"time"

	"gorm.io/datatypes"
)

// Answer is one submission to a prefab. UserID is empty for anonymous respondents.
type Answer struct {
	ID        string            `gorm:"primaryKey;size:36" json:"id"`
	PrefabID  string            `gorm:"size:36;not null;index:idx_answers_prefab_user,priority:1" json:"prefabId"`
	UserID    string            `gorm:"size:36;index:idx_answers_prefab_user,priority:2" json:"userId"`
	Values    datatypes.JSONMap `gorm:"not null" json:"values"`
	CreatedAt time.Time         `json:"createdAt"`
}
