package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Username  string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null" json:"-"`
	Role      string `gorm:"not null;default:'user'"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// Roles expands Role into the role set carried by tokens. Admins are users too.
func (u User) Roles() []string {
	if u.Role == RoleAdmin {
		return []string{RoleUser, RoleAdmin}
	}
	return []string{RoleUser}
}
