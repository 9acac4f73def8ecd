package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	Email         string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Username      string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Name          string     `gorm:"size:100;not null" json:"name"`
	PasswordHash  string     `gorm:"not null" json:"-"`
	Role          Role       `gorm:"size:16;not null;default:Visitor;index" json:"role"`
	Avatar        *string    `gorm:"size:512" json:"avatar,omitempty"`
	EmailVerified bool       `gorm:"default:false;not null" json:"email_verified"`
	IsActive      bool       `gorm:"default:true;not null" json:"is_active"`
	JoinedAt      time.Time  `gorm:"not null" json:"joined_at"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	Uploads       int64      `gorm:"default:0;not null" json:"uploads"`
	Views         int64      `gorm:"default:0;not null" json:"views"`
	UpdatedAt     time.Time  `json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.JoinedAt.IsZero() {
		u.JoinedAt = time.Now().UTC()
	}
	return nil
}
