package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Email          string         `gorm:"size:255;uniqueIndex" json:"email"`
	PasswordHash   string         `gorm:"size:255" json:"-"`
	Avatar         string         `gorm:"size:1000" json:"avatar"`
	AvatarPublicID string         `gorm:"size:255" json:"-"`
	Bio            string         `gorm:"size:500" json:"bio"`
	Provider       string         `gorm:"size:32" json:"provider,omitempty"`
	ProviderID     string         `gorm:"size:255" json:"-"`
	ResetToken     string         `gorm:"size:128;index" json:"-"`
	ResetTokenExp  *time.Time     `json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserSummary is the public author payload embedded in posts and notifications.
type UserSummary struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// Summary strips a user down to the fields safe to embed in other payloads.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}
