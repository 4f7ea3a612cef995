package models

import (
	"time"
)

type OAuthToken struct {
	ID              uint    `gorm:"primaryKey"`
	ClientID        string  `gorm:"not null"`
	UserID          *uint   `gorm:"index"` // Nullable for client credentials
	AccessToken     string  `gorm:"uniqueIndex;not null"`
	RefreshToken    *string `gorm:"index"`
	Scopes          string
	AccessCreatedAt time.Time
	ExpiresAt       time.Time `gorm:"not null"`
	RefreshExpires  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (OAuthToken) TableName() string {
	return "oauth_tokens"
}
