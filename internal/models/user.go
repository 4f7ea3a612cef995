package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account; Email is the login identifier.
type User struct {
	ID          uint   `gorm:"primaryKey"`
	Email       string `gorm:"size:254;uniqueIndex;not null"`
	Username    string `gorm:"size:150;uniqueIndex;not null"`
	FirstName   string `gorm:"size:150;not null"`
	LastName    string `gorm:"size:150;not null"`
	Password    string `gorm:"size:128;not null" json:"-"`
	Avatar      *string
	IsStaff     bool      `gorm:"not null;default:false"`
	IsSuperuser bool      `gorm:"not null;default:false"`
	IsActive    bool      `gorm:"not null;default:true"`
	DateJoined  time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time

	Recipes []Recipe `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

// SetPassword replaces the stored hash with a bcrypt hash of plain.
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// IsAdmin is true for staff and superusers.
func (u *User) IsAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}

// Role is the role claim written into access tokens.
func (u *User) Role() string {
	if u.IsAdmin() {
		return RoleAdmin
	}
	return RoleUser
}

// Actor is the authenticated caller of an operation. A nil *Actor is anonymous.
type Actor struct {
	UserID uint
	Role   string
}

// NewActor builds the actor for an authenticated user.
func NewActor(u *User) *Actor {
	return &Actor{UserID: u.ID, Role: u.Role()}
}

// IsStaff reports whether the actor carries the admin role.
func (a *Actor) IsStaff() bool {
	return a != nil && a.Role == RoleAdmin
}

// Subscription links a subscriber to an author they follow.
type Subscription struct {
	ID           uint      `gorm:"primaryKey"`
	SubscriberID uint      `gorm:"not null;uniqueIndex:idx_subscriber_author"`
	AuthorID     uint      `gorm:"not null;uniqueIndex:idx_subscriber_author;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`

	Subscriber User `gorm:"foreignKey:SubscriberID;constraint:OnDelete:CASCADE"`
	Author     User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}
