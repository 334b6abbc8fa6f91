package models

import (
	"time"
)

// User roles
const (
	RoleFieldAgent = "FIELD_AGENT"
	RoleManager    = "MANAGER"
	RoleAdmin      = "ADMIN"
)

// User account statuses (repository queries filter on ACTIVE)
const (
	UserStatusActive    = "ACTIVE"
	UserStatusSuspended = "SUSPENDED"
	UserStatusDeleted   = "DELETED"
)

// User represents users table
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	WorkID      string     `gorm:"uniqueIndex;size:50;not null" json:"work_id"`
	Username    string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email       string     `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password    string     `gorm:"size:255;not null" json:"-"`
	PhoneNumber string     `gorm:"size:20" json:"phone_number"`
	Role        string     `gorm:"size:20;default:'FIELD_AGENT';index" json:"role"`
	Status      string     `gorm:"size:20;default:'ACTIVE';index" json:"status"`
	DeletedAt   *time.Time `gorm:"index" json:"-"`

	// Mobile app preference flags
	PushNotificationsEnabled bool   `gorm:"default:true" json:"push_notifications_enabled"`
	RouteRemindersEnabled    bool   `gorm:"default:true" json:"route_reminders_enabled"`
	RewardAlertsEnabled      bool   `gorm:"default:true" json:"reward_alerts_enabled"`
	QCAlertsEnabled          bool   `gorm:"default:true" json:"qc_alerts_enabled"`
	PreferredLanguage        string `gorm:"size:5;default:'en'" json:"preferred_language"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// IsFieldAgent checks if user is a field agent
func (u *User) IsFieldAgent() bool {
	return u.Role == RoleFieldAgent
}

// IsManager checks if user is a manager
func (u *User) IsManager() bool {
	return u.Role == RoleManager
}

// IsAdmin checks if user is an admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserResponse DTO
type UserResponse struct {
	ID                uint      `json:"id"`
	WorkID            string    `json:"work_id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	PhoneNumber       string    `json:"phone_number,omitempty"`
	Role              string    `json:"role"`
	Status            string    `json:"status"`
	PreferredLanguage string    `json:"preferred_language"`
	CreatedAt         time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:                u.ID,
		WorkID:            u.WorkID,
		Username:          u.Username,
		Email:             u.Email,
		PhoneNumber:       u.PhoneNumber,
		Role:              u.Role,
		Status:            u.Status,
		PreferredLanguage: u.PreferredLanguage,
		CreatedAt:         u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}
