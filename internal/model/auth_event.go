package model

import "time"

const (
	AuthEventRegistered = "user.registered"
	AuthEventLogin      = "user.login"
)

type AuthEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"size:32;not null;index" json:"type"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Username  string    `gorm:"size:50;not null" json:"username"`
	ClientIP  string    `gorm:"size:64" json:"client_ip"`
	RequestID string    `gorm:"size:64" json:"request_id"`
	CreatedAt time.Time `json:"created_at"`
}
