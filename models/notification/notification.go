package notification

import (
	"time"

	"gorm.io/datatypes"
)

type Type string

const (
	TypeExpiry   Type = "expiry"
	TypeAPIUsage Type = "api_usage"
	TypeError    Type = "error"
	TypeBackup   Type = "backup"
	TypeSecurity Type = "security"
)

var Types = []Type{TypeExpiry, TypeAPIUsage, TypeError, TypeBackup, TypeSecurity}

func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityNormal || p == PriorityHigh
}

type Notification struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	AdminID   uint           `gorm:"not null;index" json:"admin_id"`
	Type      Type           `gorm:"type:varchar(50);not null" json:"type"`
	Title     string         `gorm:"type:varchar(200);not null" json:"title"`
	Message   string         `gorm:"type:text;not null" json:"message"`
	Priority  Priority       `gorm:"type:varchar(20);not null" json:"priority"`
	IsRead    bool           `gorm:"not null;default:false" json:"is_read"`
	Data      datatypes.JSON `json:"data,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
}

// NotificationSetting holds one admin's delivery preferences for one type.
type NotificationSetting struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AdminID      uint      `gorm:"not null;uniqueIndex:idx_notification_settings_admin_type" json:"admin_id"`
	Type         Type      `gorm:"type:varchar(50);not null;uniqueIndex:idx_notification_settings_admin_type" json:"type"`
	EmailEnabled bool      `gorm:"not null" json:"email_enabled"`
	WebEnabled   bool      `gorm:"not null" json:"web_enabled"`
	Priority     Priority  `gorm:"type:varchar(20);not null" json:"priority"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
