package admin

import "time"

// LoginLog is an immutable record of one console login attempt.
type LoginLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AdminID   *uint     `gorm:"index" json:"admin_id,omitempty"`
	Username  string    `gorm:"type:varchar(80);not null" json:"username"`
	Success   bool      `gorm:"not null" json:"success"`
	Outcome   string    `gorm:"type:varchar(30);not null" json:"outcome"`
	IPAddress string    `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent string    `gorm:"type:varchar(200)" json:"user_agent"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}
