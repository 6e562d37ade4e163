package apikey

import "time"

// ApiKey is a credential for the external verification API.
// Only the SHA-256 hash of the key is stored.
type ApiKey struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	KeyHash    string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`
	KeyPrefix  string     `gorm:"type:varchar(16);not null" json:"key_prefix"`
	Name       string     `gorm:"type:varchar(100);not null" json:"name"`
	IsActive   bool       `gorm:"not null" json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (ApiKey) TableName() string {
	return "api_keys"
}
