package admin

import (
	"time"
)

// Admin is a console operator. LoginAttempts counts consecutive failures.
type Admin struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Username      string     `gorm:"type:varchar(80);not null;uniqueIndex" json:"username"`
	PasswordHash  string     `gorm:"type:varchar(200);not null" json:"-"`
	Email         *string    `gorm:"type:varchar(120);uniqueIndex" json:"email,omitempty"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	LoginAttempts int        `gorm:"not null;default:0" json:"login_attempts"`
	LastAttempt   *time.Time `json:"last_attempt,omitempty"`
	IsLocked      bool       `gorm:"not null;default:false" json:"is_locked"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// LockedUntil returns when the current lock lapses, or nil when unlocked.
func (a *Admin) LockedUntil(lockDuration time.Duration) *time.Time {
	if !a.IsLocked {
		return nil
	}
	if a.LastAttempt == nil {
		return nil
	}
	until := a.LastAttempt.Add(lockDuration)
	return &until
}

// IsCurrentlyLocked checks whether the lock is still in force at now.
func (a *Admin) IsCurrentlyLocked(now time.Time, lockDuration time.Duration) bool {
	until := a.LockedUntil(lockDuration)
	return until != nil && now.Before(*until)
}

// RegisterFailure counts a failed attempt and locks once maxAttempts is reached.
func (a *Admin) RegisterFailure(now time.Time, maxAttempts int) {
	a.LoginAttempts++
	a.LastAttempt = &now
	if a.LoginAttempts >= maxAttempts {
		a.IsLocked = true
	}
}

// RegisterSuccess clears the failure counter and stamps the login time.
func (a *Admin) RegisterSuccess(now time.Time) {
	a.LoginAttempts = 0
	a.IsLocked = false
	a.LastLogin = &now
}

// Reset clears an expired lock.
func (a *Admin) Reset() {
	a.LoginAttempts = 0
	a.IsLocked = false
}
