package admin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegisterFailureLocksAtThreshold(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := &Admin{Username: "admin"}

	for i := 0; i < 4; i++ {
		a.RegisterFailure(now, 5)
		assert.False(t, a.IsLocked)
	}
	a.RegisterFailure(now, 5)

	assert.True(t, a.IsLocked)
	assert.Equal(t, 5, a.LoginAttempts)
	assert.True(t, a.IsCurrentlyLocked(now.Add(29*time.Minute), 30*time.Minute))
	assert.False(t, a.IsCurrentlyLocked(now.Add(30*time.Minute), 30*time.Minute))
}

func TestRegisterSuccessClearsCounter(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := &Admin{LoginAttempts: 3}

	a.RegisterSuccess(now)

	assert.Zero(t, a.LoginAttempts)
	assert.Equal(t, now, *a.LastLogin)
	assert.Nil(t, a.LockedUntil(time.Minute))
}
