package lockout

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"quicker-admin/database"
	"quicker-admin/models/admin"
	"quicker-admin/services/credential"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func setupGuard(t *testing.T) (*Guard, *gorm.DB) {
	t.Helper()
	return setupGuardOn(t, database.SetupSQLiteTestDB(t))
}

func setupGuardOn(t *testing.T, db *gorm.DB) (*Guard, *gorm.DB) {
	t.Helper()
	store := credential.NewStore(db, credential.WithCost(bcrypt.MinCost))
	_, err := store.EnsureAdmin(context.Background(), "admin", "4568")
	require.NoError(t, err)
	return NewGuard(db, store, DefaultPolicy()), db
}

func loadAdmin(t *testing.T, db *gorm.DB) admin.Admin {
	t.Helper()
	var a admin.Admin
	require.NoError(t, db.Where("username = ?", "admin").First(&a).Error)
	return a
}

func TestAttemptLogin(t *testing.T) {
	ctx := context.Background()
	meta := ClientMeta{IPAddress: "10.0.0.1", UserAgent: "test"}

	t.Run("CorrectPasswordAuthenticates", func(t *testing.T) {
		guard, db := setupGuard(t)

		out, err := guard.AttemptLogin(ctx, "admin", "4568", meta, t0)
		require.NoError(t, err)
		assert.Equal(t, Authenticated, out.Status)
		require.NotNil(t, out.Admin)

		a := loadAdmin(t, db)
		assert.Zero(t, a.LoginAttempts)
		require.NotNil(t, a.LastLogin)
		assert.True(t, a.LastLogin.Equal(t0))
	})

	t.Run("FailuresCountDownThenLock", func(t *testing.T) {
		guard, db := setupGuard(t)

		for i := 1; i <= 4; i++ {
			out, err := guard.AttemptLogin(ctx, "admin", "wrong", meta, t0.Add(time.Duration(i)*time.Second))
			require.NoError(t, err)
			assert.Equal(t, InvalidCredentials, out.Status)
			assert.Equal(t, 5-i, out.RemainingAttempts)
		}

		out, err := guard.AttemptLogin(ctx, "admin", "wrong", meta, t0.Add(5*time.Second))
		require.NoError(t, err)
		assert.Equal(t, LockedOut, out.Status)
		assert.True(t, out.JustLocked)
		assert.Equal(t, 30*time.Minute, out.Remaining)

		a := loadAdmin(t, db)
		assert.True(t, a.IsLocked)
		assert.Equal(t, 5, a.LoginAttempts)
	})

	t.Run("CorrectPasswordRejectedWhileLocked", func(t *testing.T) {
		guard, _ := setupGuard(t)
		for i := 0; i < 5; i++ {
			_, err := guard.AttemptLogin(ctx, "admin", "wrong", meta, t0)
			require.NoError(t, err)
		}

		out, err := guard.AttemptLogin(ctx, "admin", "4568", meta, t0.Add(10*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, LockedOut, out.Status)
		assert.False(t, out.JustLocked)
		assert.Equal(t, 20*time.Minute, out.Remaining)
	})

	t.Run("LockExpiresAfterDuration", func(t *testing.T) {
		guard, db := setupGuard(t)
		for i := 0; i < 5; i++ {
			_, err := guard.AttemptLogin(ctx, "admin", "wrong", meta, t0)
			require.NoError(t, err)
		}

		out, err := guard.AttemptLogin(ctx, "admin", "wrong", meta, t0.Add(31*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, InvalidCredentials, out.Status)
		assert.Equal(t, 4, out.RemainingAttempts)

		out, err = guard.AttemptLogin(ctx, "admin", "4568", meta, t0.Add(32*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, Authenticated, out.Status)
		a := loadAdmin(t, db)
		assert.False(t, a.IsLocked)
		assert.Zero(t, a.LoginAttempts)
	})

	t.Run("SuccessResetsCounter", func(t *testing.T) {
		guard, db := setupGuard(t)
		for i := 0; i < 3; i++ {
			_, err := guard.AttemptLogin(ctx, "admin", "wrong", meta, t0)
			require.NoError(t, err)
		}
		_, err := guard.AttemptLogin(ctx, "admin", "4568", meta, t0)
		require.NoError(t, err)

		assert.Zero(t, loadAdmin(t, db).LoginAttempts)
	})

	t.Run("UnknownIdentity", func(t *testing.T) {
		guard, _ := setupGuard(t)
		out, err := guard.AttemptLogin(ctx, "nobody", "4568", meta, t0)
		require.NoError(t, err)
		assert.Equal(t, InvalidCredentials, out.Status)
	})

	t.Run("EveryAttemptIsLogged", func(t *testing.T) {
		guard, db := setupGuard(t)
		_, _ = guard.AttemptLogin(ctx, "admin", "wrong", meta, t0)
		_, _ = guard.AttemptLogin(ctx, "admin", "4568", meta, t0.Add(time.Second))
		_, _ = guard.AttemptLogin(ctx, "nobody", "x", meta, t0.Add(2*time.Second))

		var logs []admin.LoginLog
		require.NoError(t, db.Order("id").Find(&logs).Error)
		require.Len(t, logs, 3)
		assert.False(t, logs[0].Success)
		assert.True(t, logs[1].Success)
		assert.Equal(t, "authenticated", logs[1].Outcome)
		assert.Nil(t, logs[2].AdminID)
		assert.Equal(t, "10.0.0.1", logs[0].IPAddress)

		recent, err := guard.RecentAttempts(ctx, 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "nobody", recent[0].Username)
	})
}

func TestConcurrentFailuresAreNotLost(t *testing.T) {
	guard, db := setupGuardOn(t, database.SetupSQLiteFileTestDB(t))
	ctx := context.Background()
	stopWrites := database.StartBackgroundWrites(t, db, 2*time.Millisecond)

	const attempts = 10
	outcomes := make(chan Status, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := guard.AttemptLogin(ctx, "admin", "wrong", ClientMeta{}, t0)
			if err != nil {
				t.Errorf("attempt failed: %v", err)
				return
			}
			outcomes <- out.Status
		}()
	}
	wg.Wait()
	close(outcomes)
	assert.Zero(t, stopWrites(), "background writes failed")

	counts := map[Status]int{}
	for s := range outcomes {
		counts[s]++
	}
	assert.Equal(t, 4, counts[InvalidCredentials])
	assert.Equal(t, 6, counts[LockedOut])

	a := loadAdmin(t, db)
	assert.True(t, a.IsLocked)
	assert.Equal(t, 5, a.LoginAttempts)
}

func TestUnlock(t *testing.T) {
	guard, db := setupGuard(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, _ = guard.AttemptLogin(ctx, "admin", "wrong", ClientMeta{}, t0)
	}

	require.NoError(t, guard.Unlock(ctx, "admin"))
	assert.False(t, loadAdmin(t, db).IsLocked)

	out, err := guard.AttemptLogin(ctx, "admin", "4568", ClientMeta{}, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, Authenticated, out.Status)

	assert.Error(t, guard.Unlock(ctx, "ghost"))
}

func TestLockStripesAreBounded(t *testing.T) {
	guard, _ := setupGuard(t)
	assert.Same(t, guard.lockFor("admin"), guard.lockFor("admin"))

	stripes := map[*sync.Mutex]bool{}
	for i := 0; i < 10000; i++ {
		stripes[guard.lockFor(fmt.Sprintf("user-%d", i))] = true
	}
	assert.LessOrEqual(t, len(stripes), lockStripes)
	for mu := range stripes {
		found := false
		for i := range guard.locks {
			if mu == &guard.locks[i] {
				found = true
				break
			}
		}
		assert.True(t, found)
	}
}

func TestLoginsSurviveConcurrentWriters(t *testing.T) {
	guard, db := setupGuardOn(t, database.SetupSQLiteFileTestDB(t))
	ctx := context.Background()
	stopWrites := database.StartBackgroundWrites(t, db, time.Millisecond)

	const workers, perWorker = 6, 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []error
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := guard.AttemptLogin(ctx, "admin", "4568", ClientMeta{}, t0); err != nil {
					mu.Lock()
					failures = append(failures, err)
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, stopWrites())
	assert.Empty(t, failures)

	var logged int64
	require.NoError(t, db.Model(&admin.LoginLog{}).Count(&logged).Error)
	assert.Equal(t, int64(workers*perWorker), logged)
}
