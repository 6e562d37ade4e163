package credential

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"quicker-admin/database"
	"quicker-admin/errs"
	"quicker-admin/models/admin"
)

func TestEnsureAdmin(t *testing.T) {
	db := database.SetupSQLiteTestDB(t)
	store := NewStore(db, WithCost(bcrypt.MinCost))
	ctx := context.Background()

	t.Run("CreatesWithInitialPassword", func(t *testing.T) {
		a, err := store.EnsureAdmin(ctx, "admin", "4568")
		require.NoError(t, err)
		assert.NotEqual(t, "4568", a.PasswordHash)
		assert.True(t, store.Verify(a, "4568"))
		assert.False(t, store.Verify(a, "4569"))
	})

	t.Run("ExistingAdminIsUntouched", func(t *testing.T) {
		a, err := store.EnsureAdmin(ctx, "admin", "other")
		require.NoError(t, err)
		assert.True(t, store.Verify(a, "4568"))

		var count int64
		db.Model(&admin.Admin{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})
}

func TestChangePassword(t *testing.T) {
	db := database.SetupSQLiteTestDB(t)
	store := NewStore(db, WithCost(bcrypt.MinCost))
	ctx := context.Background()
	a, err := store.EnsureAdmin(ctx, "admin", "4568")
	require.NoError(t, err)

	t.Run("WrongCurrentPassword", func(t *testing.T) {
		err := store.ChangePassword(ctx, a.ID, "0000", "abcd", "abcd")
		assert.True(t, errs.Is(err, errs.KindValidation))
	})

	t.Run("Mismatch", func(t *testing.T) {
		err := store.ChangePassword(ctx, a.ID, "4568", "abcd", "abce")
		assert.EqualError(t, err, "new passwords do not match")
	})

	t.Run("TooShort", func(t *testing.T) {
		err := store.ChangePassword(ctx, a.ID, "4568", "abc", "abc")
		assert.True(t, errs.Is(err, errs.KindValidation))
	})

	t.Run("UnknownAdmin", func(t *testing.T) {
		err := store.ChangePassword(ctx, 999, "4568", "abcd", "abcd")
		assert.True(t, errs.Is(err, errs.KindNotFound))
	})

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, store.ChangePassword(ctx, a.ID, "4568", "new-secret", "new-secret"))

		var reloaded admin.Admin
		require.NoError(t, db.First(&reloaded, a.ID).Error)
		assert.True(t, store.Verify(&reloaded, "new-secret"))
		assert.False(t, store.Verify(&reloaded, "4568"))
	})
}
