package verification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"quicker-admin/database"
	"quicker-admin/errs"
	"quicker-admin/models/member"
	"quicker-admin/services/registry"
)

var now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func seedMember(t *testing.T, db *gorm.DB, phone string, expiry time.Time, cids map[string]bool) member.Member {
	t.Helper()
	m := member.Member{Name: "Park", Phone: phone, RegistrationDate: now.AddDate(0, -1, 0), ExpiryDate: expiry}
	require.NoError(t, db.Create(&m).Error)
	for value, active := range cids {
		require.NoError(t, db.Create(&member.CID{Value: value, MemberID: m.ID, IsActive: active}).Error)
	}
	return m
}

func TestVerifyByCID(t *testing.T) {
	db := database.SetupSQLiteTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	seedMember(t, db, "01011112222", now.AddDate(0, 1, 0), map[string]bool{"ACTIVE-1": true, "OFF-1": false})
	seedMember(t, db, "01033334444", now.Add(-time.Second), map[string]bool{"LAPSED-1": true})

	t.Run("Valid", func(t *testing.T) {
		res, err := engine.VerifyByCID(ctx, "ACTIVE-1", now)
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.Equal(t, "Park", res.MemberName)
		assert.Equal(t, "01011112222", res.MemberPhone)
		assert.Equal(t, "2026-07-15", res.ExpiryDate)
	})

	t.Run("Unregistered", func(t *testing.T) {
		res, err := engine.VerifyByCID(ctx, "NOPE", now)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, ReasonUnregistered, res.Reason)
	})

	t.Run("Deactivated", func(t *testing.T) {
		res, err := engine.VerifyByCID(ctx, "OFF-1", now)
		require.NoError(t, err)
		assert.Equal(t, ReasonDeactivated, res.Reason)
	})

	t.Run("ExpiredOneSecondAgo", func(t *testing.T) {
		res, err := engine.VerifyByCID(ctx, "LAPSED-1", now)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, ReasonExpired, res.Reason)
		assert.Empty(t, res.MemberName)
	})

	t.Run("Blank", func(t *testing.T) {
		_, err := engine.VerifyByCID(ctx, "  ", now)
		assert.True(t, errs.Is(err, errs.KindValidation))
	})
}

func TestVerifyByPhone(t *testing.T) {
	db := database.SetupSQLiteTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	seedMember(t, db, "01011112222", now.AddDate(0, 0, 10), map[string]bool{"A": true, "B": true, "C": false})
	seedMember(t, db, "01033334444", now.AddDate(0, 0, -1), map[string]bool{"D": true})

	t.Run("ReturnsActiveCIDsOnly", func(t *testing.T) {
		res, err := engine.VerifyByPhone(ctx, "01011112222", now)
		require.NoError(t, err)
		assert.True(t, res.Success)
		require.NotNil(t, res.Member)
		assert.ElementsMatch(t, []string{"A", "B"}, res.Member.CIDs)
		assert.Equal(t, 2, res.Member.CIDCount)
	})

	t.Run("Expired", func(t *testing.T) {
		res, err := engine.VerifyByPhone(ctx, "01033334444", now)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, ReasonExpired, res.Reason)
		assert.Nil(t, res.Member)
	})

	t.Run("Unregistered", func(t *testing.T) {
		res, err := engine.VerifyByPhone(ctx, "01099999999", now)
		require.NoError(t, err)
		assert.Equal(t, ReasonUnregistered, res.Reason)
	})

	t.Run("MissingPhone", func(t *testing.T) {
		_, err := engine.VerifyByPhone(ctx, "", now)
		assert.True(t, errs.Is(err, errs.KindValidation))
	})
}

func TestRegisteredCIDsThroughTheRegistry(t *testing.T) {
	db := database.SetupSQLiteTestDB(t)
	engine := NewEngine(db)
	members := registry.New(db)
	ctx := context.Background()

	kim, err := members.Register(ctx, registry.MemberInput{
		Name:             "Kim",
		Phone:            "01055556666",
		RegistrationDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		CIDs:             []string{"dev-001", "dev-002"},
	})
	require.NoError(t, err)

	t.Run("ExpiredMember", func(t *testing.T) {
		res, err := engine.VerifyByCID(ctx, "dev-001", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, ReasonExpired, res.Reason)
	})

	t.Run("ExpiringExactlyNowIsValid", func(t *testing.T) {
		res, err := engine.VerifyByCID(ctx, "dev-002", kim.ExpiryDate)
		require.NoError(t, err)
		assert.True(t, res.Valid)
	})

	t.Run("UnknownCID", func(t *testing.T) {
		res, err := engine.VerifyByCID(ctx, "dev-999", now)
		require.NoError(t, err)
		assert.Equal(t, ReasonUnregistered, res.Reason)
	})

	t.Run("ReplacedCIDsNoLongerResolve", func(t *testing.T) {
		_, err := members.Update(ctx, kim.ID, registry.MemberInput{
			Name:             "Kim",
			Phone:            "01055556666",
			RegistrationDate: kim.RegistrationDate,
			ExpiryDate:       now.AddDate(1, 0, 0),
			CIDs:             []string{"dev-003"},
		})
		require.NoError(t, err)

		for _, gone := range []string{"dev-001", "dev-002"} {
			res, err := engine.VerifyByCID(ctx, gone, now)
			require.NoError(t, err)
			assert.Equal(t, ReasonUnregistered, res.Reason, gone)
		}
		res, err := engine.VerifyByCID(ctx, "dev-003", now)
		require.NoError(t, err)
		assert.True(t, res.Valid)
	})
}
