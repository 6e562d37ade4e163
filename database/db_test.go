package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"quicker-admin/config"
	"quicker-admin/models/member"
)

func TestInitDBCreatesSQLiteSchema(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBPath: filepath.Join(t.TempDir(), "test.db"), AppEnv: "production"}

	db, err := InitDB(cfg)
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	for _, table := range []string{"admins", "members", "cids", "member_activities", "api_keys", "api_logs",
		"login_logs", "backups", "backup_schedules", "daily_stats", "notifications", "notification_settings"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	assert.NoError(t, Migrate(db))
}

func TestDuplicateCIDIsTranslated(t *testing.T) {
	db := SetupSQLiteTestDB(t)

	require.NoError(t, db.Create(&member.CID{Value: "CID-1", MemberID: 1, IsActive: true}).Error)
	err := db.Create(&member.CID{Value: "CID-1", MemberID: 2, IsActive: true}).Error

	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := InitDB(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}
