package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"quicker-admin/config"
	"quicker-admin/logger"
	"quicker-admin/models/admin"
	"quicker-admin/models/apikey"
	"quicker-admin/models/backup"
	apilog "quicker-admin/models/log"
	"quicker-admin/models/member"
	"quicker-admin/models/notification"
	"quicker-admin/models/stats"
)

// InitDB opens the configured store and brings its schema up to date.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormLogLevel := gormlogger.Warn
	if !cfg.IsProduction() {
		gormLogLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, gormConfig(gormlogger.Default.LogMode(gormLogLevel)))
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the " + cfg.DBDriver + " database")

	if err := Migrate(db); err != nil {
		logger.Error("Failed to migrate database", err)
		return nil, err
	}
	return db, nil
}

// SQLiteDSN opens path in WAL mode. Transactions take the write lock at
// BEGIN so a read-then-write transaction waits on the busy timeout instead of
// failing when another connection commits first.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL&_txlock=immediate", path)
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.Open(SQLiteDSN(cfg.DBPath)), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUsername, cfg.DBPassword, cfg.DBDatabase, cfg.DBSSLMode)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

func gormConfig(l gormlogger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:         l,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Migrate creates or updates every table and the extra indexes.
func Migrate(db *gorm.DB) error {
	if err := autoMigrate(db); err != nil {
		return err
	}
	logger.Success("All migrations completed successfully")

	if err := createIndexes(db); err != nil {
		return err
	}
	logger.Success("All indexes created successfully")
	return nil
}

// autoMigrate runs auto migration in dependency order.
func autoMigrate(db *gorm.DB) error {
	// Stage 1: accounts and members
	stage1Models := []interface{}{
		&admin.Admin{},
		&member.Member{},
		&apikey.ApiKey{},
	}

	for _, model := range stage1Models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 2: rows owned by stage 1 models
	stage2Models := []interface{}{
		&admin.LoginLog{},
		&member.CID{},
		&member.MemberActivity{},
		&apilog.ApiLog{},
		&notification.Notification{},
		&notification.NotificationSetting{},
	}

	for _, model := range stage2Models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 3: standalone bookkeeping
	remainingModels := []interface{}{
		&backup.Backup{},
		&backup.BackupSchedule{},
		&stats.DailyStats{},
	}

	for _, model := range remainingModels {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	return nil
}

// createIndexes creates composite indexes the struct tags cannot express.
func createIndexes(db *gorm.DB) error {
	indexes := []struct {
		name string
		sql  string
	}{
		{"api log key timestamp", "CREATE INDEX IF NOT EXISTS idx_api_logs_key_timestamp ON api_logs(api_key_id, timestamp)"},
		{"api log status", "CREATE INDEX IF NOT EXISTS idx_api_logs_status_code ON api_logs(status_code)"},
		{"member registration date", "CREATE INDEX IF NOT EXISTS idx_members_registration_date ON members(registration_date)"},
		{"notification unread", "CREATE INDEX IF NOT EXISTS idx_notifications_admin_read ON notifications(admin_id, is_read)"},
		{"activity member created", "CREATE INDEX IF NOT EXISTS idx_member_activities_member_created ON member_activities(member_id, created_at)"},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.sql).Error; err != nil {
			return fmt.Errorf("failed to create %s index: %w", idx.name, err)
		}
	}
	return nil
}
