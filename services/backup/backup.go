package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"quicker-admin/errs"
	"quicker-admin/logger"
	model "quicker-admin/models/backup"
)

const stampLayout = "20060102_150405"

// Service snapshots the live SQLite store into a backup directory and
// keeps a catalog of the snapshots in the store itself.
type Service struct {
	DB  *gorm.DB
	dir string
	now func() time.Time
}

func NewService(db *gorm.DB, dir string) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	return &Service{DB: db, dir: dir, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Service) path(filename string) string {
	return filepath.Join(s.dir, filename)
}

// copyDatabase runs an online backup from src into dst in one step.
func copyDatabase(dst, src *sqlite3.SQLiteConn) error {
	b, err := dst.Backup("main", src, "main")
	if err != nil {
		return err
	}
	if _, err := b.Step(-1); err != nil {
		_ = b.Finish()
		return err
	}
	return b.Finish()
}

func openFile(path string) (*sqlite3.SQLiteConn, error) {
	conn, err := (&sqlite3.SQLiteDriver{}).Open(path)
	if err != nil {
		return nil, err
	}
	return conn.(*sqlite3.SQLiteConn), nil
}

// withLiveConn hands fn the raw SQLite connection behind the pool.
func (s *Service) withLiveConn(ctx context.Context, fn func(live *sqlite3.SQLiteConn) error) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		live, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			return errs.Validation("backups are only supported on the sqlite store")
		}
		return fn(live)
	})
}

func (s *Service) snapshotTo(ctx context.Context, path string) error {
	return s.withLiveConn(ctx, func(live *sqlite3.SQLiteConn) error {
		dst, err := openFile(path)
		if err != nil {
			return err
		}
		defer dst.Close()
		return copyDatabase(dst, live)
	})
}

func wrap(action string, err error) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	return errs.Internal("failed to "+action, err)
}

// Create snapshots the store and catalogs the file.
func (s *Service) Create(ctx context.Context, description string, auto bool) (*model.Backup, error) {
	at := s.now()
	filename := fmt.Sprintf("backup_%s_%s.db", at.Format(stampLayout), uuid.NewString()[:8])
	path := s.path(filename)

	if err := s.snapshotTo(ctx, path); err != nil {
		_ = os.Remove(path)
		return nil, wrap("create backup", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, wrap("stat backup file", err)
	}

	b := model.Backup{
		Filename:    filename,
		Size:        info.Size(),
		Description: strings.TrimSpace(description),
		IsAuto:      auto,
		CreatedAt:   at,
	}
	if err := s.DB.WithContext(ctx).Create(&b).Error; err != nil {
		_ = os.Remove(path)
		return nil, wrap("catalog backup", err)
	}
	logger.Success("Created backup " + filename)
	return &b, nil
}

func (s *Service) List(ctx context.Context) ([]model.Backup, error) {
	var backups []model.Backup
	if err := s.DB.WithContext(ctx).Order("created_at desc, id desc").Find(&backups).Error; err != nil {
		return nil, errs.Internal("failed to list backups", err)
	}
	return backups, nil
}

func (s *Service) find(ctx context.Context, id uint) (*model.Backup, error) {
	var b model.Backup
	if err := s.DB.WithContext(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("backup %d not found", id)
		}
		return nil, errs.Internal("failed to load backup", err)
	}
	return &b, nil
}

// Path returns the file behind a catalog entry, for download.
func (s *Service) Path(ctx context.Context, id uint) (string, *model.Backup, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return "", nil, err
	}
	path := s.path(b.Filename)
	if _, err := os.Stat(path); err != nil {
		return "", nil, errs.NotFound("backup file %s is missing", b.Filename)
	}
	return path, b, nil
}

// Restore replaces the live store with a backup. A pre-restore snapshot is
// written first, and the backup catalog survives the restore.
func (s *Service) Restore(ctx context.Context, id uint) (string, error) {
	path, _, err := s.Path(ctx, id)
	if err != nil {
		return "", err
	}

	safety := fmt.Sprintf("pre_restore_%s.db", s.now().Format(stampLayout))
	if err := s.snapshotTo(ctx, s.path(safety)); err != nil {
		return "", wrap("write pre-restore snapshot", err)
	}

	var catalog []model.Backup
	if err := s.DB.WithContext(ctx).Find(&catalog).Error; err != nil {
		return "", errs.Internal("failed to read backup catalog", err)
	}

	err = s.withLiveConn(ctx, func(live *sqlite3.SQLiteConn) error {
		src, err := openFile(path)
		if err != nil {
			return err
		}
		defer src.Close()
		return copyDatabase(live, src)
	})
	if err != nil {
		return "", wrap("restore backup", err)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.Backup{}).Error; err != nil {
			return err
		}
		if len(catalog) == 0 {
			return nil
		}
		return tx.Create(&catalog).Error
	})
	if err != nil {
		return "", errs.Internal("failed to rebuild backup catalog", err)
	}
	logger.Warning("Database restored from backup " + filepath.Base(path) + ", previous state saved as " + safety)
	return safety, nil
}

// Delete removes a manual backup and its file. Automatic backups are
// removed only by retention cleanup.
func (s *Service) Delete(ctx context.Context, id uint) error {
	b, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if b.IsAuto {
		return errs.Validation("automatic backups cannot be deleted")
	}
	if err := os.Remove(s.path(b.Filename)); err != nil && !os.IsNotExist(err) {
		return errs.Internal("failed to delete backup file", err)
	}
	if err := s.DB.WithContext(ctx).Delete(b).Error; err != nil {
		return errs.Internal("failed to delete backup", err)
	}
	return nil
}

// CleanupOldBackups deletes automatic backups older than the shortest
// retention among active schedules.
func (s *Service) CleanupOldBackups(ctx context.Context) (int, error) {
	var retention int
	err := s.DB.WithContext(ctx).Model(&model.BackupSchedule{}).Where("is_active = ?", true).
		Select("COALESCE(MIN(retention_days), 0)").Scan(&retention).Error
	if err != nil {
		return 0, errs.Internal("failed to read retention", err)
	}
	if retention <= 0 {
		return 0, nil
	}

	cutoff := s.now().AddDate(0, 0, -retention)
	var old []model.Backup
	if err := s.DB.WithContext(ctx).Where("is_auto = ? AND created_at < ?", true, cutoff).Find(&old).Error; err != nil {
		return 0, errs.Internal("failed to find expired backups", err)
	}

	removed := 0
	for _, b := range old {
		if err := os.Remove(s.path(b.Filename)); err != nil && !os.IsNotExist(err) {
			logger.Error("Failed to remove backup file "+b.Filename, err)
			continue
		}
		if err := s.DB.WithContext(ctx).Delete(&b).Error; err != nil {
			logger.Error("Failed to remove backup record "+b.Filename, err)
			continue
		}
		removed++
	}
	return removed, nil
}

// RunScheduled takes one automatic backup if any active schedule has the
// given frequency, and stamps those schedules.
func (s *Service) RunScheduled(ctx context.Context, frequency model.Frequency) (*model.Backup, error) {
	if !frequency.Valid() {
		return nil, errs.Validation("unknown frequency %q", frequency)
	}
	var due []model.BackupSchedule
	if err := s.DB.WithContext(ctx).Where("is_active = ? AND frequency = ?", true, frequency).Find(&due).Error; err != nil {
		return nil, errs.Internal("failed to load schedules", err)
	}
	if len(due) == 0 {
		return nil, nil
	}

	b, err := s.Create(ctx, fmt.Sprintf("automatic %s backup", frequency), true)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(due))
	for _, sc := range due {
		ids = append(ids, sc.ID)
	}
	if err := s.DB.WithContext(ctx).Model(&model.BackupSchedule{}).Where("id IN ?", ids).Update("last_run", b.CreatedAt).Error; err != nil {
		logger.Error("Failed to stamp backup schedules", err)
	}
	return b, nil
}
