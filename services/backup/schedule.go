package backup

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"quicker-admin/errs"
	model "quicker-admin/models/backup"
)

const defaultRetentionDays = 30

type ScheduleInput struct {
	Frequency     model.Frequency
	Time          string
	RetentionDays int
	IsActive      *bool
}

// SchedulePatch changes only the fields that are set.
type SchedulePatch struct {
	Frequency     *model.Frequency
	Time          *string
	RetentionDays *int
	IsActive      *bool
}

func validateTime(value string) error {
	if _, err := time.Parse("15:04", value); err != nil {
		return errs.Validation("time must be HH:MM")
	}
	return nil
}

func (s *Service) ListSchedules(ctx context.Context) ([]model.BackupSchedule, error) {
	var schedules []model.BackupSchedule
	if err := s.DB.WithContext(ctx).Order("id").Find(&schedules).Error; err != nil {
		return nil, errs.Internal("failed to list backup schedules", err)
	}
	return schedules, nil
}

func (s *Service) CreateSchedule(ctx context.Context, in ScheduleInput) (*model.BackupSchedule, error) {
	if !in.Frequency.Valid() {
		return nil, errs.Validation("frequency must be daily, weekly or monthly")
	}
	if err := validateTime(in.Time); err != nil {
		return nil, err
	}
	if in.RetentionDays < 0 {
		return nil, errs.Validation("retention_days must be positive")
	}
	if in.RetentionDays == 0 {
		in.RetentionDays = defaultRetentionDays
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	sc := model.BackupSchedule{Frequency: in.Frequency, Time: in.Time, RetentionDays: in.RetentionDays, IsActive: active}
	if err := s.DB.WithContext(ctx).Create(&sc).Error; err != nil {
		return nil, errs.Internal("failed to create backup schedule", err)
	}
	return &sc, nil
}

func (s *Service) UpdateSchedule(ctx context.Context, id uint, patch SchedulePatch) (*model.BackupSchedule, error) {
	var sc model.BackupSchedule
	if err := s.DB.WithContext(ctx).First(&sc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("backup schedule %d not found", id)
		}
		return nil, errs.Internal("failed to load backup schedule", err)
	}

	if patch.Frequency != nil {
		if !patch.Frequency.Valid() {
			return nil, errs.Validation("frequency must be daily, weekly or monthly")
		}
		sc.Frequency = *patch.Frequency
	}
	if patch.Time != nil {
		if err := validateTime(*patch.Time); err != nil {
			return nil, err
		}
		sc.Time = *patch.Time
	}
	if patch.RetentionDays != nil {
		if *patch.RetentionDays <= 0 {
			return nil, errs.Validation("retention_days must be positive")
		}
		sc.RetentionDays = *patch.RetentionDays
	}
	if patch.IsActive != nil {
		sc.IsActive = *patch.IsActive
	}

	if err := s.DB.WithContext(ctx).Save(&sc).Error; err != nil {
		return nil, errs.Internal("failed to update backup schedule", err)
	}
	return &sc, nil
}

func (s *Service) DeleteSchedule(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&model.BackupSchedule{}, id)
	if res.Error != nil {
		return errs.Internal("failed to delete backup schedule", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("backup schedule %d not found", id)
	}
	return nil
}
