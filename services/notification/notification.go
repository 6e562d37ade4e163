package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"quicker-admin/errs"
	"quicker-admin/logger"
	"quicker-admin/models/admin"
	model "quicker-admin/models/notification"
	"quicker-admin/services/registry"
)

// Input describes one alert. AdminID 0 addresses every admin.
type Input struct {
	AdminID  uint
	Type     model.Type
	Title    string
	Message  string
	Priority model.Priority
	Data     map[string]interface{}
}

// Mailer delivers email notifications.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes mail to the application log instead of sending it.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, body string) error {
	logger.Info(fmt.Sprintf("Mail to %s: %s - %s", to, subject, body))
	return nil
}

type Service struct {
	DB               *gorm.DB
	mailer           Mailer
	expiryNoticeDays int
	now              func() time.Time
}

func NewService(db *gorm.DB, mailer Mailer, expiryNoticeDays int) *Service {
	if mailer == nil {
		mailer = LogMailer{}
	}
	if expiryNoticeDays <= 0 {
		expiryNoticeDays = 7
	}
	return &Service{
		DB:               db,
		mailer:           mailer,
		expiryNoticeDays: expiryNoticeDays,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func defaultSetting(adminID uint, t model.Type) model.NotificationSetting {
	return model.NotificationSetting{
		AdminID:      adminID,
		Type:         t,
		EmailEnabled: true,
		WebEnabled:   true,
		Priority:     model.PriorityNormal,
	}
}

func (s *Service) settingFor(ctx context.Context, adminID uint, t model.Type) (model.NotificationSetting, error) {
	var setting model.NotificationSetting
	err := s.DB.WithContext(ctx).Where("admin_id = ? AND type = ?", adminID, t).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultSetting(adminID, t), nil
	}
	return setting, err
}

// Notify stores the alert for each recipient with web delivery enabled and
// mails those with email enabled. Mail failures are logged, not returned.
func (s *Service) Notify(ctx context.Context, in Input) error {
	if !in.Type.Valid() {
		return errs.Validation("unknown notification type %q", in.Type)
	}
	if in.Priority == "" {
		in.Priority = model.PriorityNormal
	}

	var data datatypes.JSON
	if in.Data != nil {
		raw, err := json.Marshal(in.Data)
		if err != nil {
			return errs.Internal("failed to encode notification data", err)
		}
		data = raw
	}

	var recipients []admin.Admin
	q := s.DB.WithContext(ctx)
	if in.AdminID != 0 {
		q = q.Where("id = ?", in.AdminID)
	}
	if err := q.Find(&recipients).Error; err != nil {
		return errs.Internal("failed to load notification recipients", err)
	}

	for _, a := range recipients {
		setting, err := s.settingFor(ctx, a.ID, in.Type)
		if err != nil {
			return errs.Internal("failed to load notification settings", err)
		}

		if setting.WebEnabled {
			n := model.Notification{
				AdminID:   a.ID,
				Type:      in.Type,
				Title:     in.Title,
				Message:   in.Message,
				Priority:  in.Priority,
				Data:      data,
				CreatedAt: s.now(),
			}
			if err := s.DB.WithContext(ctx).Create(&n).Error; err != nil {
				return errs.Internal("failed to store notification", err)
			}
		}

		if setting.EmailEnabled && a.Email != nil && *a.Email != "" {
			if err := s.mailer.Send(ctx, *a.Email, in.Title, in.Message); err != nil {
				logger.Error("Failed to send notification email to "+*a.Email, err)
			}
		}
	}
	return nil
}

// OnExpiryChanged raises an expiry notice when a member's subscription ends
// within the notice window.
func (s *Service) OnExpiryChanged(ctx context.Context, ev registry.ExpiryChanged) {
	remaining := ev.ExpiryDate.Sub(s.now())
	if remaining < 0 {
		return
	}
	days := int(remaining.Hours() / 24)
	if days > s.expiryNoticeDays {
		return
	}

	priority := model.PriorityNormal
	if days <= 3 {
		priority = model.PriorityHigh
	}
	err := s.Notify(ctx, Input{
		Type:     model.TypeExpiry,
		Title:    "Membership expiring soon",
		Message:  fmt.Sprintf("%s's membership expires in %d days.", ev.Name, days),
		Priority: priority,
		Data: map[string]interface{}{
			"member_id":   ev.MemberID,
			"phone":       ev.Phone,
			"expiry_date": ev.ExpiryDate.Format("2006-01-02"),
		},
	})
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to raise expiry notice for member %d", ev.MemberID), err)
	}
}

// List returns the admin's notifications, newest first.
func (s *Service) List(ctx context.Context, adminID uint) ([]model.Notification, error) {
	var items []model.Notification
	err := s.DB.WithContext(ctx).Where("admin_id = ?", adminID).Order("created_at desc, id desc").Find(&items).Error
	if err != nil {
		return nil, errs.Internal("failed to list notifications", err)
	}
	return items, nil
}

func (s *Service) UnreadCount(ctx context.Context, adminID uint) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&model.Notification{}).Where("admin_id = ? AND is_read = ?", adminID, false).Count(&count).Error
	if err != nil {
		return 0, errs.Internal("failed to count notifications", err)
	}
	return count, nil
}

// owned loads a notification and checks it belongs to adminID.
func (s *Service) owned(ctx context.Context, adminID, id uint) (*model.Notification, error) {
	var n model.Notification
	if err := s.DB.WithContext(ctx).First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("notification %d not found", id)
		}
		return nil, errs.Internal("failed to load notification", err)
	}
	if n.AdminID != adminID {
		return nil, errs.Forbidden("notification %d belongs to another admin", id)
	}
	return &n, nil
}

func (s *Service) MarkRead(ctx context.Context, adminID, id uint) error {
	n, err := s.owned(ctx, adminID, id)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Model(n).Update("is_read", true).Error; err != nil {
		return errs.Internal("failed to mark notification read", err)
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, adminID uint) error {
	err := s.DB.WithContext(ctx).Model(&model.Notification{}).Where("admin_id = ? AND is_read = ?", adminID, false).Update("is_read", true).Error
	if err != nil {
		return errs.Internal("failed to mark notifications read", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, adminID, id uint) error {
	n, err := s.owned(ctx, adminID, id)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Delete(n).Error; err != nil {
		return errs.Internal("failed to delete notification", err)
	}
	return nil
}

func (s *Service) ClearAll(ctx context.Context, adminID uint) error {
	if err := s.DB.WithContext(ctx).Where("admin_id = ?", adminID).Delete(&model.Notification{}).Error; err != nil {
		return errs.Internal("failed to clear notifications", err)
	}
	return nil
}

// Settings returns one setting per notification type, defaults filled in.
func (s *Service) Settings(ctx context.Context, adminID uint) (map[model.Type]model.NotificationSetting, error) {
	var stored []model.NotificationSetting
	if err := s.DB.WithContext(ctx).Where("admin_id = ?", adminID).Find(&stored).Error; err != nil {
		return nil, errs.Internal("failed to load notification settings", err)
	}

	result := make(map[model.Type]model.NotificationSetting, len(model.Types))
	for _, t := range model.Types {
		result[t] = defaultSetting(adminID, t)
	}
	for _, st := range stored {
		result[st.Type] = st
	}
	return result, nil
}

type SettingInput struct {
	EmailEnabled bool
	WebEnabled   bool
	Priority     model.Priority
}

// UpdateSettings upserts the given types. Unknown types or priorities reject the whole update.
func (s *Service) UpdateSettings(ctx context.Context, adminID uint, updates map[model.Type]SettingInput) error {
	for t, in := range updates {
		if !t.Valid() {
			return errs.Validation("unknown notification type %q", t)
		}
		if in.Priority != "" && !in.Priority.Valid() {
			return errs.Validation("unknown priority %q", in.Priority)
		}
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for t, in := range updates {
			var setting model.NotificationSetting
			err := tx.Where("admin_id = ? AND type = ?", adminID, t).First(&setting).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				setting = defaultSetting(adminID, t)
			} else if err != nil {
				return err
			}
			setting.EmailEnabled = in.EmailEnabled
			setting.WebEnabled = in.WebEnabled
			if in.Priority != "" {
				setting.Priority = in.Priority
			}
			if err := tx.Save(&setting).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errs.Internal("failed to update notification settings", err)
	}
	return nil
}
