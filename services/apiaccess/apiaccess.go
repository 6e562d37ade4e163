package apiaccess

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"quicker-admin/errs"
	"quicker-admin/logger"
	"quicker-admin/models/apikey"
	apilog "quicker-admin/models/log"
	model "quicker-admin/models/notification"
	"quicker-admin/services/notification"
	"quicker-admin/types"
)

const (
	keyPrefix       = "qk_"
	displayPrefixes = 11
)

var (
	ErrMissingKey  = errs.Unauthorized("API key is required")
	ErrInvalidKey  = errs.Unauthorized("invalid API key")
	ErrInactiveKey = errs.Unauthorized("API key is deactivated")
)

// Notifier receives usage alerts.
type Notifier interface {
	Notify(ctx context.Context, in notification.Input) error
}

// Guard issues API keys, authorizes calls made with them and keeps the call log.
type Guard struct {
	DB             *gorm.DB
	notifier       Notifier
	usageThreshold int64
	now            func() time.Time
}

func NewGuard(db *gorm.DB, notifier Notifier, usageThreshold int) *Guard {
	if usageThreshold <= 0 {
		usageThreshold = 1000
	}
	return &Guard{
		DB:             db,
		notifier:       notifier,
		usageThreshold: int64(usageThreshold),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// HashKey returns the stored form of a raw key.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func generateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return keyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// Issue creates a key. The raw key is returned once and never stored.
func (g *Guard) Issue(ctx context.Context, name string) (string, *apikey.ApiKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, errs.Validation("name is required")
	}

	raw, err := generateKey()
	if err != nil {
		return "", nil, errs.Internal("failed to generate API key", err)
	}
	key := apikey.ApiKey{
		KeyHash:   HashKey(raw),
		KeyPrefix: raw[:displayPrefixes],
		Name:      name,
		IsActive:  true,
	}
	if err := g.DB.WithContext(ctx).Create(&key).Error; err != nil {
		return "", nil, errs.Internal("failed to store API key", err)
	}
	return raw, &key, nil
}

func (g *Guard) List(ctx context.Context) ([]apikey.ApiKey, error) {
	var keys []apikey.ApiKey
	if err := g.DB.WithContext(ctx).Order("created_at desc, id desc").Find(&keys).Error; err != nil {
		return nil, errs.Internal("failed to list API keys", err)
	}
	return keys, nil
}

// Deactivate switches a key off. Deactivation is one-way.
func (g *Guard) Deactivate(ctx context.Context, id uint) error {
	res := g.DB.WithContext(ctx).Model(&apikey.ApiKey{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return errs.Internal("failed to deactivate API key", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("API key %d not found", id)
	}
	return nil
}

// Authorize admits a call made with presented. Updating last_used_at is
// best effort and never turns an accepted key into a rejection.
func (g *Guard) Authorize(ctx context.Context, presented string, now time.Time) (*apikey.ApiKey, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return nil, ErrMissingKey
	}

	var key apikey.ApiKey
	err := g.DB.WithContext(ctx).Where("key_hash = ?", HashKey(presented)).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidKey
	}
	if err != nil {
		return nil, errs.Internal("failed to look up API key", err)
	}
	if !key.IsActive {
		return nil, ErrInactiveKey
	}

	if err := g.DB.WithContext(ctx).Model(&key).Update("last_used_at", now).Error; err != nil {
		logger.Error(fmt.Sprintf("Failed to update last_used_at for API key %d", key.ID), err)
	} else {
		key.LastUsedAt = &now
	}
	return &key, nil
}

// Persist writes one call record and runs the usage monitor on it.
func (g *Guard) Persist(ctx context.Context, entry types.LogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = g.now()
	}
	row := apilog.ApiLog{
		ApiKeyID:    entry.ApiKeyID,
		Endpoint:    entry.Endpoint,
		Method:      entry.Method,
		RequestData: entry.RequestData,
		StatusCode:  entry.StatusCode,
		IPAddress:   entry.IPAddress,
		UserAgent:   entry.UserAgent,
		Timestamp:   entry.Timestamp.UTC(),
	}
	if err := g.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	g.monitor(ctx, row)
	return nil
}

// monitor raises an alert when a key crosses the hourly threshold and for
// every failed call. Server errors alert at high priority.
func (g *Guard) monitor(ctx context.Context, row apilog.ApiLog) {
	if g.notifier == nil {
		return
	}

	var count int64
	since := row.Timestamp.Add(-time.Hour)
	err := g.DB.WithContext(ctx).Model(&apilog.ApiLog{}).
		Where("api_key_id = ? AND timestamp > ? AND timestamp <= ?", row.ApiKeyID, since, row.Timestamp).
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to count recent API calls", err)
	} else if count == g.usageThreshold+1 {
		g.alert(ctx, notification.Input{
			Type:     model.TypeAPIUsage,
			Title:    "High API usage",
			Message:  fmt.Sprintf("API key %d made more than %d calls in the last hour.", row.ApiKeyID, g.usageThreshold),
			Priority: model.PriorityHigh,
			Data:     map[string]interface{}{"api_key_id": row.ApiKeyID, "calls_last_hour": count},
		})
	}

	if row.StatusCode >= 400 {
		priority := model.PriorityNormal
		if row.StatusCode >= 500 {
			priority = model.PriorityHigh
		}
		g.alert(ctx, notification.Input{
			Type:     model.TypeError,
			Title:    "API error",
			Message:  fmt.Sprintf("%s %s returned %d.", row.Method, row.Endpoint, row.StatusCode),
			Priority: priority,
			Data: map[string]interface{}{
				"api_key_id":  row.ApiKeyID,
				"endpoint":    row.Endpoint,
				"status_code": row.StatusCode,
			},
		})
	}
}

func (g *Guard) alert(ctx context.Context, in notification.Input) {
	if err := g.notifier.Notify(ctx, in); err != nil {
		logger.Error("Failed to raise API notification", err)
	}
}

type LogView struct {
	apilog.ApiLog
	ApiKeyName string `json:"api_key_name"`
}

type LogPage struct {
	Logs        []LogView `json:"logs"`
	Total       int64     `json:"total"`
	Pages       int       `json:"pages"`
	CurrentPage int       `json:"current_page"`
	PerPage     int       `json:"per_page"`
}

// Logs pages through the call log, newest first.
func (g *Guard) Logs(ctx context.Context, page, perPage int) (*LogPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}

	var total int64
	if err := g.DB.WithContext(ctx).Model(&apilog.ApiLog{}).Count(&total).Error; err != nil {
		return nil, errs.Internal("failed to count API logs", err)
	}

	var views []LogView
	err := g.DB.WithContext(ctx).Table("api_logs").
		Select("api_logs.*, COALESCE(api_keys.name, '') AS api_key_name").
		Joins("LEFT JOIN api_keys ON api_keys.id = api_logs.api_key_id").
		Order("api_logs.timestamp desc, api_logs.id desc").
		Limit(perPage).Offset((page - 1) * perPage).
		Scan(&views).Error
	if err != nil {
		return nil, errs.Internal("failed to load API logs", err)
	}

	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return &LogPage{Logs: views, Total: total, Pages: pages, CurrentPage: page, PerPage: perPage}, nil
}
