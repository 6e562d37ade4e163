package credential

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"quicker-admin/errs"
	"quicker-admin/logger"
	"quicker-admin/models/admin"
)

const MinPasswordLength = 4

// Store keeps admin passwords as bcrypt hashes.
type Store struct {
	DB   *gorm.DB
	cost int
}

type Option func(*Store)

// WithCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(s *Store) { s.cost = cost }
}

func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{DB: db, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", errs.Internal("failed to hash password", err)
	}
	return string(hash), nil
}

// Verify answers whether password matches the admin's stored hash.
func (s *Store) Verify(a *admin.Admin, password string) bool {
	if a == nil || a.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// EnsureAdmin creates the admin with initialPassword if it does not exist yet.
func (s *Store) EnsureAdmin(ctx context.Context, username, initialPassword string) (*admin.Admin, error) {
	var a admin.Admin
	err := s.DB.WithContext(ctx).Where("username = ?", username).First(&a).Error
	if err == nil {
		return &a, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Internal("failed to load admin", err)
	}

	hash, err := s.Hash(initialPassword)
	if err != nil {
		return nil, err
	}
	a = admin.Admin{Username: username, PasswordHash: hash}
	if err := s.DB.WithContext(ctx).Create(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// created concurrently
			if err := s.DB.WithContext(ctx).Where("username = ?", username).First(&a).Error; err == nil {
				return &a, nil
			}
		}
		return nil, errs.Internal("failed to create admin", err)
	}
	logger.Info("Created initial admin account " + username)
	return &a, nil
}

// ChangePassword replaces the admin's password after checking the current one.
func (s *Store) ChangePassword(ctx context.Context, adminID uint, current, next, confirm string) error {
	if current == "" || next == "" {
		return errs.Validation("current and new password are required")
	}
	if next != confirm {
		return errs.Validation("new passwords do not match")
	}
	if len(strings.TrimSpace(next)) < MinPasswordLength {
		return errs.Validation("password must be at least %d characters", MinPasswordLength)
	}

	var a admin.Admin
	if err := s.DB.WithContext(ctx).First(&a, adminID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("admin not found")
		}
		return errs.Internal("failed to load admin", err)
	}
	if !s.Verify(&a, current) {
		return errs.Validation("current password is incorrect")
	}

	hash, err := s.Hash(next)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Model(&a).Update("password_hash", hash).Error; err != nil {
		return errs.Internal("failed to update password", err)
	}
	return nil
}
