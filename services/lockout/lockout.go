package lockout

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"quicker-admin/errs"
	"quicker-admin/models/admin"
)

type Status int

const (
	Authenticated Status = iota
	InvalidCredentials
	LockedOut
)

func (s Status) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case InvalidCredentials:
		return "invalid_credentials"
	case LockedOut:
		return "locked_out"
	}
	return "unknown"
}

type Policy struct {
	MaxAttempts  int
	LockDuration time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 5, LockDuration: 30 * time.Minute}
}

// Verifier checks a supplied secret against an admin's stored credential.
type Verifier interface {
	Verify(a *admin.Admin, secret string) bool
}

// ClientMeta is recorded in the login log.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

type Outcome struct {
	Status Status
	Admin  *admin.Admin
	// RemainingAttempts is set for InvalidCredentials.
	RemainingAttempts int
	// Remaining is the time left on the lock for LockedOut.
	Remaining time.Duration
	// JustLocked is true when this attempt tripped the lock.
	JustLocked bool
}

// lockStripes bounds the number of mutexes no matter how many distinct
// usernames are tried. Identities sharing a stripe just queue behind each other.
const lockStripes = 64

// Guard serializes login attempts per identity and applies the lockout policy.
type Guard struct {
	DB       *gorm.DB
	verifier Verifier
	policy   Policy
	locks    [lockStripes]sync.Mutex
}

func NewGuard(db *gorm.DB, verifier Verifier, policy Policy) *Guard {
	return &Guard{DB: db, verifier: verifier, policy: policy}
}

func (g *Guard) Policy() Policy {
	return g.policy
}

func (g *Guard) lockFor(identity string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identity))
	return &g.locks[h.Sum32()%lockStripes]
}

// AttemptLogin evaluates one login attempt. The read-check-update of the
// attempt counter happens under the identity's lock stripe and inside a single
// transaction with a row lock, so concurrent attempts never lose a failure.
func (g *Guard) AttemptLogin(ctx context.Context, identity, secret string, meta ClientMeta, now time.Time) (*Outcome, error) {
	mu := g.lockFor(identity)
	mu.Lock()
	defer mu.Unlock()

	var outcome Outcome
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a admin.Admin
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("username = ?", identity).First(&a).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			outcome = Outcome{Status: InvalidCredentials, RemainingAttempts: g.policy.MaxAttempts}
			return writeLoginLog(tx, nil, identity, outcome.Status, meta, now)
		}
		if err != nil {
			return err
		}

		outcome = g.evaluate(&a, secret, now)
		if outcome.Status != LockedOut || outcome.JustLocked {
			if err := tx.Save(&a).Error; err != nil {
				return err
			}
		}
		return writeLoginLog(tx, &a.ID, identity, outcome.Status, meta, now)
	})
	if err != nil {
		return nil, errs.Internal("failed to process login attempt", err)
	}
	return &outcome, nil
}

// evaluate applies the policy to a and mutates it in place.
func (g *Guard) evaluate(a *admin.Admin, secret string, now time.Time) Outcome {
	if a.IsLocked {
		if a.IsCurrentlyLocked(now, g.policy.LockDuration) {
			return Outcome{Status: LockedOut, Remaining: a.LockedUntil(g.policy.LockDuration).Sub(now)}
		}
		a.Reset()
	}

	if g.verifier.Verify(a, secret) {
		a.RegisterSuccess(now)
		return Outcome{Status: Authenticated, Admin: a}
	}

	a.RegisterFailure(now, g.policy.MaxAttempts)
	if a.IsLocked {
		return Outcome{Status: LockedOut, Remaining: g.policy.LockDuration, JustLocked: true}
	}
	return Outcome{Status: InvalidCredentials, RemainingAttempts: g.policy.MaxAttempts - a.LoginAttempts}
}

func writeLoginLog(tx *gorm.DB, adminID *uint, identity string, status Status, meta ClientMeta, now time.Time) error {
	entry := admin.LoginLog{
		AdminID:   adminID,
		Username:  identity,
		Success:   status == Authenticated,
		Outcome:   status.String(),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Timestamp: now,
	}
	return tx.Create(&entry).Error
}

// Unlock clears a lock by hand.
func (g *Guard) Unlock(ctx context.Context, identity string) error {
	mu := g.lockFor(identity)
	mu.Lock()
	defer mu.Unlock()

	res := g.DB.WithContext(ctx).Model(&admin.Admin{}).Where("username = ?", identity).
		Updates(map[string]interface{}{"login_attempts": 0, "is_locked": false})
	if res.Error != nil {
		return errs.Internal("failed to unlock admin", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("admin %s not found", identity)
	}
	return nil
}

// RecentAttempts returns the latest login log rows, newest first.
func (g *Guard) RecentAttempts(ctx context.Context, limit int) ([]admin.LoginLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var logs []admin.LoginLog
	if err := g.DB.WithContext(ctx).Order("timestamp desc, id desc").Limit(limit).Find(&logs).Error; err != nil {
		return nil, errs.Internal("failed to load login history", err)
	}
	return logs, nil
}
