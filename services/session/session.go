package session

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"quicker-admin/errs"
)

// Identity is the authenticated admin carried by a session token.
type Identity struct {
	AdminID  uint
	Username string
	TokenID  string
	Expires  time.Time
}

type claims struct {
	Username   string `json:"username"`
	Generation uint64 `json:"gen"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 session tokens for the admin console.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	revoked sync.Map
	now     func() time.Time

	// generations maps an admin ID to the oldest token generation still accepted.
	genMu       sync.Mutex
	generations map[uint]uint64
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now, generations: map[uint]uint64{}}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) Issue(adminID uint, username string, now time.Time) (string, time.Time, error) {
	expires := now.Add(m.ttl)
	c := claims{
		Username:   username,
		Generation: m.generation(adminID),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(adminID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, errs.Internal("failed to sign session token", err)
	}
	return token, expires, nil
}

func (m *Manager) Parse(tokenString string) (*Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errs.Unauthorized("invalid or expired session")
	}

	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return nil, errs.Unauthorized("invalid session subject")
	}
	if _, revoked := m.revoked.Load(c.ID); revoked {
		return nil, errs.Unauthorized("session has been logged out")
	}
	if c.Generation < m.generation(uint(id)) {
		return nil, errs.Unauthorized("session ended by a password change")
	}
	return &Identity{AdminID: uint(id), Username: c.Username, TokenID: c.ID, Expires: c.ExpiresAt.Time}, nil
}

// Revoke rejects the token until it would have expired anyway.
func (m *Manager) Revoke(id *Identity) {
	m.revoked.Store(id.TokenID, id.Expires)
	m.sweep()
}

// RevokeAll rejects every token issued to adminID so far. Tokens issued
// afterwards are accepted.
func (m *Manager) RevokeAll(adminID uint) {
	m.genMu.Lock()
	defer m.genMu.Unlock()
	m.generations[adminID]++
}

func (m *Manager) generation(adminID uint) uint64 {
	m.genMu.Lock()
	defer m.genMu.Unlock()
	return m.generations[adminID]
}

func (m *Manager) sweep() {
	current := m.now()
	m.revoked.Range(func(key, value any) bool {
		if exp, ok := value.(time.Time); ok && current.After(exp) {
			m.revoked.Delete(key)
		}
		return true
	})
}
