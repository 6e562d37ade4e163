package verification

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"quicker-admin/errs"
	"quicker-admin/models/member"
)

type Reason string

const (
	ReasonUnregistered Reason = "unregistered"
	ReasonDeactivated  Reason = "deactivated"
	ReasonExpired      Reason = "expired"
)

const dateLayout = "2006-01-02"

type CIDResult struct {
	Valid       bool   `json:"valid"`
	Reason      Reason `json:"reason,omitempty"`
	Message     string `json:"message"`
	ExpiryDate  string `json:"expiry_date,omitempty"`
	MemberName  string `json:"member_name,omitempty"`
	MemberPhone string `json:"member_phone,omitempty"`
}

type PhoneMember struct {
	Name       string   `json:"name"`
	Phone      string   `json:"phone"`
	ExpiryDate string   `json:"expiry_date"`
	CIDs       []string `json:"cids"`
	CIDCount   int      `json:"cid_count"`
}

type PhoneResult struct {
	Success bool         `json:"success"`
	Reason  Reason       `json:"reason,omitempty"`
	Message string       `json:"message"`
	Member  *PhoneMember `json:"member,omitempty"`
}

// Engine answers read-only validity questions for CIDs and phone numbers.
// The caller authenticates the request before asking.
type Engine struct {
	DB *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{DB: db}
}

// VerifyByCID checks, in order: registered, active, not expired.
func (e *Engine) VerifyByCID(ctx context.Context, value string, now time.Time) (*CIDResult, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errs.Validation("cid is required")
	}

	var cid member.CID
	err := e.DB.WithContext(ctx).Where("cid_value = ?", value).First(&cid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &CIDResult{Reason: ReasonUnregistered, Message: "CID is not registered"}, nil
	}
	if err != nil {
		return nil, errs.Internal("failed to look up CID", err)
	}
	if !cid.IsActive {
		return &CIDResult{Reason: ReasonDeactivated, Message: "CID is deactivated"}, nil
	}

	var m member.Member
	err = e.DB.WithContext(ctx).First(&m, cid.MemberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &CIDResult{Reason: ReasonUnregistered, Message: "CID is not registered"}, nil
	}
	if err != nil {
		return nil, errs.Internal("failed to load member", err)
	}

	expiry := m.ExpiryDate.Format(dateLayout)
	if m.IsExpired(now) {
		return &CIDResult{Reason: ReasonExpired, Message: "subscription has expired", ExpiryDate: expiry}, nil
	}
	return &CIDResult{
		Valid:       true,
		Message:     "verified",
		ExpiryDate:  expiry,
		MemberName:  m.Name,
		MemberPhone: m.Phone,
	}, nil
}

// VerifyByPhone resolves a member by phone and returns its active CIDs.
func (e *Engine) VerifyByPhone(ctx context.Context, phone string, now time.Time) (*PhoneResult, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, errs.Validation("phone is required")
	}

	var m member.Member
	err := e.DB.WithContext(ctx).Preload("CIDs", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Where("phone = ?", phone).Order("id").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &PhoneResult{Reason: ReasonUnregistered, Message: "phone number is not registered"}, nil
	}
	if err != nil {
		return nil, errs.Internal("failed to look up member", err)
	}

	if m.IsExpired(now) {
		return &PhoneResult{Reason: ReasonExpired, Message: "subscription has expired"}, nil
	}

	cids := m.ActiveCIDValues()
	return &PhoneResult{
		Success: true,
		Message: "verified",
		Member: &PhoneMember{
			Name:       m.Name,
			Phone:      m.Phone,
			ExpiryDate: m.ExpiryDate.Format(dateLayout),
			CIDs:       cids,
			CIDCount:   len(cids),
		},
	}, nil
}
