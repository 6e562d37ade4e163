package member

import (
	"time"

	model "quicker-admin/models/member"
)

// MemberRequest is the body for creating or replacing a member.
type MemberRequest struct {
	Name             string   `json:"name" form:"name" validate:"required"`
	Phone            string   `json:"phone" form:"phone" validate:"required,max=20"`
	RegistrationDate string   `json:"registration_date" form:"registration_date" validate:"required"`
	ExpiryDate       string   `json:"expiry_date" form:"expiry_date" validate:"required"`
	DepositAmount    int      `json:"deposit_amount" form:"deposit_amount" validate:"min=0"`
	Referrer         string   `json:"referrer" form:"referrer" validate:"max=100"`
	CIDs             []string `json:"cids" form:"cids"`
}

type CIDResponse struct {
	Value    string `json:"cid_value"`
	IsActive bool   `json:"is_active"`
}

type MemberResponse struct {
	ID               uint          `json:"id"`
	Name             string        `json:"name"`
	Phone            string        `json:"phone"`
	RegistrationDate string        `json:"registration_date"`
	ExpiryDate       string        `json:"expiry_date"`
	DepositAmount    int           `json:"deposit_amount"`
	Referrer         string        `json:"referrer"`
	CIDs             []CIDResponse `json:"cids"`
	IsExpired        bool          `json:"is_expired"`
}

type CIDToggleRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func NewMemberResponse(m *model.Member, now time.Time) MemberResponse {
	cids := make([]CIDResponse, 0, len(m.CIDs))
	for _, c := range m.CIDs {
		cids = append(cids, CIDResponse{Value: c.Value, IsActive: c.IsActive})
	}
	return MemberResponse{
		ID:               m.ID,
		Name:             m.Name,
		Phone:            m.Phone,
		RegistrationDate: m.RegistrationDate.Format("2006-01-02"),
		ExpiryDate:       m.ExpiryDate.Format("2006-01-02"),
		DepositAmount:    m.DepositAmount,
		Referrer:         m.Referrer,
		CIDs:             cids,
		IsExpired:        m.IsExpired(now),
	}
}

type ActivityResponse struct {
	ID           uint   `json:"id"`
	ActivityType string `json:"activity_type"`
	Description  string `json:"description"`
	Amount       *int   `json:"amount,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func NewActivityResponse(a model.MemberActivity) ActivityResponse {
	return ActivityResponse{
		ID:           a.ID,
		ActivityType: string(a.ActivityType),
		Description:  a.Description,
		Amount:       a.Amount,
		CreatedAt:    a.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
