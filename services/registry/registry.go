package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"quicker-admin/errs"
	"quicker-admin/models/member"
)

// MemberInput is the full set of editable member fields.
type MemberInput struct {
	Name             string
	Phone            string
	RegistrationDate time.Time
	ExpiryDate       time.Time
	DepositAmount    int
	Referrer         string
	CIDs             []string
}

// ExpiryChanged is published after a commit that set a member's expiry date.
type ExpiryChanged struct {
	MemberID   uint
	Name       string
	Phone      string
	ExpiryDate time.Time
}

type Listener func(ctx context.Context, ev ExpiryChanged)

// Registry owns members, their CIDs and their activity history.
type Registry struct {
	DB        *gorm.DB
	listeners []Listener
	now       func() time.Time
}

func New(db *gorm.DB) *Registry {
	return &Registry{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

// Subscribe registers l for ExpiryChanged events. Not safe to call concurrently with writes.
func (r *Registry) Subscribe(l Listener) {
	r.listeners = append(r.listeners, l)
}

func (r *Registry) publish(ctx context.Context, m *member.Member) {
	ev := ExpiryChanged{MemberID: m.ID, Name: m.Name, Phone: m.Phone, ExpiryDate: m.ExpiryDate}
	for _, l := range r.listeners {
		l(ctx, ev)
	}
}

func normalize(in MemberInput) (MemberInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Referrer = strings.TrimSpace(in.Referrer)

	if in.Name == "" {
		return in, errs.Validation("name is required")
	}
	if in.Phone == "" {
		return in, errs.Validation("phone is required")
	}
	if in.RegistrationDate.IsZero() {
		return in, errs.Validation("registration_date is required")
	}
	if in.ExpiryDate.IsZero() {
		return in, errs.Validation("expiry_date is required")
	}
	if in.DepositAmount < 0 {
		return in, errs.Validation("deposit_amount cannot be negative")
	}
	in.RegistrationDate = in.RegistrationDate.UTC()
	in.ExpiryDate = in.ExpiryDate.UTC()

	seen := make(map[string]bool, len(in.CIDs))
	cids := make([]string, 0, len(in.CIDs))
	for _, raw := range in.CIDs {
		value := strings.TrimSpace(raw)
		if value == "" {
			return in, errs.Validation("CID values cannot be blank")
		}
		if seen[value] {
			return in, errs.Validation("CID %s is listed more than once", value)
		}
		seen[value] = true
		cids = append(cids, value)
	}
	in.CIDs = cids
	return in, nil
}

func checkPhoneFree(tx *gorm.DB, phone string, exceptID uint) error {
	var count int64
	q := tx.Model(&member.Member{}).Where("phone = ?", phone)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errs.Conflict("phone number %s is already registered", phone)
	}
	return nil
}

func checkCIDsFree(tx *gorm.DB, values []string, exceptMemberID uint) error {
	if len(values) == 0 {
		return nil
	}
	var taken []string
	q := tx.Model(&member.CID{}).Where("cid_value IN ?", values)
	if exceptMemberID != 0 {
		q = q.Where("member_id <> ?", exceptMemberID)
	}
	if err := q.Pluck("cid_value", &taken).Error; err != nil {
		return err
	}
	if len(taken) > 0 {
		return errs.Conflict("CID already registered: %s", strings.Join(taken, ", "))
	}
	return nil
}

func insertCIDs(tx *gorm.DB, memberID uint, values []string) error {
	if len(values) == 0 {
		return nil
	}
	cids := make([]member.CID, 0, len(values))
	for _, v := range values {
		cids = append(cids, member.CID{Value: v, MemberID: memberID, IsActive: true})
	}
	return tx.Create(&cids).Error
}

func recordActivity(tx *gorm.DB, memberID uint, kind member.ActivityType, description string, amount *int, at time.Time) error {
	return tx.Create(&member.MemberActivity{
		MemberID:     memberID,
		ActivityType: kind,
		Description:  description,
		Amount:       amount,
		CreatedAt:    at,
	}).Error
}

// txError maps a failure inside a registry transaction to a client error.
func txError(action string, err error) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Conflict("phone or CID is already registered")
	}
	return errs.Internal("failed to "+action, err)
}

// Register creates a member with all of its CIDs, or nothing at all.
func (r *Registry) Register(ctx context.Context, in MemberInput) (*member.Member, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}

	m := member.Member{
		Name:             in.Name,
		Phone:            in.Phone,
		RegistrationDate: in.RegistrationDate,
		ExpiryDate:       in.ExpiryDate,
		DepositAmount:    in.DepositAmount,
		Referrer:         in.Referrer,
	}
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkPhoneFree(tx, in.Phone, 0); err != nil {
			return err
		}
		if err := checkCIDsFree(tx, in.CIDs, 0); err != nil {
			return err
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		if err := insertCIDs(tx, m.ID, in.CIDs); err != nil {
			return err
		}
		amount := in.DepositAmount
		return recordActivity(tx, m.ID, member.ActivityRegistration, "new member registration", &amount, r.now())
	})
	if err != nil {
		return nil, txError("register member", err)
	}

	created, err := r.Get(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, created)
	return created, nil
}

// Update replaces the member's fields and its whole CID set.
func (r *Registry) Update(ctx context.Context, id uint, in MemberInput) (*member.Member, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}

	expiryChanged := false
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m member.Member
		if err := tx.First(&m, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("member %d not found", id)
			}
			return err
		}
		if err := checkPhoneFree(tx, in.Phone, id); err != nil {
			return err
		}
		if err := checkCIDsFree(tx, in.CIDs, id); err != nil {
			return err
		}

		now := r.now()
		if delta := in.DepositAmount - m.DepositAmount; delta != 0 {
			if err := recordActivity(tx, id, member.ActivityDeposit, "deposit changed", &delta, now); err != nil {
				return err
			}
		}
		if !in.ExpiryDate.Equal(m.ExpiryDate) {
			expiryChanged = true
			desc := fmt.Sprintf("expiry changed from %s to %s", m.ExpiryDate.Format("2006-01-02"), in.ExpiryDate.Format("2006-01-02"))
			if err := recordActivity(tx, id, member.ActivityRenewal, desc, nil, now); err != nil {
				return err
			}
		}

		m.Name = in.Name
		m.Phone = in.Phone
		m.RegistrationDate = in.RegistrationDate
		m.ExpiryDate = in.ExpiryDate
		m.DepositAmount = in.DepositAmount
		m.Referrer = in.Referrer
		if err := tx.Save(&m).Error; err != nil {
			return err
		}

		if err := tx.Where("member_id = ?", id).Delete(&member.CID{}).Error; err != nil {
			return err
		}
		return insertCIDs(tx, id, in.CIDs)
	})
	if err != nil {
		return nil, txError("update member", err)
	}

	updated, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if expiryChanged {
		r.publish(ctx, updated)
	}
	return updated, nil
}

// Delete removes the member with its CIDs and history.
func (r *Registry) Delete(ctx context.Context, id uint) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m member.Member
		if err := tx.First(&m, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("member %d not found", id)
			}
			return err
		}
		if err := tx.Where("member_id = ?", id).Delete(&member.CID{}).Error; err != nil {
			return err
		}
		if err := tx.Where("member_id = ?", id).Delete(&member.MemberActivity{}).Error; err != nil {
			return err
		}
		return tx.Delete(&m).Error
	})
	if err != nil {
		return txError("delete member", err)
	}
	return nil
}

// SetCIDActive toggles one CID without touching the rest of the member.
func (r *Registry) SetCIDActive(ctx context.Context, value string, active bool) error {
	res := r.DB.WithContext(ctx).Model(&member.CID{}).Where("cid_value = ?", strings.TrimSpace(value)).Update("is_active", active)
	if res.Error != nil {
		return errs.Internal("failed to update CID", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("CID %s not found", value)
	}
	return nil
}

func (r *Registry) Get(ctx context.Context, id uint) (*member.Member, error) {
	var m member.Member
	err := r.DB.WithContext(ctx).Preload("CIDs", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("member %d not found", id)
		}
		return nil, errs.Internal("failed to load member", err)
	}
	return &m, nil
}

// List returns every member, newest registration first.
func (r *Registry) List(ctx context.Context) ([]member.Member, error) {
	var members []member.Member
	err := r.DB.WithContext(ctx).Preload("CIDs", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Order("registration_date desc, id desc").Find(&members).Error
	if err != nil {
		return nil, errs.Internal("failed to list members", err)
	}
	return members, nil
}

// Activities returns the member's history, newest first.
func (r *Registry) Activities(ctx context.Context, id uint) ([]member.MemberActivity, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}
	var activities []member.MemberActivity
	if err := r.DB.WithContext(ctx).Where("member_id = ?", id).Order("created_at desc, id desc").Find(&activities).Error; err != nil {
		return nil, errs.Internal("failed to load member activity", err)
	}
	return activities, nil
}
