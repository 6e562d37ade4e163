package member

import (
	"time"
)

// Member is a subscriber. Its CIDs are the license keys it owns.
type Member struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name             string    `gorm:"type:varchar(100);not null" json:"name"`
	Phone            string    `gorm:"type:varchar(20);not null;index" json:"phone"`
	RegistrationDate time.Time `gorm:"not null" json:"registration_date"`
	ExpiryDate       time.Time `gorm:"not null;index" json:"expiry_date"`
	DepositAmount    int       `gorm:"not null;default:0" json:"deposit_amount"`
	Referrer         string    `gorm:"type:varchar(100)" json:"referrer"`
	CIDs             []CID     `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsExpired compares at full timestamp precision.
func (m *Member) IsExpired(now time.Time) bool {
	return m.ExpiryDate.Before(now)
}

func (m *Member) CIDValues() []string {
	values := make([]string, 0, len(m.CIDs))
	for _, c := range m.CIDs {
		values = append(values, c.Value)
	}
	return values
}

func (m *Member) ActiveCIDValues() []string {
	values := make([]string, 0, len(m.CIDs))
	for _, c := range m.CIDs {
		if c.IsActive {
			values = append(values, c.Value)
		}
	}
	return values
}

// CID is a license key. Values are unique across all members.
type CID struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Value     string    `gorm:"column:cid_value;type:varchar(100);not null;uniqueIndex" json:"cid_value"`
	MemberID  uint      `gorm:"not null;index" json:"member_id"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CID) TableName() string {
	return "cids"
}
