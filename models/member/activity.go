package member

import "time"

type ActivityType string

const (
	ActivityRegistration ActivityType = "registration"
	ActivityRenewal      ActivityType = "renewal"
	ActivityDeposit      ActivityType = "deposit"
)

// MemberActivity is an append-only history row written with the change it describes.
type MemberActivity struct {
	ID           uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID     uint         `gorm:"not null;index" json:"member_id"`
	ActivityType ActivityType `gorm:"type:varchar(50);not null" json:"activity_type"`
	Description  string       `gorm:"type:varchar(200)" json:"description"`
	Amount       *int         `json:"amount,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;index" json:"created_at"`
}

func (MemberActivity) TableName() string {
	return "member_activities"
}
