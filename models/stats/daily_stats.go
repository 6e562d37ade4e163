package stats

import "time"

// DailyStats is a per-day snapshot. Date is formatted 2006-01-02.
type DailyStats struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Date           string    `gorm:"type:varchar(10);not null;uniqueIndex" json:"date"`
	TotalMembers   int64     `gorm:"not null;default:0" json:"total_members"`
	ActiveMembers  int64     `gorm:"not null;default:0" json:"active_members"`
	NewMembers     int64     `gorm:"not null;default:0" json:"new_members"`
	ExpiredMembers int64     `gorm:"not null;default:0" json:"expired_members"`
	TotalDeposit   int64     `gorm:"not null;default:0" json:"total_deposit"`
	APICalls       int64     `gorm:"column:api_calls;not null;default:0" json:"api_calls"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DailyStats) TableName() string {
	return "daily_stats"
}
