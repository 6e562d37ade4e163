package backup

import "time"

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Backup catalogs one snapshot file in the backup directory.
type Backup struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename    string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"filename"`
	Size        int64     `gorm:"not null" json:"size"`
	Description string    `gorm:"type:varchar(200)" json:"description"`
	IsAuto      bool      `gorm:"not null;default:false" json:"is_auto"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}

// BackupSchedule drives automatic backups and their retention.
type BackupSchedule struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Frequency     Frequency  `gorm:"type:varchar(20);not null" json:"frequency"`
	Time          string     `gorm:"type:varchar(5);not null" json:"time"`
	RetentionDays int        `gorm:"not null;default:30" json:"retention_days"`
	IsActive      bool       `gorm:"not null" json:"is_active"`
	LastRun       *time.Time `json:"last_run,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
