package log

import (
	"time"
)

// ApiLog is one call made with an API key. Rows are append-only.
type ApiLog struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ApiKeyID    uint      `gorm:"not null;index" json:"api_key_id"`
	Endpoint    string    `gorm:"type:varchar(200);not null" json:"endpoint"`
	Method      string    `gorm:"type:varchar(10);not null" json:"method"`
	RequestData string    `gorm:"type:text" json:"request_data"`
	StatusCode  int       `gorm:"type:int" json:"status_code"`
	IPAddress   string    `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent   string    `gorm:"type:varchar(200)" json:"user_agent"`
	Timestamp   time.Time `gorm:"not null;index" json:"timestamp"`
}

func (ApiLog) TableName() string {
	return "api_logs"
}

// Succeeded reports a 2xx status.
func (l ApiLog) Succeeded() bool {
	return l.StatusCode >= 200 && l.StatusCode < 300
}
