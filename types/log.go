package types

import "time"

// LogEntry is one external API call waiting to be written to api_logs.
type LogEntry struct {
	ApiKeyID    uint
	Endpoint    string
	Method      string
	RequestData string
	StatusCode  int
	IPAddress   string
	UserAgent   string
	Timestamp   time.Time
}
