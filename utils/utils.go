package utils

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"quicker-admin/errs"
	"quicker-admin/logger"
	"quicker-admin/types"
)

const maxLoggedBody = 2000

var redactedFields = []string{"api_key", "password", "current_password", "new_password", "confirm_password"}

// sanitizeRequestBody strips secrets and file-like payloads before a body is logged.
func sanitizeRequestBody(c *fiber.Ctx) string {
	if strings.Contains(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return "[MULTIPART_FORM_DATA]"
	}

	body := string(c.Body())
	if len(body) > 1000 && (strings.Contains(body, "data:image/") ||
		strings.Contains(body, "base64") ||
		isLikelyBase64(body)) {
		return "[LARGE_REQUEST_BODY_WITH_POSSIBLE_FILE_CONTENT]"
	}

	var payload map[string]interface{}
	if json.Unmarshal(c.Body(), &payload) == nil {
		for _, field := range redactedFields {
			if _, ok := payload[field]; ok {
				payload[field] = "[REDACTED]"
			}
		}
		if redacted, err := json.Marshal(payload); err == nil {
			body = string(redacted)
		}
	}

	return truncate(body, maxLoggedBody)
}

// isLikelyBase64 detects if content looks like base64
func isLikelyBase64(content string) bool {
	if len(content) < 100 {
		return false
	}

	base64Chars := 0
	for _, char := range content {
		if (char >= 'A' && char <= 'Z') ||
			(char >= 'a' && char <= 'z') ||
			(char >= '0' && char <= '9') ||
			char == '+' || char == '/' || char == '=' {
			base64Chars++
		}
	}

	return float64(base64Chars)/float64(len(content)) > 0.8
}

// CreateSanitizedLogEntry copies everything the API log needs out of the
// request context. Fiber reuses the context buffers once the handler returns,
// so nothing here may alias them.
func CreateSanitizedLogEntry(c *fiber.Ctx, apiKeyID uint, statusCode int) types.LogEntry {
	return types.LogEntry{
		ApiKeyID:    apiKeyID,
		Endpoint:    strings.Clone(c.Path()),
		Method:      strings.Clone(c.Method()),
		RequestData: sanitizeRequestBody(c),
		StatusCode:  statusCode,
		IPAddress:   strings.Clone(c.IP()),
		UserAgent:   truncate(strings.Clone(c.Get(fiber.HeaderUserAgent)), 200),
		Timestamp:   time.Now().UTC(),
	}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate accepts a date or timestamp in UTC. A bare date means the start of that day.
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errs.Validation("%s is required", field)
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errs.Validation("%s must be a date like 2006-01-02", field)
}

// RespondError writes err as a JSON error body with the matching status.
func RespondError(c *fiber.Ctx, err error) error {
	status := errs.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error(c.Method()+" "+c.Path()+" failed", err)
	}
	return c.Status(status).JSON(types.ErrorResponse{Error: errs.Message(err), Status: status})
}
