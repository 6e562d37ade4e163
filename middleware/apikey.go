package middleware

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"quicker-admin/errs"
	"quicker-admin/models/apikey"
	"quicker-admin/services/apiaccess"
	"quicker-admin/types"
	"quicker-admin/utils"
)

const (
	APIKeyHeader = "X-API-Key"
	apiKeyLocal  = "api_key"
)

// LogSink receives one record per authorized API call.
type LogSink interface {
	Log(entry types.LogEntry)
}

func presentedKey(c *fiber.Ctx) string {
	if key := c.Get(APIKeyHeader); key != "" {
		return key
	}
	if key := c.FormValue("api_key"); key != "" {
		return key
	}
	var body struct {
		APIKey string `json:"api_key"`
	}
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		_ = json.Unmarshal(c.Body(), &body)
	}
	return body.APIKey
}

// RequireAPIKey authorizes the call and, once the handler has produced its
// status code, hands a log record to sink.
func RequireAPIKey(guard *apiaccess.Guard, sink LogSink) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := guard.Authorize(c.UserContext(), presentedKey(c), time.Now().UTC())
		if err != nil {
			return utils.RespondError(c, err)
		}
		c.Locals(apiKeyLocal, key)

		err = c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = errs.HTTPStatus(err)
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		sink.Log(utils.CreateSanitizedLogEntry(c, key.ID, status))
		return err
	}
}

// CurrentAPIKey returns the key RequireAPIKey attached to the request.
func CurrentAPIKey(c *fiber.Ctx) (*apikey.ApiKey, bool) {
	key, ok := c.Locals(apiKeyLocal).(*apikey.ApiKey)
	return key, ok
}
