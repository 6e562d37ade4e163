package utils

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quicker-admin/errs"
	"quicker-admin/types"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("expiry_date", "2026-12-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("expiry_date", "2026-12-31T18:30")
	require.NoError(t, err)
	assert.Equal(t, 18, got.Hour())

	_, err = ParseDate("expiry_date", "31/12/2026")
	assert.True(t, errs.Is(err, errs.KindValidation))
	_, err = ParseDate("expiry_date", "")
	assert.EqualError(t, err, "expiry_date is required")
}

type sample struct {
	Name    string `json:"name" validate:"required"`
	Kind    string `json:"kind" validate:"omitempty,oneof=a b"`
	Confirm string `json:"confirm_password" validate:"eqfield=Name"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(sample{Name: "x", Confirm: "x"}))
	assert.EqualError(t, ValidateStruct(sample{}), "name is required")
	assert.EqualError(t, ValidateStruct(sample{Name: "x", Confirm: "x", Kind: "c"}), "kind must be one of: a b")
	assert.True(t, errs.Is(ValidateStruct(sample{Name: "x", Confirm: "y"}), errs.KindValidation))
}

func TestCreateSanitizedLogEntryRedactsSecrets(t *testing.T) {
	app := fiber.New()
	var entry types.LogEntry
	app.Post("/api/v1/verify", func(c *fiber.Ctx) error {
		entry = CreateSanitizedLogEntry(c, 9, fiber.StatusOK)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("POST", "/api/v1/verify", strings.NewReader(`{"cid":"ABC","api_key":"qk_secret"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "pos-terminal")
	_, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, uint(9), entry.ApiKeyID)
	assert.Equal(t, "/api/v1/verify", entry.Endpoint)
	assert.Equal(t, "pos-terminal", entry.UserAgent)
	assert.NotContains(t, entry.RequestData, "qk_secret")
	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(entry.RequestData), &body))
	assert.Equal(t, "ABC", body["cid"])
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "pos", truncate("pos", 10))
	assert.Equal(t, "가", truncate("가나다", 4))
	assert.Equal(t, "가", truncate("가나다", 5))
	assert.Equal(t, "가나", truncate("가나다", 6))
	assert.Equal(t, "", truncate("가나다", 2))
}

func TestCreateSanitizedLogEntryTruncatesMultibyteBody(t *testing.T) {
	app := fiber.New()
	var entry types.LogEntry
	app.Post("/api/v1/verify", func(c *fiber.Ctx) error {
		entry = CreateSanitizedLogEntry(c, 1, fiber.StatusOK)
		return c.SendStatus(fiber.StatusOK)
	})

	raw, err := json.Marshal(map[string]string{"note": strings.Repeat("회원", 350)})
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/api/v1/verify", strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")
	_, err = app.Test(req, -1)
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(entry.RequestData))
	assert.LessOrEqual(t, len(entry.RequestData), maxLoggedBody)
	assert.Len(t, entry.RequestData, 1998)
}

func TestRespondError(t *testing.T) {
	app := fiber.New()
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return RespondError(c, errs.Conflict("phone number 010 is already registered"))
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return RespondError(c, errs.Internal("failed to list members", io.ErrUnexpectedEOF))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/conflict", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(raw), "unexpected EOF")
}
