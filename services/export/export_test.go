package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"quicker-admin/models/member"
)

func TestWriteMembers(t *testing.T) {
	members := []member.Member{
		{
			Name: "Han", Phone: "01055556666",
			RegistrationDate: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
			ExpiryDate:       time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
			DepositAmount:    1250000, Referrer: "Yoon",
			CIDs: []member.CID{{Value: "X-1"}, {Value: "X-2"}},
		},
		{Name: "Seo", Phone: "01077778888"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMembers(&buf, members))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{"1", "Han", "01055556666", "2026-01-02", "2027-01-01", "1,250,000", "Yoon", "X-1, X-2"}, rows[1])
	assert.Equal(t, "Seo", rows[2][1])

	width, err := f.GetColWidth(sheetName, "H")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, width, 50.0)
}

func TestWriteMembersEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMembers(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFilename(t *testing.T) {
	at := time.Date(2026, 10, 16, 8, 5, 9, 0, time.UTC)
	assert.Equal(t, "members_export_20261016_080509.xlsx", Filename(at))
}
