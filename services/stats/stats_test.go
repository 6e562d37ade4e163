package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"quicker-admin/database"
	"quicker-admin/models/apikey"
	apilog "quicker-admin/models/log"
	"quicker-admin/models/member"
	model "quicker-admin/models/stats"
)

var fixedNow = time.Date(2026, 7, 10, 15, 30, 0, 0, time.UTC)

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	members := []member.Member{
		{Name: "A", Phone: "1", RegistrationDate: fixedNow.AddDate(0, 0, -1), ExpiryDate: fixedNow.AddDate(0, 1, 0), DepositAmount: 10000},
		{Name: "B", Phone: "2", RegistrationDate: fixedNow.AddDate(0, -3, 0), ExpiryDate: fixedNow.AddDate(0, 0, -2), DepositAmount: 30000},
		{Name: "C", Phone: "3", RegistrationDate: fixedNow.AddDate(-1, 0, 0), ExpiryDate: fixedNow.AddDate(1, 0, 0)},
	}
	require.NoError(t, db.Create(&members).Error)
	require.NoError(t, db.Create(&[]member.CID{
		{Value: "a1", MemberID: members[0].ID, IsActive: true},
		{Value: "a2", MemberID: members[0].ID, IsActive: false},
		{Value: "b1", MemberID: members[1].ID, IsActive: true},
	}).Error)

	key := apikey.ApiKey{KeyHash: "h", KeyPrefix: "qk_", Name: "kiosk", IsActive: true}
	require.NoError(t, db.Create(&key).Error)
	logs := []apilog.ApiLog{
		{ApiKeyID: key.ID, Endpoint: "/api/v1/verify", Method: "POST", StatusCode: 200, Timestamp: fixedNow.Add(-time.Hour)},
		{ApiKeyID: key.ID, Endpoint: "/api/v1/verify", Method: "POST", StatusCode: 200, Timestamp: fixedNow.Add(-2 * time.Hour)},
		{ApiKeyID: key.ID, Endpoint: "/api/v1/login", Method: "POST", StatusCode: 400, Timestamp: fixedNow.AddDate(0, 0, -1)},
		{ApiKeyID: key.ID, Endpoint: "/api/v1/login", Method: "POST", StatusCode: 200, Timestamp: fixedNow.AddDate(0, 0, -90)},
	}
	require.NoError(t, db.Create(&logs).Error)
}

func setupService(t *testing.T) *Service {
	t.Helper()
	db := database.SetupSQLiteTestDB(t)
	seed(t, db)
	svc := NewService(db)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestOverview(t *testing.T) {
	svc := setupService(t)

	out, err := svc.Overview(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(3), out.Members.Total)
	assert.Equal(t, int64(2), out.Members.Active)
	assert.Equal(t, int64(1), out.Members.Expired)
	assert.Equal(t, int64(1), out.Members.New)
	assert.Equal(t, int64(40000), out.Members.TotalDeposit)
	assert.InDelta(t, 13333.33, out.Members.AvgDeposit, 0.01)

	assert.Equal(t, int64(3), out.CIDs.Total)
	assert.Equal(t, int64(2), out.CIDs.Active)
	assert.InDelta(t, 1.0, out.CIDs.PerMemberAvg, 0.001)

	assert.Equal(t, int64(3), out.API.TotalCalls)
	assert.InDelta(t, 66.67, out.API.SuccessRate, 0.01)
	require.NotEmpty(t, out.API.CallsByEndpoint)
	assert.Equal(t, "/api/v1/verify", out.API.CallsByEndpoint[0].Endpoint)
	assert.Equal(t, []DateCount{{Date: "2026-07-09", Count: 1}, {Date: "2026-07-10", Count: 2}}, out.API.CallsByDate)
}

func TestOverviewOnEmptyStore(t *testing.T) {
	svc := NewService(database.SetupSQLiteTestDB(t))
	out, err := svc.Overview(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 30, out.Period)
	assert.Zero(t, out.Members.AvgDeposit)
	assert.Zero(t, out.API.SuccessRate)
}

func TestCalculateDailyStatsUpserts(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	snap, err := svc.CalculateDailyStats(ctx, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "2026-07-10", snap.Date)
	assert.Equal(t, int64(3), snap.TotalMembers)
	assert.Equal(t, int64(2), snap.APICalls)
	assert.Equal(t, int64(40000), snap.TotalDeposit)

	yesterday, err := svc.CalculateDailyStats(ctx, fixedNow.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), yesterday.NewMembers)

	_, err = svc.CalculateDailyStats(ctx, fixedNow)
	require.NoError(t, err)
	var rows int64
	svc.DB.Model(&model.DailyStats{}).Count(&rows)
	assert.Equal(t, int64(2), rows)
}

func TestDaily(t *testing.T) {
	svc := setupService(t)
	out, err := svc.Daily(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "2026-07-08", out[0].Date)
	assert.Equal(t, "2026-07-10", out[2].Date)
}

func TestAPIUsage(t *testing.T) {
	svc := setupService(t)
	out, err := svc.APIUsage(context.Background(), 30)
	require.NoError(t, err)

	require.Len(t, out.ByKey, 1)
	assert.Equal(t, "kiosk", out.ByKey[0].Name)
	assert.Equal(t, int64(3), out.ByKey[0].Count)
	assert.Len(t, out.ByHour, 24)
	assert.Equal(t, int64(1), out.ByHour[14].Count)
	assert.Equal(t, []StatusCount{{StatusCode: 200, Count: 2}, {StatusCode: 400, Count: 1}}, out.StatusCodes)
}
