package stats

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jinzhu/now"
	"gorm.io/gorm"

	"quicker-admin/errs"
	apilog "quicker-admin/models/log"
	"quicker-admin/models/member"
	model "quicker-admin/models/stats"
)

const dateLayout = "2006-01-02"

type Service struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

type MemberStats struct {
	Total        int64   `json:"total"`
	Active       int64   `json:"active"`
	New          int64   `json:"new"`
	Expired      int64   `json:"expired"`
	TotalDeposit int64   `json:"total_deposit"`
	AvgDeposit   float64 `json:"avg_deposit"`
}

type CIDStats struct {
	Total        int64   `json:"total"`
	Active       int64   `json:"active"`
	PerMemberAvg float64 `json:"per_member_avg"`
}

type EndpointCount struct {
	Endpoint string `json:"endpoint"`
	Count    int64  `json:"count"`
}

type DateCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type APIStats struct {
	TotalCalls      int64           `json:"total_calls"`
	SuccessRate     float64         `json:"success_rate"`
	CallsByEndpoint []EndpointCount `json:"calls_by_endpoint"`
	CallsByDate     []DateCount     `json:"calls_by_date"`
}

type Overview struct {
	Period  int         `json:"period_days"`
	Members MemberStats `json:"members"`
	CIDs    CIDStats    `json:"cids"`
	API     APIStats    `json:"api"`
}

func clampDays(days int) int {
	if days < 1 {
		return 30
	}
	if days > 365 {
		return 365
	}
	return days
}

// Overview summarizes members, CIDs and API traffic over the last days.
func (s *Service) Overview(ctx context.Context, days int) (*Overview, error) {
	days = clampDays(days)
	current := s.now()
	start := now.With(current).BeginningOfDay().AddDate(0, 0, -(days - 1))
	db := s.DB.WithContext(ctx)

	out := &Overview{Period: days}
	m := &out.Members
	if err := db.Model(&member.Member{}).Count(&m.Total).Error; err != nil {
		return nil, errs.Internal("failed to count members", err)
	}
	if err := db.Model(&member.Member{}).Where("expiry_date >= ?", current).Count(&m.Active).Error; err != nil {
		return nil, errs.Internal("failed to count active members", err)
	}
	m.Expired = m.Total - m.Active
	if err := db.Model(&member.Member{}).Where("registration_date >= ?", start).Count(&m.New).Error; err != nil {
		return nil, errs.Internal("failed to count new members", err)
	}
	if err := db.Model(&member.Member{}).Select("COALESCE(SUM(deposit_amount), 0)").Scan(&m.TotalDeposit).Error; err != nil {
		return nil, errs.Internal("failed to sum deposits", err)
	}
	if m.Total > 0 {
		m.AvgDeposit = float64(m.TotalDeposit) / float64(m.Total)
	}

	c := &out.CIDs
	if err := db.Model(&member.CID{}).Count(&c.Total).Error; err != nil {
		return nil, errs.Internal("failed to count CIDs", err)
	}
	if err := db.Model(&member.CID{}).Where("is_active = ?", true).Count(&c.Active).Error; err != nil {
		return nil, errs.Internal("failed to count active CIDs", err)
	}
	if m.Total > 0 {
		c.PerMemberAvg = float64(c.Total) / float64(m.Total)
	}

	api, err := s.apiStats(ctx, start)
	if err != nil {
		return nil, err
	}
	out.API = *api
	return out, nil
}

func (s *Service) apiStats(ctx context.Context, start time.Time) (*APIStats, error) {
	db := s.DB.WithContext(ctx)
	out := &APIStats{CallsByEndpoint: []EndpointCount{}, CallsByDate: []DateCount{}}

	if err := db.Model(&apilog.ApiLog{}).Where("timestamp >= ?", start).Count(&out.TotalCalls).Error; err != nil {
		return nil, errs.Internal("failed to count API calls", err)
	}
	if out.TotalCalls > 0 {
		var ok int64
		err := db.Model(&apilog.ApiLog{}).Where("timestamp >= ? AND status_code >= 200 AND status_code < 300", start).Count(&ok).Error
		if err != nil {
			return nil, errs.Internal("failed to count successful API calls", err)
		}
		out.SuccessRate = float64(ok) / float64(out.TotalCalls) * 100
	}

	err := db.Model(&apilog.ApiLog{}).Select("endpoint, COUNT(*) AS count").
		Where("timestamp >= ?", start).Group("endpoint").Order("count desc").
		Scan(&out.CallsByEndpoint).Error
	if err != nil {
		return nil, errs.Internal("failed to group API calls by endpoint", err)
	}

	byDate, _, err := s.bucketCalls(ctx, start)
	if err != nil {
		return nil, err
	}
	out.CallsByDate = byDate
	return out, nil
}

// bucketCalls groups call timestamps by day and by hour of day.
// Bucketing happens here so the same code runs on every supported store.
func (s *Service) bucketCalls(ctx context.Context, start time.Time) ([]DateCount, [24]int64, error) {
	var hours [24]int64
	rows, err := s.DB.WithContext(ctx).Model(&apilog.ApiLog{}).Select("timestamp").Where("timestamp >= ?", start).Rows()
	if err != nil {
		return nil, hours, errs.Internal("failed to read API call times", err)
	}
	defer rows.Close()

	days := map[string]int64{}
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, hours, errs.Internal("failed to read API call time", err)
		}
		ts = ts.UTC()
		days[ts.Format(dateLayout)]++
		hours[ts.Hour()]++
	}
	if err := rows.Err(); err != nil {
		return nil, hours, errs.Internal("failed to read API call times", err)
	}

	byDate := make([]DateCount, 0, len(days))
	for d, n := range days {
		byDate = append(byDate, DateCount{Date: d, Count: n})
	}
	sort.Slice(byDate, func(i, j int) bool { return byDate[i].Date < byDate[j].Date })
	return byDate, hours, nil
}

// CalculateDailyStats computes and upserts the snapshot for day.
func (s *Service) CalculateDailyStats(ctx context.Context, day time.Time) (*model.DailyStats, error) {
	begin := now.With(day.UTC()).BeginningOfDay()
	end := begin.AddDate(0, 0, 1)
	db := s.DB.WithContext(ctx)

	snap := model.DailyStats{Date: begin.Format(dateLayout)}
	counts := []struct {
		what  string
		dest  *int64
		query *gorm.DB
	}{
		{"total members", &snap.TotalMembers, db.Model(&member.Member{})},
		{"active members", &snap.ActiveMembers, db.Model(&member.Member{}).Where("expiry_date >= ?", begin)},
		{"new members", &snap.NewMembers, db.Model(&member.Member{}).Where("registration_date >= ? AND registration_date < ?", begin, end)},
		{"expired members", &snap.ExpiredMembers, db.Model(&member.Member{}).Where("expiry_date >= ? AND expiry_date < ?", begin, end)},
		{"api calls", &snap.APICalls, db.Model(&apilog.ApiLog{}).Where("timestamp >= ? AND timestamp < ?", begin, end)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, errs.Internal("failed to count "+c.what, err)
		}
	}
	if err := db.Model(&member.Member{}).Select("COALESCE(SUM(deposit_amount), 0)").Scan(&snap.TotalDeposit).Error; err != nil {
		return nil, errs.Internal("failed to sum deposits", err)
	}

	var existing model.DailyStats
	err := db.Where("date = ?", snap.Date).First(&existing).Error
	switch {
	case err == nil:
		snap.ID = existing.ID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errs.Internal("failed to load daily stats", err)
	}
	if err := db.Save(&snap).Error; err != nil {
		return nil, errs.Internal("failed to save daily stats", err)
	}
	return &snap, nil
}

// Daily refreshes and returns the snapshots for the last days, oldest first.
func (s *Service) Daily(ctx context.Context, days int) ([]model.DailyStats, error) {
	days = clampDays(days)
	today := now.With(s.now()).BeginningOfDay()

	out := make([]model.DailyStats, 0, days)
	for i := days - 1; i >= 0; i-- {
		snap, err := s.CalculateDailyStats(ctx, today.AddDate(0, 0, -i))
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, nil
}

type KeyUsage struct {
	ApiKeyID uint   `json:"api_key_id"`
	Name     string `json:"name"`
	Count    int64  `json:"count"`
}

type HourCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

type StatusCount struct {
	StatusCode int   `json:"status_code"`
	Count      int64 `json:"count"`
}

type APIUsage struct {
	Period      int           `json:"period_days"`
	ByKey       []KeyUsage    `json:"by_key"`
	ByHour      []HourCount   `json:"by_hour"`
	StatusCodes []StatusCount `json:"status_codes"`
}

// APIUsage breaks API traffic down by key, hour of day and status code.
func (s *Service) APIUsage(ctx context.Context, days int) (*APIUsage, error) {
	days = clampDays(days)
	start := now.With(s.now()).BeginningOfDay().AddDate(0, 0, -(days - 1))
	db := s.DB.WithContext(ctx)
	out := &APIUsage{Period: days, ByKey: []KeyUsage{}, StatusCodes: []StatusCount{}}

	err := db.Model(&apilog.ApiLog{}).
		Select("api_logs.api_key_id, COALESCE(api_keys.name, '') AS name, COUNT(*) AS count").
		Joins("LEFT JOIN api_keys ON api_keys.id = api_logs.api_key_id").
		Where("api_logs.timestamp >= ?", start).
		Group("api_logs.api_key_id, api_keys.name").Order("count desc").
		Scan(&out.ByKey).Error
	if err != nil {
		return nil, errs.Internal("failed to group API calls by key", err)
	}

	err = db.Model(&apilog.ApiLog{}).Select("status_code, COUNT(*) AS count").
		Where("timestamp >= ?", start).Group("status_code").Order("status_code").
		Scan(&out.StatusCodes).Error
	if err != nil {
		return nil, errs.Internal("failed to group API calls by status", err)
	}

	_, hours, err := s.bucketCalls(ctx, start)
	if err != nil {
		return nil, err
	}
	out.ByHour = make([]HourCount, 0, 24)
	for h, n := range hours {
		out.ByHour = append(out.ByHour, HourCount{Hour: h, Count: n})
	}
	return out, nil
}
