package analytics

import (
	"sort"
	"time"

	"opspulse/internal/issues"
	"opspulse/pkg/contracts/domain"
)

type monthBucket struct {
	start     time.Time
	issues    int
	customers map[string]struct{}
}

// MonthlyTrend groups dated records by UTC calendar month. Each point carries
// the month's issue-token count, the number of distinct non-empty companies and
// their ratio. Undated records are left out. Points are in ascending month order.
func MonthlyTrend(records []domain.Record) []domain.TrendPoint {
	buckets := make(map[string]*monthBucket)
	for _, r := range records {
		started, ok := r.StartedAt()
		if !ok {
			continue
		}
		key := started.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &monthBucket{
				start:     time.Date(started.Year(), started.Month(), 1, 0, 0, 0, 0, time.UTC),
				customers: make(map[string]struct{}),
			}
			buckets[key] = b
		}
		b.issues += len(issues.Tokenize(r.IssueText()))
		if c := r.Company(); c != "" {
			b.customers[c] = struct{}{}
		}
	}

	points := make([]domain.TrendPoint, 0, len(buckets))
	for key, b := range buckets {
		var avg float64
		if n := len(b.customers); n > 0 {
			avg = float64(b.issues) / float64(n)
		}
		points = append(points, domain.TrendPoint{
			Label:           b.start.Format("Jan 06"),
			Month:           key,
			Avg:             avg,
			TotalIssues:     b.issues,
			UniqueCustomers: len(b.customers),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Month < points[j].Month })
	return points
}
