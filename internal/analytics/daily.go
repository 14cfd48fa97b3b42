package analytics

import (
	"opspulse/internal/issues"
	"opspulse/pkg/contracts/domain"
)

// AverageDaily is the number of issue tokens on dated records divided by the
// number of distinct UTC days those records started on.
func AverageDaily(records []domain.Record) float64 {
	days := make(map[string]struct{})
	total := 0
	for _, r := range records {
		started, ok := r.StartedAt()
		if !ok {
			continue
		}
		days[started.Format("2006-01-02")] = struct{}{}
		total += len(issues.Tokenize(r.IssueText()))
	}
	if len(days) == 0 {
		return 0
	}
	return float64(total) / float64(len(days))
}
