package analytics

import (
	"sort"

	"opspulse/internal/issues"
	"opspulse/pkg/contracts/domain"
)

// DefaultRepeatLimit is the number of repeat failures shown on a dashboard.
const DefaultRepeatLimit = 5

type repeatKey struct {
	company string
	issue   string
}

// RepeatFailures finds (company, issue token) pairs that occur more than once.
// A token repeated inside one record counts each time and lists the record id
// each time. Blank companies fall under Unknown; the Unspecified sentinel is
// not an issue and is skipped. Results are sorted by count descending, ties in
// first-seen order, and truncated to n (DefaultRepeatLimit when n <= 0).
func RepeatFailures(records []domain.Record, n int) []domain.RepeatFailure {
	if n <= 0 {
		n = DefaultRepeatLimit
	}

	index := make(map[repeatKey]int)
	var all []domain.RepeatFailure
	for _, r := range records {
		company := r.Company()
		if company == "" {
			company = UnknownLabel
		}
		for _, token := range issues.Tokenize(r.IssueText()) {
			if issues.IsUnspecified(token) {
				continue
			}
			key := repeatKey{company: company, issue: token}
			i, ok := index[key]
			if !ok {
				i = len(all)
				index[key] = i
				all = append(all, domain.RepeatFailure{Company: company, Issue: token})
			}
			all[i].Count++
			all[i].IDs = append(all[i].IDs, r.RecordID())
		}
	}

	repeats := make([]domain.RepeatFailure, 0, len(all))
	for _, rf := range all {
		if rf.Count > 1 {
			repeats = append(repeats, rf)
		}
	}
	sort.SliceStable(repeats, func(i, j int) bool { return repeats[i].Count > repeats[j].Count })
	if len(repeats) > n {
		repeats = repeats[:n]
	}
	return repeats
}
