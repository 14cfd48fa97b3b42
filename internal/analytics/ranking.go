// Package analytics computes the dashboard views over a normalized record set.
// Every function is a fold over its input and returns fresh structures; the
// input slice is never modified.
package analytics

import (
	"sort"

	"opspulse/internal/issues"
	"opspulse/pkg/contracts/domain"
)

// Labels used for empty category values.
const (
	UnknownLabel     = "Unknown"
	UnspecifiedLabel = issues.Unspecified
	NoneLabel        = "None"
)

// Tally counts occurrences per value. Empty values are counted under
// emptyLabel, or skipped when emptyLabel is "". The result is sorted by count
// descending; ties keep the order in which values were first seen.
func Tally(values []string, emptyLabel string) []domain.NameValue {
	index := make(map[string]int, len(values))
	var out []domain.NameValue
	for _, v := range values {
		if v == "" {
			if emptyLabel == "" {
				continue
			}
			v = emptyLabel
		}
		if i, ok := index[v]; ok {
			out[i].Value++
			continue
		}
		index[v] = len(out)
		out = append(out, domain.NameValue{Name: v, Value: 1})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if out == nil {
		return []domain.NameValue{}
	}
	return out
}

// TopN returns the first n entries of a ranked tally. n <= 0 returns all.
func TopN(counts []domain.NameValue, n int) []domain.NameValue {
	if n <= 0 || n >= len(counts) {
		return append([]domain.NameValue{}, counts...)
	}
	return append([]domain.NameValue{}, counts[:n]...)
}

// IssueCounts ranks every issue token across records, Unspecified included.
func IssueCounts(records []domain.Record) []domain.NameValue {
	var tokens []string
	for _, r := range records {
		tokens = append(tokens, issues.Tokenize(r.IssueText())...)
	}
	return Tally(tokens, UnspecifiedLabel)
}

// CustomerCounts ranks companies by ticket count; blank companies are Unknown.
func CustomerCounts(records []domain.Record) []domain.NameValue {
	companies := make([]string, len(records))
	for i, r := range records {
		companies[i] = r.Company()
	}
	return Tally(companies, UnknownLabel)
}

// headline returns the name of the top entry, or None for an empty ranking.
func headline(counts []domain.NameValue) domain.NameValue {
	if len(counts) == 0 {
		return domain.NameValue{Name: NoneLabel}
	}
	return counts[0]
}
