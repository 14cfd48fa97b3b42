// Package filter narrows a record set by free-text search and an inclusive
// start-date range. Both conditions are optional and combine with AND.
package filter

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "opspulse/internal/errors"
	"opspulse/pkg/contracts/domain"
)

// DateLayout is the accepted format of StartDate and EndDate.
const DateLayout = "2006-01-02"

// Criteria is a filter request. Zero values disable the matching condition.
type Criteria struct {
	Search    string `json:"search" validate:"max=200"`
	StartDate string `json:"start" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end" validate:"omitempty,datetime=2006-01-02"`
}

// IsZero reports whether the criteria match every record.
func (c Criteria) IsZero() bool {
	return c.Search == "" && c.StartDate == "" && c.EndDate == ""
}

// Key is a stable representation used to memoize filtered views.
func (c Criteria) Key() string {
	return fmt.Sprintf("q=%s|start=%s|end=%s", strings.ToLower(c.Search), c.StartDate, c.EndDate)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks date formats and that the range is not inverted. Request
// boundaries call it; Compile only needs the formats.
func (c Criteria) Validate() error {
	if err := c.validateFields(); err != nil {
		return err
	}
	if c.StartDate != "" && c.EndDate != "" && c.EndDate < c.StartDate {
		return apperrors.NewAppValidationError("end date is before start date").
			WithContext("start", c.StartDate).
			WithContext("end", c.EndDate)
	}
	return nil
}

func (c Criteria) validateFields() error {
	if err := getValidator().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return apperrors.NewAppValidationError(fmt.Sprintf("invalid %s: %q", fe.Field(), fe.Value())).
				WithContext("field", fe.Field()).
				WithContext("rule", fe.Tag())
		}
		return apperrors.NewAppValidationError(err.Error())
	}
	return nil
}

// Matcher is a validated, ready-to-use form of Criteria.
type Matcher struct {
	term    string
	from    time.Time
	to      time.Time
	hasFrom bool
	hasTo   bool
}

// Compile checks the date formats of c and resolves its day bounds. The start
// bound is the first millisecond of StartDate and the end bound the last
// millisecond of EndDate, both UTC. An inverted range compiles to a matcher
// that accepts nothing. The search term is matched as given, lower-cased.
func Compile(c Criteria) (Matcher, error) {
	if err := c.validateFields(); err != nil {
		return Matcher{}, err
	}

	m := Matcher{term: strings.ToLower(c.Search)}
	if c.StartDate != "" {
		day, _ := time.Parse(DateLayout, c.StartDate)
		m.from, m.hasFrom = day, true
	}
	if c.EndDate != "" {
		day, _ := time.Parse(DateLayout, c.EndDate)
		m.to, m.hasTo = day.Add(24*time.Hour-time.Millisecond), true
	}
	return m, nil
}

// Match reports whether r satisfies both conditions. A record without a start
// time never matches while a date bound is set.
func (m Matcher) Match(r domain.Record) bool {
	return m.matchSearch(r) && m.matchRange(r)
}

func (m Matcher) matchSearch(r domain.Record) bool {
	if m.term == "" {
		return true
	}
	for _, field := range r.SearchFields() {
		if strings.Contains(strings.ToLower(field), m.term) {
			return true
		}
	}
	return false
}

func (m Matcher) matchRange(r domain.Record) bool {
	if !m.hasFrom && !m.hasTo {
		return true
	}
	started, ok := r.StartedAt()
	if !ok {
		return false
	}
	if m.hasFrom && started.Before(m.from) {
		return false
	}
	if m.hasTo && started.After(m.to) {
		return false
	}
	return true
}

// Apply returns the records matching c in their original order. The input
// slice is not modified.
func Apply[R domain.Record](records []R, c Criteria) ([]R, error) {
	m, err := Compile(c)
	if err != nil {
		return nil, err
	}
	return Select(records, m), nil
}

// Select returns the records accepted by m.
func Select[R domain.Record](records []R, m Matcher) []R {
	out := make([]R, 0, len(records))
	for _, r := range records {
		if m.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
