// Package experience estimates a candidate's tenure and rates it against a
// posting's requirement.
package experience

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/job-matcher/internal/catalog"
)

const (
	ReasonUnspecified = "experience_unspecified"
	ReasonMet         = "experience_met"
	ReasonClose       = "experience_close"
	ReasonPartial     = "experience_partial"
	ReasonLimited     = "experience_limited"
)

const (
	daysPerYear = 365.25
	// Entries whose dates cannot be read count as this many years.
	fallbackYears = 1.0

	scoreUnspecified = 0.8
	scoreMet         = 1.0
	scoreClose       = 0.8
	scorePartial     = 0.6
	scoreLimited     = 0.3
)

var requirementRe = regexp.MustCompile(`(?i)(\d+)\s*[-+]?\s*years?`)

type Result struct {
	Score          float64 `json:"score"`
	Explanation    string  `json:"explanation"`
	Reason         string  `json:"reason"`
	RequiredYears  int     `json:"required_years"`
	CandidateYears float64 `json:"candidate_years"`
}

// Estimator rates employment history. The clock is injectable so that open
// ("present") entries are reproducible in tests.
type Estimator struct {
	now func() time.Time
}

func NewEstimator(now func() time.Time) *Estimator {
	if now == nil {
		now = time.Now
	}
	return &Estimator{now: now}
}

// RequiredYears extracts the first "N years" figure from a requirement text.
// Zero means no requirement.
func RequiredYears(text string) int {
	m := requirementRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	years, err := strconv.Atoi(m[1])
	if err != nil || years < 0 {
		return 0
	}
	return years
}

// TotalYears sums the tenure of every entry, rounded to one decimal.
func (e *Estimator) TotalYears(history []catalog.Employment) float64 {
	now := e.now()
	total := 0.0
	for _, job := range history {
		total += entryYears(job, now)
	}
	return math.Round(total*10) / 10
}

func (e *Estimator) Estimate(history []catalog.Employment, requirement string) Result {
	required := RequiredYears(requirement)
	if required == 0 {
		return Result{
			Score:          scoreUnspecified,
			Explanation:    "No specific experience requirement",
			Reason:         ReasonUnspecified,
			CandidateYears: e.TotalYears(history),
		}
	}

	years := e.TotalYears(history)
	res := Result{RequiredYears: required, CandidateYears: years}
	req := float64(required)

	switch {
	case years >= req:
		res.Score = scoreMet
		res.Reason = ReasonMet
		res.Explanation = fmt.Sprintf("Experience requirement met (%s+ years)", formatYears(years))
	case years >= req*0.7:
		res.Score = scoreClose
		res.Reason = ReasonClose
		res.Explanation = fmt.Sprintf("Close to experience requirement (%s/%d years)", formatYears(years), required)
	case years >= req*0.5:
		res.Score = scorePartial
		res.Reason = ReasonPartial
		res.Explanation = fmt.Sprintf("Some experience (%s/%d years)", formatYears(years), required)
	default:
		res.Score = scoreLimited
		res.Reason = ReasonLimited
		res.Explanation = fmt.Sprintf("Limited experience (%s/%d years)", formatYears(years), required)
	}
	return res
}

func entryYears(job catalog.Employment, now time.Time) float64 {
	start, ok := ParseDate(job.StartDate)
	if !ok {
		return fallbackYears
	}

	end := now
	if !isOpenEnded(job.EndDate) {
		end, ok = ParseDate(job.EndDate)
		if !ok {
			return fallbackYears
		}
	}

	if end.Before(start) {
		return 0
	}
	return end.Sub(start).Hours() / 24 / daysPerYear
}

func isOpenEnded(end string) bool {
	switch strings.ToLower(strings.TrimSpace(end)) {
	case "", "present", "current", "now", "today", "ongoing":
		return true
	}
	return false
}

func formatYears(y float64) string {
	return strconv.FormatFloat(y, 'f', -1, 64)
}
