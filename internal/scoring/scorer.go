// Package scoring combines the component scorers into one weighted score per job.
package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/job-matcher/internal/catalog"
	"github.com/spigell/job-matcher/internal/experience"
	"github.com/spigell/job-matcher/internal/geo"
	"github.com/spigell/job-matcher/internal/language"
	"github.com/spigell/job-matcher/internal/skills"
)

// Overlap diagnostics keep at most this many entries per list.
const maxOverlapItems = 100

var ErrNilProfile = errors.New("profile is nil")

// Locator rates the location fit of a candidate and a posting.
type Locator interface {
	Match(ctx context.Context, candidate string, site geo.Site) geo.Match
}

type Options struct {
	// InferTools derives job tools from job skills when a posting lists none.
	InferTools bool
}

type Scorer struct {
	canon      *skills.Canonicalizer
	matcher    *skills.Matcher
	experience *experience.Estimator
	locator    Locator
	opts       Options
}

// New builds a scorer. A nil estimator uses the wall clock; a nil locator
// rates locations without any lookups.
func New(tables skills.Tables, estimator *experience.Estimator, locator Locator, opts Options) *Scorer {
	canon := skills.NewCanonicalizer(tables)
	if estimator == nil {
		estimator = experience.NewEstimator(nil)
	}
	if locator == nil {
		locator = geo.NewResolver(nil, geo.Config{}, nil)
	}
	return &Scorer{
		canon:      canon,
		matcher:    skills.NewMatcher(canon, tables),
		experience: estimator,
		locator:    locator,
		opts:       opts,
	}
}

// SiteFor describes the job side of a location comparison.
func SiteFor(job *catalog.Job) geo.Site {
	return geo.Site{
		Text:      job.Location,
		Remote:    job.IsRemote(),
		Hybrid:    job.IsHybrid(),
		Latitude:  job.Latitude,
		Longitude: job.Longitude,
	}
}

// Score rates one job for a profile. Invalid input is the only error.
func (s *Scorer) Score(ctx context.Context, profile *catalog.Profile, job *catalog.Job) (*Result, error) {
	if profile == nil {
		return nil, ErrNilProfile
	}
	if err := job.Validate(); err != nil {
		if job == nil {
			return nil, err
		}
		return nil, fmt.Errorf("invalid job %q: %w", job.ID, err)
	}

	candidate := s.canon.Expand(profile.AllSkills())
	jobSkills := s.canon.Expand(job.Skills)

	rawTools := job.Tools
	if len(rawTools) == 0 && s.opts.InferTools {
		rawTools = s.canon.ExtractTools(job.Skills)
	}
	jobTools := s.canon.Expand(rawTools)

	skillRes := s.matcher.Match(candidate, jobSkills)
	toolRes := s.matcher.Match(candidate, jobTools)
	expRes := s.experience.Estimate(profile.Experience, job.ExperienceRequired)
	langRes := language.Evaluate(job.LanguageRequired, profile.Languages)
	locRes := s.locator.Match(ctx, profile.Location, SiteFor(job))

	b := Breakdown{
		Skills:     clamp(skillRes.Score),
		Tools:      clamp(toolRes.Score),
		Experience: clamp(expRes.Score),
		Language:   clamp(langRes.Score),
		Location:   clamp(locRes.Score),
		Weights:    DefaultWeights,
		DistanceKm: locRes.DistanceKm,
	}
	b.Total = Aggregate(b)

	return &Result{
		Breakdown: b,
		Details: Details{
			Skills:                overlap(skillRes, candidate, jobSkills),
			Tools:                 overlap(toolRes, candidate, jobTools),
			ExperienceReason:      expRes.Reason,
			ExperienceExplanation: expRes.Explanation,
			CandidateYears:        expRes.CandidateYears,
			RequiredYears:         expRes.RequiredYears,
			LanguageReason:        langRes.Reason,
			LanguageExplanation:   langRes.Explanation,
			LocationReason:        locRes.Reason,
			LocationExplanation:   locRes.Explanation,
		},
	}, nil
}

// Location rates only the location part for a given candidate location.
func (s *Scorer) Location(ctx context.Context, location string, job *catalog.Job) geo.Match {
	return s.locator.Match(ctx, location, SiteFor(job))
}

func overlap(res skills.Result, candidate, job []string) Overlap {
	return Overlap{
		Matched:         res.MatchedKeys(),
		CriticalMissing: res.CriticalMissing,
		OnlyInResume:    difference(candidate, job),
		OnlyInJob:       difference(job, candidate),
		Coverage:        res.Coverage,
	}
}

// difference returns the items of a that are not in b, capped.
func difference(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, s := range b {
		inB[s] = struct{}{}
	}
	out := make([]string, 0)
	for _, s := range a {
		if len(out) == maxOverlapItems {
			break
		}
		if _, ok := inB[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}
