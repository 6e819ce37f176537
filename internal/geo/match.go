package geo

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
)

const (
	ReasonRemote              = "location_remote"
	ReasonNoData              = "location_no_data"
	ReasonCandidateUnresolved = "location_candidate_unresolved"
	ReasonJobUnresolved       = "location_job_unresolved"
	ReasonDistance            = "location_distance"
)

const (
	scoreRemote              = 0.95
	scoreNoData              = 0.5
	scoreCandidateUnresolved = 0.5
	scoreJobUnresolved       = 0.4

	hybridRadiusKm   = 100.0
	hybridBonus      = 0.1
	sameCountryBonus = 0.05
)

// Match is the location compatibility of one candidate and one posting.
type Match struct {
	Score       float64  `json:"score"`
	DistanceKm  *float64 `json:"distance_km,omitempty"`
	Explanation string   `json:"explanation"`
	Reason      string   `json:"reason"`
}

// Match rates how well the candidate location fits a posting. It never fails:
// lookup problems degrade to fixed fallback scores.
func (r *Resolver) Match(ctx context.Context, candidate string, site Site) Match {
	if site.Remote {
		return Match{Score: scoreRemote, Reason: ReasonRemote, Explanation: "Remote position - location independent"}
	}

	candidate = strings.TrimSpace(candidate)
	jobText := strings.TrimSpace(site.Text)
	if candidate == "" || (jobText == "" && !site.hasCoordinates()) {
		return Match{Score: scoreNoData, Reason: ReasonNoData, Explanation: "Limited location data available"}
	}

	from, err := r.Resolve(ctx, candidate)
	if err != nil {
		r.logger.Debug("candidate location unresolved", zap.String("query", candidate), zap.Error(err))
		return Match{
			Score:       scoreCandidateUnresolved,
			Reason:      ReasonCandidateUnresolved,
			Explanation: "Could not determine candidate location",
		}
	}

	var to *Location
	geocoded := false
	if site.hasCoordinates() {
		to = &Location{Query: jobText, Latitude: *site.Latitude, Longitude: *site.Longitude}
	} else {
		to, err = r.Resolve(ctx, jobText)
		if err != nil {
			r.logger.Debug("job location unresolved", zap.String("query", jobText), zap.Error(err))
			return Match{
				Score:       scoreJobUnresolved,
				Reason:      ReasonJobUnresolved,
				Explanation: fmt.Sprintf("Could not geocode job location: %s", jobText),
			}
		}
		geocoded = true
	}

	km := Distance(from, to)
	score := ScoreForDistance(km)
	if site.Hybrid && km <= hybridRadiusKm {
		score += hybridBonus
	}
	if geocoded && from.CountryCode != "" && strings.EqualFold(from.CountryCode, to.CountryCode) {
		score += sameCountryBonus
	}

	return Match{
		Score:       math.Min(score, 1.0),
		DistanceKm:  &km,
		Reason:      ReasonDistance,
		Explanation: describeDistance(km, site.Hybrid),
	}
}
