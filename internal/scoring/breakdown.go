package scoring

import "math"

// Component weights. They sum to 1.
const (
	WeightSkills     = 0.50
	WeightTools      = 0.20
	WeightExperience = 0.15
	WeightLanguage   = 0.10
	WeightLocation   = 0.05
)

type Weights struct {
	Skills     float64 `json:"skills"`
	Tools      float64 `json:"tools"`
	Experience float64 `json:"experience"`
	Language   float64 `json:"language"`
	Location   float64 `json:"location"`
}

var DefaultWeights = Weights{
	Skills:     WeightSkills,
	Tools:      WeightTools,
	Experience: WeightExperience,
	Language:   WeightLanguage,
	Location:   WeightLocation,
}

func (w Weights) Sum() float64 {
	return w.Skills + w.Tools + w.Experience + w.Language + w.Location
}

// Breakdown holds the component scores of one profile/job pair.
type Breakdown struct {
	Skills     float64  `json:"skills"`
	Tools      float64  `json:"tools"`
	Experience float64  `json:"experience"`
	Language   float64  `json:"language"`
	Location   float64  `json:"location"`
	Weights    Weights  `json:"weights"`
	Total      int      `json:"total"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// Aggregate turns the weighted component sum into an integer in [0, 100].
func Aggregate(b Breakdown) int {
	w := b.Weights
	total := w.Skills*b.Skills +
		w.Tools*b.Tools +
		w.Experience*b.Experience +
		w.Language*b.Language +
		w.Location*b.Location
	return int(math.Round(math.Max(0, math.Min(total*100, 100))))
}

// Overlap explains a skills or tools comparison.
type Overlap struct {
	Matched         []string `json:"matched"`
	CriticalMissing []string `json:"critical_missing"`
	OnlyInResume    []string `json:"only_in_resume"`
	OnlyInJob       []string `json:"only_in_job"`
	Coverage        float64  `json:"coverage"`
}

// Details carries the reasons behind a Breakdown.
type Details struct {
	Skills                Overlap `json:"skills"`
	Tools                 Overlap `json:"tools"`
	ExperienceReason      string  `json:"experience_reason"`
	ExperienceExplanation string  `json:"experience_explanation"`
	CandidateYears        float64 `json:"candidate_years"`
	RequiredYears         int     `json:"required_years"`
	LanguageReason        string  `json:"language_reason"`
	LanguageExplanation   string  `json:"language_explanation"`
	LocationReason        string  `json:"location_reason"`
	LocationExplanation   string  `json:"location_explanation"`
}

// Reasons lists the machine-readable reason codes.
func (d *Details) Reasons() []string {
	if d == nil {
		return nil
	}
	return []string{d.ExperienceReason, d.LanguageReason, d.LocationReason}
}

// Result is the outcome of scoring one job.
type Result struct {
	Breakdown Breakdown `json:"breakdown"`
	Details   Details   `json:"details"`
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(v, 1))
}
