package skills

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Tier tells how a candidate skill was paired with a job skill.
type Tier string

const (
	TierExact     Tier = "exact"
	TierSubstring Tier = "substring"
	TierFuzzy     Tier = "fuzzy"
)

const (
	confidenceExact     = 1.0
	confidenceSubstring = 0.8
	confidenceFuzzy     = 0.6

	// Only pairs strictly above this confidence count as matches.
	minConfidence  = 0.5
	fuzzyThreshold = 0.88

	coverageWeight   = 0.7
	confidenceWeight = 0.3

	maxBaseImportance  = 2.0
	technicalBoost     = 1.3
	sharedBoost        = 1.5
	criticalImportance = 1.2
	maxCriticalMissing = 5
)

type Match struct {
	Candidate  string  `json:"candidate"`
	Job        string  `json:"job"`
	Key        string  `json:"key"`
	Confidence float64 `json:"confidence"`
	Tier       Tier    `json:"tier"`
}

type Result struct {
	Score           float64  `json:"score"`
	Coverage        float64  `json:"coverage"`
	Matches         []Match  `json:"matches,omitempty"`
	CriticalMissing []string `json:"critical_missing,omitempty"`
}

// MatchedKeys returns the canonical keys of the claimed job skills, each once.
func (r Result) MatchedKeys() []string {
	seen := make(map[string]struct{}, len(r.Matches))
	out := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		if _, ok := seen[m.Key]; ok {
			continue
		}
		seen[m.Key] = struct{}{}
		out = append(out, m.Key)
	}
	return out
}

// Matcher pairs candidate skills with job skills using graded confidence.
type Matcher struct {
	canon     *Canonicalizer
	technical []string
}

func NewMatcher(canon *Canonicalizer, t Tables) *Matcher {
	technical := make([]string, 0, len(t.TechnicalTerms))
	for _, term := range t.TechnicalTerms {
		if n := Normalize(term); n != "" {
			technical = append(technical, n)
		}
	}
	return &Matcher{canon: canon, technical: technical}
}

// Importance weighs every skill of both sets. Longer skills weigh more, up to
// a cap; technical skills and skills present in both sets are boosted.
func (m *Matcher) Importance(candidate, job []string) map[string]float64 {
	inCandidate := toSet(candidate)
	inJob := toSet(job)

	weights := make(map[string]float64, len(inCandidate)+len(inJob))
	for _, set := range [][]string{candidate, job} {
		for _, skill := range set {
			if _, done := weights[skill]; done {
				continue
			}
			importance := math.Min(float64(utf8.RuneCountInString(skill))/10, maxBaseImportance)
			if m.isTechnical(skill) {
				importance *= technicalBoost
			}
			_, c := inCandidate[skill]
			_, j := inJob[skill]
			if c && j {
				importance *= sharedBoost
			}
			weights[skill] = importance
		}
	}
	return weights
}

// Match pairs two normalized skill sets. Every candidate skill claims at most
// one job skill and a job skill (or any spelling variant of it) is claimed at
// most once. Among equally confident job skills the first one wins.
func (m *Matcher) Match(candidate, job []string) Result {
	candidate = dedupe(candidate)
	job = dedupe(job)

	if len(candidate) == 0 || len(job) == 0 {
		return Result{CriticalMissing: job}
	}

	importance := m.Importance(candidate, job)

	keys := make([]string, len(job))
	for i, skill := range job {
		keys[i] = m.canon.Key(skill)
	}

	claimedJob := make(map[string]struct{}, len(job))
	claimedKeys := make(map[string]struct{}, len(job))
	matches := make([]Match, 0)

	for _, c := range candidate {
		best := -1
		bestConfidence := 0.0
		bestTier := Tier("")

		for i, j := range job {
			if _, ok := claimedJob[j]; ok {
				continue
			}
			if _, ok := claimedKeys[keys[i]]; ok {
				continue
			}
			confidence, tier := m.confidence(c, j)
			if confidence > bestConfidence && confidence > minConfidence {
				best = i
				bestConfidence = confidence
				bestTier = tier
			}
		}

		if best < 0 {
			continue
		}
		claimedJob[job[best]] = struct{}{}
		claimedKeys[keys[best]] = struct{}{}
		matches = append(matches, Match{
			Candidate:  c,
			Job:        job[best],
			Key:        keys[best],
			Confidence: bestConfidence,
			Tier:       bestTier,
		})
	}

	totalImportance := 0.0
	for _, j := range job {
		totalImportance += importance[j]
	}

	matchedImportance := 0.0
	confidenceSum := 0.0
	for _, match := range matches {
		matchedImportance += importance[match.Job] * match.Confidence
		confidenceSum += match.Confidence
	}

	coverage := 0.0
	if totalImportance > 0 {
		coverage = matchedImportance / totalImportance
	}
	avgConfidence := 0.0
	if len(matches) > 0 {
		avgConfidence = confidenceSum / float64(len(matches))
	}

	critical := make([]string, 0)
	for i, j := range job {
		if len(critical) == maxCriticalMissing {
			break
		}
		if _, ok := claimedJob[j]; ok {
			continue
		}
		if _, ok := claimedKeys[keys[i]]; ok {
			continue
		}
		if importance[j] > criticalImportance {
			critical = append(critical, j)
		}
	}

	return Result{
		Score:           clamp(coverage*coverageWeight + avgConfidence*confidenceWeight),
		Coverage:        coverage,
		Matches:         matches,
		CriticalMissing: critical,
	}
}

func (m *Matcher) confidence(candidate, job string) (float64, Tier) {
	switch {
	case candidate == job:
		return confidenceExact, TierExact
	case strings.Contains(candidate, job) || strings.Contains(job, candidate):
		return confidenceSubstring, TierSubstring
	case Similarity(candidate, job) >= fuzzyThreshold:
		return confidenceFuzzy, TierFuzzy
	default:
		return 0, ""
	}
}

func (m *Matcher) isTechnical(skill string) bool {
	for _, term := range m.technical {
		if strings.Contains(skill, term) {
			return true
		}
	}
	return false
}

// Similarity is 1 minus the edit distance over the length of the longer string.
func Similarity(a, b string) float64 {
	longer := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longer {
		longer = n
	}
	if longer == 0 {
		return 1
	}
	return float64(longer-EditDistance(a, b)) / float64(longer)
}

// EditDistance is the Levenshtein distance between two strings, counted in runes.
func EditDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func toSet(in []string) map[string]struct{} {
	set := make(map[string]struct{}, len(in))
	for _, s := range in {
		set[s] = struct{}{}
	}
	return set
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(v, 1))
}
