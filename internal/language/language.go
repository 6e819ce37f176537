// Package language rates a candidate's languages against a posting's
// language requirement.
package language

import (
	"strings"
	"unicode"

	"github.com/spigell/job-matcher/internal/catalog"
)

type Requirement string

const (
	RequirementNone        Requirement = "none"
	RequirementEnglish     Requirement = "english"
	RequirementGerman      Requirement = "german"
	RequirementBoth        Requirement = "both"
	RequirementUnspecified Requirement = "unspecified"
)

const (
	ReasonNotRequired    = "language_not_required"
	ReasonMet            = "language_met"
	ReasonEnglishMissing = "language_english_missing"
	ReasonGermanMissing  = "language_german_missing"
	ReasonBothMet        = "language_both_met"
	ReasonOneMissing     = "language_one_missing"
	ReasonNoneMet        = "language_none_met"
	ReasonUnclear        = "language_unclear"
)

type Result struct {
	Score       float64     `json:"score"`
	Explanation string      `json:"explanation"`
	Reason      string      `json:"reason"`
	Requirement Requirement `json:"requirement"`
}

var (
	germanTokens  = map[string]struct{}{"de": {}, "german": {}, "deutsch": {}, "ger": {}}
	englishTokens = map[string]struct{}{"en": {}, "english": {}, "englisch": {}, "eng": {}}
)

// ParseRequirement reads the free-form language field of a posting.
// Plain affirmatives ("yes", "required") mean German.
func ParseRequirement(raw string) Requirement {
	text := strings.ToLower(strings.TrimSpace(raw))
	switch text {
	case "", "no", "false", "none", "not required", "n/a", "-":
		return RequirementNone
	case "yes", "true", "required":
		return RequirementGerman
	case "both":
		return RequirementBoth
	}

	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	hasGerman, hasEnglish := false, false
	for _, tok := range tokens {
		if _, ok := germanTokens[tok]; ok {
			hasGerman = true
		}
		if _, ok := englishTokens[tok]; ok {
			hasEnglish = true
		}
	}

	switch {
	case hasGerman && hasEnglish:
		return RequirementBoth
	case hasGerman:
		return RequirementGerman
	case hasEnglish:
		return RequirementEnglish
	default:
		return RequirementUnspecified
	}
}

// Evaluate parses the requirement and scores the candidate against it.
func Evaluate(raw string, languages []catalog.Language) Result {
	return Score(ParseRequirement(raw), languages)
}

func Score(req Requirement, languages []catalog.Language) Result {
	speaksGerman, speaksEnglish := speaks(languages)
	res := Result{Requirement: req}

	switch req {
	case RequirementNone:
		res.Score, res.Reason, res.Explanation = 1.0, ReasonNotRequired, "No language requirement"
	case RequirementEnglish:
		if speaksEnglish {
			res.Score, res.Reason, res.Explanation = 1.0, ReasonMet, "English requirement met"
		} else {
			res.Score, res.Reason, res.Explanation = 0.4, ReasonEnglishMissing, "English required but not listed"
		}
	case RequirementGerman:
		if speaksGerman {
			res.Score, res.Reason, res.Explanation = 1.0, ReasonMet, "German requirement met"
		} else {
			res.Score, res.Reason, res.Explanation = 0.3, ReasonGermanMissing, "German required but not listed"
		}
	case RequirementBoth:
		switch {
		case speaksGerman && speaksEnglish:
			res.Score, res.Reason, res.Explanation = 1.0, ReasonBothMet, "German and English requirements met"
		case speaksGerman || speaksEnglish:
			res.Score, res.Reason, res.Explanation = 0.7, ReasonOneMissing, "Only one of German and English listed"
		default:
			res.Score, res.Reason, res.Explanation = 0.2, ReasonNoneMet, "German and English required but not listed"
		}
	default:
		res.Requirement = RequirementUnspecified
		res.Score, res.Reason, res.Explanation = 0.9, ReasonUnclear, "Language requirement unclear"
	}
	return res
}

func speaks(languages []catalog.Language) (german, english bool) {
	for _, l := range languages {
		name := strings.ToLower(strings.TrimSpace(l.Language))
		switch {
		case name == "de" || strings.Contains(name, "german") || strings.Contains(name, "deutsch"):
			german = true
		case name == "en" || strings.Contains(name, "english") || strings.Contains(name, "englisch"):
			english = true
		}
	}
	return german, english
}
