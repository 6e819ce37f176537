package skills

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokens shorter than this are discarded by Expand.
const minTokenLength = 2

// Canonicalizer turns free-text skill tokens into comparable forms.
type Canonicalizer struct {
	synonyms     map[string][]string
	aliases      map[string]string
	toolKeywords []string
}

func NewCanonicalizer(t Tables) *Canonicalizer {
	c := &Canonicalizer{
		synonyms:     make(map[string][]string, len(t.Synonyms)),
		aliases:      make(map[string]string, len(t.Aliases)),
		toolKeywords: make([]string, 0, len(t.ToolKeywords)),
	}
	for skill, syns := range t.Synonyms {
		normalized := make([]string, 0, len(syns))
		for _, s := range syns {
			if n := Normalize(s); n != "" {
				normalized = append(normalized, n)
			}
		}
		c.synonyms[Normalize(skill)] = normalized
	}
	for from, to := range t.Aliases {
		c.aliases[Normalize(from)] = Normalize(to)
	}
	for _, kw := range t.ToolKeywords {
		if n := strings.ToLower(strings.TrimSpace(kw)); n != "" {
			c.toolKeywords = append(c.toolKeywords, n)
		}
	}
	return c
}

// Normalize lower-cases a token, replaces everything except letters, digits,
// whitespace and the characters "_+#.-" with a space and collapses runs of
// whitespace. Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	lowered := strings.ToLower(raw)
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == '_', r == '+', r == '#', r == '.', r == '-':
			return r
		default:
			return ' '
		}
	}, lowered)
	return strings.Join(strings.Fields(cleaned), " ")
}

// Key maps a token to its canonical key so that spelling variants compare equal.
func (c *Canonicalizer) Key(raw string) string {
	normalized := Normalize(raw)
	if key, ok := c.aliases[normalized]; ok {
		return key
	}
	return normalized
}

// Expand normalizes every token, drops tokens shorter than two characters and
// adds the synonyms of known skills. The result holds each token once, in
// first-seen order.
func (c *Canonicalizer) Expand(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	add := func(token string) {
		if _, ok := seen[token]; ok {
			return
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}

	for _, skill := range raw {
		clean := Normalize(skill)
		if utf8.RuneCountInString(clean) < minTokenLength {
			continue
		}
		add(clean)
		for _, syn := range c.synonyms[clean] {
			add(syn)
		}
	}
	return out
}

// ExtractTools picks the raw skills that mention a known tool keyword.
func (c *Canonicalizer) ExtractTools(raw []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, skill := range raw {
		lowered := strings.ToLower(strings.TrimSpace(skill))
		if lowered == "" {
			continue
		}
		if _, ok := seen[lowered]; ok {
			continue
		}
		for _, kw := range c.toolKeywords {
			if strings.Contains(lowered, kw) {
				seen[lowered] = struct{}{}
				out = append(out, skill)
				break
			}
		}
	}
	return out
}
