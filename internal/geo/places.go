package geo

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Region lists the well-known cities of a country. A bare city name is
// qualified with the country before the lookup.
type Region struct {
	Country string   `mapstructure:"country"`
	Aliases []string `mapstructure:"aliases"`
	Cities  []string `mapstructure:"cities"`
}

func DefaultRegions() []Region {
	return []Region{
		{
			Country: "Germany",
			Aliases: []string{"germany", "deutschland"},
			Cities: []string{
				"berlin", "munich", "münchen", "hamburg", "cologne", "köln",
				"frankfurt", "stuttgart", "düsseldorf", "dortmund", "essen",
			},
		},
	}
}

type cityIndex struct {
	// folded city name -> country
	cities map[string]string
	// folded city names, longest first
	order     []string
	countries []string
}

func newCityIndex(regions []Region) *cityIndex {
	idx := &cityIndex{cities: make(map[string]string)}
	for _, r := range regions {
		if strings.TrimSpace(r.Country) == "" {
			continue
		}
		idx.countries = append(idx.countries, fold(r.Country))
		for _, alias := range r.Aliases {
			if a := fold(alias); a != "" {
				idx.countries = append(idx.countries, a)
			}
		}
		for _, city := range r.Cities {
			c := fold(city)
			if c == "" {
				continue
			}
			if _, ok := idx.cities[c]; !ok {
				idx.order = append(idx.order, c)
			}
			idx.cities[c] = r.Country
		}
	}
	sort.SliceStable(idx.order, func(i, j int) bool {
		return len(idx.order[i]) > len(idx.order[j])
	})
	return idx
}

// enhance appends the country to a bare well-known city name. Text that
// already carries a comma or mentions a known country is returned unchanged.
func (idx *cityIndex) enhance(text string) string {
	if strings.Contains(text, ",") {
		return text
	}
	folded := " " + words(fold(text)) + " "
	for _, country := range idx.countries {
		if strings.Contains(folded, " "+country+" ") {
			return text
		}
	}
	for _, city := range idx.order {
		if strings.Contains(folded, " "+city+" ") {
			return text + ", " + idx.cities[city]
		}
	}
	return text
}

// fold lower-cases and strips diacritics so that "Köln" and "koln" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return strings.Join(strings.Fields(out), " ")
}

func words(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

func cacheKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
