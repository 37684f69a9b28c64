package compare

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var numberRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// reading is a number found in a label string together with the text that
// follows it up to the next number.
type reading struct {
	value  float64
	suffix string
}

func readings(s string) []reading {
	locs := numberRe.FindAllStringIndex(s, -1)
	out := make([]reading, 0, len(locs))
	for i, loc := range locs {
		end := len(s)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		v, ok := parseNumber(s[loc[0]:loc[1]])
		if !ok {
			continue
		}
		out = append(out, reading{value: v, suffix: unitText(s[loc[1]:end])})
	}
	return out
}

// parseNumber reads "12.5", "12,5" and "1,750".
func parseNumber(s string) (float64, bool) {
	if i := strings.IndexByte(s, ','); i >= 0 {
		if len(s)-i-1 == 3 {
			s = strings.Replace(s, ",", "", 1)
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// unitText lowercases s, drops dots and parentheses and collapses spaces.
func unitText(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', '(', ')', '[', ']', ',', ';':
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// hasUnit reports whether text starts with unit as a whole word,
// optionally pluralised.
func hasUnit(text, unit string) bool {
	if !strings.HasPrefix(text, unit) {
		return false
	}
	rest := strings.TrimPrefix(text[len(unit):], "s")
	if rest == "" {
		return true
	}
	r := []rune(rest)[0]
	return !unicode.IsLetter(r)
}

// ABV readings are expressed in percent alcohol by volume.
func parseABV(s string) []float64 {
	all, _ := abvReadings(s)
	return all
}

// statedABV returns only the readings that carry an alcohol unit, so a
// stray lot number or year never counts as a second strength statement.
func statedABV(s string) []float64 {
	_, stated := abvReadings(s)
	return stated
}

func abvReadings(s string) (all, stated []float64) {
	for _, r := range readings(s) {
		text := r.suffix
		switch {
		case strings.HasPrefix(text, "%"), hasUnit(text, "abv"), hasUnit(text, "alc"),
			hasUnit(text, "percent"), hasUnit(text, "pct"):
			all = append(all, r.value)
			stated = append(stated, r.value)
		case hasUnit(text, "proof"), hasUnit(text, "us proof"):
			all = append(all, r.value/2)
			stated = append(stated, r.value/2)
		case text == "", strings.HasPrefix(text, "/"):
			all = append(all, r.value)
		case volumeFactor(text) > 0:
			// a volume printed next to the alcohol statement
		default:
			all = append(all, r.value)
		}
	}
	return all, stated
}

func isProof(s string) bool {
	return strings.Contains(strings.ToLower(s), "proof")
}

const (
	mlPerFluidOunce = 29.5735295625
	mlPerPint       = 473.176473
	mlPerQuart      = 946.352946
	mlPerGallon     = 3785.411784
)

type volumeUnit struct {
	name   string
	factor float64
}

var volumeUnits = []volumeUnit{
	{"milliliter", 1},
	{"millilitre", 1},
	{"ml", 1},
	{"centiliter", 10},
	{"centilitre", 10},
	{"cl", 10},
	{"liter", 1000},
	{"litre", 1000},
	{"lt", 1000},
	{"l", 1000},
	{"fluid ounce", mlPerFluidOunce},
	{"fl oz", mlPerFluidOunce},
	{"floz", mlPerFluidOunce},
	{"ounce", mlPerFluidOunce},
	{"oz", mlPerFluidOunce},
	{"pint", mlPerPint},
	{"pt", mlPerPint},
	{"quart", mlPerQuart},
	{"qt", mlPerQuart},
	{"gallon", mlPerGallon},
	{"gal", mlPerGallon},
}

func lookupVolumeUnit(text string) (volumeUnit, bool) {
	for _, u := range volumeUnits {
		if hasUnit(text, u.name) {
			return u, true
		}
	}
	return volumeUnit{}, false
}

func volumeFactor(text string) float64 {
	u, _ := lookupVolumeUnit(text)
	return u.factor
}

func (u volumeUnit) metric() bool {
	return u.factor < mlPerFluidOunce
}

// parseVolume returns the label's volume statements in millilitres.
// Every metric figure is a statement of its own, and so is a
// parenthesised conversion; these are equivalent readings of one volume.
// Imperial quantities in strictly decreasing units ("1 PINT 0.9 FL OZ")
// are one compound statement and are summed.
func parseVolume(s string) []float64 {
	type part struct {
		ml   float64
		unit volumeUnit
	}
	var metric, imperial []part
	for _, r := range readings(s) {
		u, ok := lookupVolumeUnit(r.suffix)
		if !ok {
			continue
		}
		p := part{ml: r.value * u.factor, unit: u}
		if u.metric() {
			metric = append(metric, p)
		} else {
			imperial = append(imperial, p)
		}
	}

	out := make([]float64, 0, len(metric)+len(imperial))
	for _, p := range metric {
		out = append(out, p.ml)
	}
	compound := len(imperial) > 1
	for i := 1; i < len(imperial) && compound; i++ {
		compound = imperial[i].unit.factor < imperial[i-1].unit.factor
	}
	if compound {
		sum := 0.0
		for _, p := range imperial {
			sum += p.ml
		}
		return append(out, sum)
	}
	for _, p := range imperial {
		out = append(out, p.ml)
	}
	return out
}

// agree reports whether every value equals the first under eq.
func agree(values []float64, eq func(a, b float64) bool) bool {
	for _, v := range values[1:] {
		if !eq(values[0], v) {
			return false
		}
	}
	return true
}

func within(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon+1e-9
}

func withinRelative(a, b, rel float64) bool {
	return math.Abs(a-b) <= rel*math.Max(math.Abs(a), math.Abs(b))+1e-9
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
