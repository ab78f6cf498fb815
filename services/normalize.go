package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"immo-scraper/models"
)

// Unsupported is returned by ResolveCity and ResolveType when no variant matches.
const Unsupported = "unsupported"

const (
	CityVitre        = "Vitré"
	CityChateaugiron = "Châteaugiron"
)

// cityVariants maps folded spellings to canonical city names.
var cityVariants = map[string]string{
	"vitre":         CityVitre,
	"chateaugiron":  CityChateaugiron,
	"chateau giron": CityChateaugiron,
}

// typeVariants maps folded words to a canonical property type.
var typeVariants = map[string]string{
	"maison":    models.TypeHouse,
	"maisons":   models.TypeHouse,
	"villa":     models.TypeHouse,
	"propriete": models.TypeHouse,
	"pavillon":  models.TypeHouse,
	"longere":   models.TypeHouse,
	"manoir":    models.TypeHouse,
	"moulin":    models.TypeHouse,
	"ferme":     models.TypeHouse,
	"chalet":    models.TypeHouse,
	"gite":      models.TypeHouse,
	"demeure":   models.TypeHouse,
	"immeuble":  models.TypeBuilding,
	"immeubles": models.TypeBuilding,
}

var (
	digitsRegexp  = regexp.MustCompile(`\d+`)
	numberRegexp  = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	nonWordRegexp = regexp.MustCompile(`[^a-z0-9]+`)
	// a grouped amount followed by the euro sign, cents dropped
	euroRegexp = regexp.MustCompile(`(\d{1,3}(?:[ \x{a0}\x{202f}.]\d{3})+|\d+)(?:,\d{1,2})?\s*€`)
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lower-cases s and strips diacritics ("Châteaugiron" -> "chateaugiron").
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// words folds s and splits it into alphanumeric tokens.
func words(s string) []string {
	return strings.Fields(nonWordRegexp.ReplaceAllString(Fold(s), " "))
}

// ResolveCity maps any known spelling of a supported city to its canonical
// name. Postal codes and punctuation are ignored.
func ResolveCity(raw string) string {
	var letters []string
	for _, w := range words(raw) {
		if strings.Trim(w, "0123456789") == "" {
			continue
		}
		letters = append(letters, w)
	}
	if len(letters) == 0 {
		return Unsupported
	}

	joined := strings.Join(letters, " ")
	if city, ok := cityVariants[joined]; ok {
		return city
	}
	padded := " " + joined + " "
	for variant, city := range cityVariants {
		if strings.Contains(padded, " "+variant+" ") {
			return city
		}
	}
	return Unsupported
}

// ResolveType returns the canonical type of the first word of raw that names
// a supported property type.
func ResolveType(raw string) string {
	for _, w := range words(raw) {
		if t, ok := typeVariants[w]; ok {
			return t
		}
	}
	return Unsupported
}

// ParsePrice reads the first euro amount of raw ("350 000 € (dont 5%
// honoraires)" -> 350000). Without a euro sign every digit of raw is kept.
func ParsePrice(raw string) int64 {
	if m := euroRegexp.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	digits := strings.Join(digitsRegexp.FindAllString(raw, -1), "")
	if digits == "" {
		return 0
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// spaceStripper removes the thousands separators French pages use.
var spaceStripper = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "")

// ParseSurface returns the first decimal number in raw, accepting a French
// decimal comma. Nil when raw holds no number.
func ParseSurface(raw string) *float64 {
	m := numberRegexp.FindString(spaceStripper.Replace(raw))
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil || f <= 0 {
		return nil
	}
	return &f
}

// ParseInt returns the first integer in raw, or 0.
func ParseInt(raw string) int {
	m := digitsRegexp.FindString(raw)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// Upper bounds of classes A..F; anything above the last bound is G.
var (
	energyBounds   = []float64{70, 110, 180, 250, 330, 420}
	emissionBounds = []float64{6, 11, 30, 50, 70, 100}
)

// ParseEnergyRating returns the DPE letter for raw, which is either a letter
// A-G or a consumption in kWh/m².an.
func ParseEnergyRating(raw string) string {
	return parseRating(raw, energyBounds)
}

// ParseEmissionRating returns the GES letter for raw, which is either a letter
// A-G or an emission in kgCO2/m².an.
func ParseEmissionRating(raw string) string {
	return parseRating(raw, emissionBounds)
}

func parseRating(raw string, bounds []float64) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if len(s) == 1 {
		c := unicode.ToUpper(rune(s[0]))
		if c >= 'A' && c <= 'G' {
			return string(c)
		}
		if !unicode.IsDigit(c) {
			return ""
		}
	}

	value := ParseSurface(s)
	if value == nil {
		return ""
	}
	for i, bound := range bounds {
		if *value <= bound {
			return string(rune('A' + i))
		}
	}
	return "G"
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
