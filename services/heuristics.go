package services

import (
	"regexp"
	"strconv"
	"strings"

	"immo-scraper/models"
)

const maxUnitQuantity = 10

var numberWords = map[string]int{
	"un": 1, "une": 1, "deux": 2, "trois": 3, "quatre": 4, "cinq": 5,
	"six": 6, "sept": 7, "huit": 8, "neuf": 9, "dix": 10,
}

// Room-count heuristics, tried in order on folded text.
var (
	piecesRegexp      = regexp.MustCompile(`\b(\d+)\s*pieces?\b`)
	typeTokenRegexp   = regexp.MustCompile(`\b[tf](\d)\b`)
	chambresRegexp    = regexp.MustCompile(`\b(\d+)\s*chambres?\b`)
	maisonWordsRegexp = regexp.MustCompile(`(?s)\bmaison\b.*?\b(un|une|deux|trois|quatre|cinq|six|sept|huit|neuf|dix)\s+pieces?\b`)
)

// Unit-breakdown passes, most specific first. A numeric quantity is 1 to 10,
// the range the number words cover; larger numbers are postal codes, prices
// or surfaces.
var (
	unitQtyRegexp = regexp.MustCompile(
		`\b(10|[1-9]|deux|trois|quatre|cinq|six|sept|huit|neuf|dix)\s+(?:(?:appartements?|logements?)\s+(?:de\s+type\s+)?)?(studios?|[tf][1-9])\b`)
	unitArticleRegexp = regexp.MustCompile(
		`\b(?:un|une)\s+(?:(?:appartement|logement)\s+(?:de\s+type\s+)?)?(studio|[tf][1-9])\b`)
	unitBareRegexp = regexp.MustCompile(`\b(studios?|[tf][1-9])\b`)
)

// InferRoomCount guesses the number of rooms of a house from free text.
// It returns nil when no cue is found.
func InferRoomCount(text string) *int {
	s := Fold(text)

	if m := piecesRegexp.FindStringSubmatch(s); m != nil {
		return positive(atoi(m[1]))
	}
	if m := typeTokenRegexp.FindStringSubmatch(s); m != nil {
		return positive(atoi(m[1]))
	}
	if m := chambresRegexp.FindStringSubmatch(s); m != nil {
		return positive(atoi(m[1]) + 1)
	}
	if m := maisonWordsRegexp.FindStringSubmatch(s); m != nil {
		return positive(numberWords[m[1]])
	}
	return nil
}

// ExtractUnits counts dwelling units per size class in a building description.
// Each pass blanks out what it matched, so a unit mentioned once is counted once
// even though the later, looser passes would also see it.
func ExtractUnits(text string) models.UnitBreakdown {
	var units models.UnitBreakdown
	s := []byte(Fold(text))

	s = unitPass(s, unitQtyRegexp, func(m [][]byte) {
		units.Add(unitSize(string(m[2])), quantity(string(m[1])))
	})
	s = unitPass(s, unitArticleRegexp, func(m [][]byte) {
		units.Add(unitSize(string(m[1])), 1)
	})
	unitPass(s, unitBareRegexp, func(m [][]byte) {
		units.Add(unitSize(string(m[1])), 1)
	})
	return units
}

func unitPass(s []byte, re *regexp.Regexp, fn func(m [][]byte)) []byte {
	locs := re.FindAllSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return s
	}
	masked := append([]byte(nil), s...)
	for _, loc := range locs {
		groups := make([][]byte, 0, len(loc)/2)
		for i := 0; i < len(loc); i += 2 {
			if loc[i] < 0 {
				groups = append(groups, nil)
				continue
			}
			groups = append(groups, s[loc[i]:loc[i+1]])
		}
		fn(groups)
		for i := loc[0]; i < loc[1]; i++ {
			masked[i] = ' '
		}
	}
	return masked
}

// unitSize maps "studio" to 1 and "t3"/"f3" to 3.
func unitSize(token string) int {
	if strings.HasPrefix(token, "studio") {
		return 1
	}
	return atoi(token[1:])
}

func quantity(word string) int {
	if n, ok := numberWords[word]; ok {
		return n
	}
	if n := atoi(word); n <= maxUnitQuantity {
		return n
	}
	return 0
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func positive(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
