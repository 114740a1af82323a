package rating

import "strings"

// Division is the NCAA classification a team played under.
type Division string

const (
	DivisionUnknown Division = ""
	DivisionFBS     Division = "fbs"
	DivisionFCS     Division = "fcs"
	DivisionII      Division = "ii"
	DivisionIII     Division = "iii"
)

type prior struct{ rating, rd float64 }

// base rating per division; RD scales with the rating so lower divisions
// start tighter around a lower mean.
var divisionPriors = map[Division]prior{
	DivisionFBS: {1500, DefaultRD * 1500 / DefaultRating},
	DivisionFCS: {1300, DefaultRD * 1300 / DefaultRating},
	DivisionII:  {1100, DefaultRD * 1100 / DefaultRating},
	DivisionIII: {900, DefaultRD * 900 / DefaultRating},
}

// ParseDivision maps a stored classification to a Division. Anything
// unrecognised is DivisionUnknown.
func ParseDivision(s string) Division {
	d := Division(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := divisionPriors[d]; ok {
		return d
	}
	return DivisionUnknown
}

func (d Division) Valid() bool {
	_, ok := divisionPriors[d]
	return ok
}

func (d Division) Label() string {
	switch d {
	case DivisionFBS:
		return "FBS"
	case DivisionFCS:
		return "FCS"
	case DivisionII:
		return "Division II"
	case DivisionIII:
		return "Division III"
	}
	return ""
}

// Prior returns the starting rating and RD for a division, falling back to
// the global defaults.
func (d Division) Prior() (r, rd float64) {
	if p, ok := divisionPriors[d]; ok {
		return p.rating, p.rd
	}
	return DefaultRating, DefaultRD
}
