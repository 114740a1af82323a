package rating

import (
	"errors"
	"fmt"
	"math"
)

// Elo defaults.
const (
	EloDefaultRating = 1500.0
	EloKFactor       = 32.0
	EloHomeAdvantage = 55.0
	EloMarginBase    = 10.0 // change = K * log_base(diff+1) * (actual - expected)
	EloDecayDefault  = 0.5  // fraction of a rating retained between seasons
)

// ErrInvalidDecay is returned for a season decay outside [0,1].
var ErrInvalidDecay = errors.New("decay must be between 0 and 1")

// Scaling selects how the score differential scales K.
type Scaling string

const (
	ScalingMargin   Scaling = "margin"
	ScalingConstant Scaling = "constant"
)

// EloParams configures one Elo update policy.
type EloParams struct {
	K             float64
	HomeAdvantage float64
	MarginBase    float64
	Scaling       Scaling
}

func DefaultEloParams() EloParams {
	return EloParams{K: EloKFactor, HomeAdvantage: EloHomeAdvantage, MarginBase: EloMarginBase, Scaling: ScalingMargin}
}

// ExpectedScore returns the expected score for ratingA against ratingB.
func ExpectedScore(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/400.0))
}

// Multiplier is the K multiplier for a score differential.
func (p EloParams) Multiplier(homeScore, awayScore int) float64 {
	if p.Scaling == ScalingConstant {
		return 1.0
	}
	diff := math.Abs(float64(homeScore - awayScore))
	// margin 0 -> log(1) = 0 -> no change
	return math.Log(diff+1) / math.Log(p.MarginBase)
}

// Update returns post-match ratings for a completed match. Home advantage
// only enters the expectation, and only off a neutral site.
func (p EloParams) Update(home, away float64, homeScore, awayScore int, neutral bool) (homeAfter, awayAfter float64) {
	var homeActual, awayActual float64
	switch {
	case homeScore > awayScore:
		homeActual, awayActual = 1, 0
	case homeScore < awayScore:
		homeActual, awayActual = 0, 1
	default:
		homeActual, awayActual = 0.5, 0.5
	}

	adv := p.HomeAdvantage
	if neutral {
		adv = 0
	}
	expHome := ExpectedScore(home+adv, away)
	expAway := 1 - expHome

	k := p.K * p.Multiplier(homeScore, awayScore)
	return home + k*(homeActual-expHome), away + k*(awayActual-expAway)
}

func (p EloParams) Validate() error {
	if p.K <= 0 {
		return fmt.Errorf("elo k factor must be positive, got %v", p.K)
	}
	switch p.Scaling {
	case ScalingMargin:
		if p.MarginBase <= 1 {
			return fmt.Errorf("elo margin base must be greater than 1, got %v", p.MarginBase)
		}
	case ScalingConstant:
	default:
		return fmt.Errorf("unknown elo scaling %q", p.Scaling)
	}
	return nil
}

// ValidateDecay rejects decay values outside [0,1].
func ValidateDecay(decay float64) error {
	if math.IsNaN(decay) || decay < 0 || decay > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidDecay, decay)
	}
	return nil
}

// DecayToward blends a carried-over rating toward def. decay=0 resets,
// decay=1 keeps the rating as is.
func DecayToward(r, def, decay float64) float64 {
	return r*decay + def*(1-decay)
}
