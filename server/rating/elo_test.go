package rating

import (
	"errors"
	"math"
	"testing"
)

func TestExpectedScore(t *testing.T) {
	if got := ExpectedScore(1500, 1500); !almost(got, 0.5, 1e-12) {
		t.Fatalf("even ratings: got %v", got)
	}
	if got := ExpectedScore(1600, 1500); !almost(got, 0.6400649998028851, 1e-12) {
		t.Fatalf("+100: got %v", got)
	}
}

func TestEloHomeWin(t *testing.T) {
	home, away := DefaultEloParams().Update(1500, 1500, 21, 14, false)
	if !almost(home, 1512.1809715981456, 1e-9) || !almost(away, 1487.8190284018544, 1e-9) {
		t.Fatalf("got %v / %v", home, away)
	}
}

func TestEloTieWithZeroMarginIsNoop(t *testing.T) {
	home, away := DefaultEloParams().Update(1500, 1500, 21, 21, false)
	if home != 1500 || away != 1500 {
		t.Fatalf("tie should not move ratings: %v / %v", home, away)
	}
}

func TestEloChangesAreOpposite(t *testing.T) {
	cases := []struct {
		name    string
		scaling Scaling
		h, a    float64
		hs, as  int
		neutral bool
	}{
		{"constant home win", ScalingConstant, 1500, 1500, 10, 3, false},
		{"constant away upset", ScalingConstant, 1700, 1400, 0, 35, false},
		{"margin blowout", ScalingMargin, 1450, 1520, 56, 0, false},
		{"margin neutral", ScalingMargin, 1600, 1600, 17, 20, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultEloParams()
			p.Scaling = tc.scaling
			home, away := p.Update(tc.h, tc.a, tc.hs, tc.as, tc.neutral)
			dh, da := home-tc.h, away-tc.a
			if !almost(dh, -da, 1e-9) {
				t.Fatalf("changes not opposite: %v vs %v", dh, da)
			}
		})
	}
}

func TestEloNeutralSiteSymmetry(t *testing.T) {
	p := DefaultEloParams()
	h1, a1 := p.Update(1550, 1480, 24, 17, true)
	// same game with sides swapped
	h2, a2 := p.Update(1480, 1550, 17, 24, true)
	if !almost(h1-1550, a2-1550, 1e-9) || !almost(a1-1480, h2-1480, 1e-9) {
		t.Fatalf("neutral site not symmetric: (%v,%v) vs (%v,%v)", h1, a1, h2, a2)
	}
}

func TestEloAwayWinGainsMore(t *testing.T) {
	p := DefaultEloParams()
	homeWin, _ := p.Update(1500, 1500, 28, 21, false)
	_, awayWin := p.Update(1500, 1500, 21, 28, false)
	if !(awayWin-1500 > homeWin-1500) {
		t.Fatalf("away win gain %v should exceed home win gain %v", awayWin-1500, homeWin-1500)
	}
}

func TestEloMarginMonotonic(t *testing.T) {
	p := DefaultEloParams()
	prev := 0.0
	for _, margin := range []int{1, 3, 7, 14, 28, 50} {
		home, _ := p.Update(1500, 1500, 10+margin, 10, false)
		if d := math.Abs(home - 1500); d <= prev {
			t.Fatalf("margin %d: |change| %v not above %v", margin, d, prev)
		} else {
			prev = d
		}
	}
}

func TestEloConstantScalingIgnoresMargin(t *testing.T) {
	p := DefaultEloParams()
	p.Scaling = ScalingConstant
	narrow, _ := p.Update(1500, 1500, 14, 13, true)
	blowout, _ := p.Update(1500, 1500, 63, 0, true)
	if narrow != blowout || !almost(narrow, 1516, 1e-9) {
		t.Fatalf("constant K should ignore margin: %v vs %v", narrow, blowout)
	}
}

func TestDecay(t *testing.T) {
	r := 1634.7215
	if got := DecayToward(r, EloDefaultRating, 0); got != EloDefaultRating {
		t.Fatalf("decay 0 should reset, got %v", got)
	}
	if got := DecayToward(r, EloDefaultRating, 1); got != r {
		t.Fatalf("decay 1 should carry over, got %v", got)
	}
	want := EloDefaultRating + 0.25*(r-EloDefaultRating)
	if got := DecayToward(r, EloDefaultRating, 0.25); !almost(got, want, 1e-9) {
		t.Fatalf("decay 0.25: got %v want %v", got, want)
	}
}

func TestValidateDecay(t *testing.T) {
	for _, d := range []float64{0, 0.5, 1} {
		if err := ValidateDecay(d); err != nil {
			t.Fatalf("decay %v rejected: %v", d, err)
		}
	}
	for _, d := range []float64{-0.01, 1.5, math.NaN()} {
		if err := ValidateDecay(d); !errors.Is(err, ErrInvalidDecay) {
			t.Fatalf("decay %v: expected ErrInvalidDecay, got %v", d, err)
		}
	}
}

func TestEloParamsValidate(t *testing.T) {
	if err := DefaultEloParams().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	bad := DefaultEloParams()
	bad.MarginBase = 1
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected base error")
	}
	bad = DefaultEloParams()
	bad.Scaling = "sqrt"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected scaling error")
	}
}
