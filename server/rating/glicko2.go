package rating

import "math"

// --- Glicko-2 constants (paper values plus the project's tuned defaults) ---
const (
	G2Scale              = 173.7178 // rating scale between r<->mu
	DefaultRating        = 1500.0
	DefaultRD            = 350.0
	DefaultVolatility    = 0.11
	DefaultTau           = 0.9
	ConvergenceTolerance = 0.000001

	pi2 = math.Pi * math.Pi
)

// Player holds the public 1500-scale values of one team (not mu/phi).
type Player struct {
	Rating    float64 // r     (default 1500)
	RD        float64 // RD    (default 350)
	Vol       float64 // sigma (default 0.11)
	Tau       float64 // system constraint on volatility change
	Tolerance float64 // convergence width for the volatility solver
}

// NewPlayer seeds a player at the given rating/RD with default volatility.
func NewPlayer(r, rd float64) *Player {
	return NewPlayerWith(r, rd, DefaultVolatility, DefaultTau)
}

// NewPlayerWith lets you seed every starting value.
func NewPlayerWith(r, rd, vol, tau float64) *Player {
	return &Player{Rating: r, RD: rd, Vol: vol, Tau: tau, Tolerance: ConvergenceTolerance}
}

// --- internal conversions r/RD <-> mu/phi ---
func toMuPhi(r, rd float64) (mu, phi float64)   { return (r - 1500.0) / G2Scale, rd / G2Scale }
func fromMuPhi(mu, phi float64) (r, rd float64) { return mu*G2Scale + 1500.0, phi * G2Scale }

// g(phi_j) and E(mu, mu_j, phi_j)
func g(phi float64) float64 { return 1.0 / math.Sqrt(1.0+3.0*phi*phi/pi2) }
func gExp(mu, muj, phij float64) float64 {
	return 1.0 / (1.0 + math.Exp(-g(phij)*(mu-muj)))
}

// DidNotCompete applies the "no games this period" step: RD grows by
// volatility, rating and volatility stay put.
func (p *Player) DidNotCompete() {
	_, phi := toMuPhi(p.Rating, p.RD)
	phiStar := math.Sqrt(phi*phi + p.Vol*p.Vol)
	p.RD = phiStar * G2Scale
}

// Update is the rating-period update. ratings/rds are the opponents' values
// at the start of the period; outcomes are scores in [0,1] against each.
func (p *Player) Update(ratings, rds, outcomes []float64) {
	if len(ratings) == 0 {
		p.DidNotCompete()
		return
	}

	mu, phi := toMuPhi(p.Rating, p.RD)

	var sumG2E float64 // Σ g^2 * E * (1-E)
	var sumGSE float64 // Σ g * (s - E)
	for i := range ratings {
		muj, phij := toMuPhi(ratings[i], rds[i])
		gj := g(phij)
		e := gExp(mu, muj, phij)
		sumG2E += gj * gj * e * (1.0 - e)
		sumGSE += gj * (outcomes[i] - e)
	}
	v := 1.0 / sumG2E
	delta := v * sumGSE

	tol := p.Tolerance
	if tol <= 0 {
		tol = ConvergenceTolerance
	}
	newVol := math.Exp(solveLogVolatility(delta, v, phi, p.Vol, p.Tau, tol) / 2.0)

	phiStar := math.Sqrt(phi*phi + newVol*newVol)
	phiNew := 1.0 / math.Sqrt(1.0/(phiStar*phiStar)+1.0/v)
	muNew := mu + phiNew*phiNew*sumGSE

	p.Rating, p.RD = fromMuPhi(muNew, phiNew)
	p.Vol = newVol
}

// solveLogVolatility finds the root of f(x) for the new log(sigma^2) with the
// Illinois variant of regula falsi. Returns the converged x (= ln sigma'^2).
func solveLogVolatility(delta, v, phi, vol, tau, eps float64) float64 {
	a := math.Log(vol * vol)
	phi2 := phi * phi
	tau2 := tau * tau
	f := func(x float64) float64 {
		ex := math.Exp(x)
		d := phi2 + v + ex
		return ex*(delta*delta-phi2-v-ex)/(2.0*d*d) - (x-a)/tau2
	}

	A := a
	var B float64
	if delta*delta > phi2+v {
		B = math.Log(delta*delta - phi2 - v)
	} else {
		k := 1.0
		for f(a-k*tau) < 0 {
			k *= 2.0
		}
		B = a - k*tau
	}

	fA, fB := f(A), f(B)
	for math.Abs(B-A) > eps {
		C := A + (A-B)*fA/(fB-fA)
		fC := f(C)
		if fC*fB <= 0 {
			A, fA = B, fB
		} else {
			// stale endpoint: halve to keep the bracket shrinking
			fA /= 2.0
		}
		B, fB = C, fC
	}
	return A
}
