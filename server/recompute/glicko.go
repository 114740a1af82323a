package recompute

import (
	"fmt"
	"io"
	"math"
	"sort"

	"cfb-ratings/server/rating"
)

const (
	// margin cap = capFactor * previous season's average margin
	capFactor  = 1.5
	defaultCap = 1.5
)

// SeasonParams are derived once per season from the season before it.
type SeasonParams struct {
	HomeFieldBonus  float64
	MarginWeightCap float64
}

// DeriveSeasonParams computes the home-field bonus and margin cap from the
// previous season's completed matches. prevAvg is the mean snapshot rating of
// that season; ok is false when there is none.
func DeriveSeasonParams(prev []Match, prevAvg float64, ok bool) SeasonParams {
	var nonNeutral, homeWins, scored, marginSum int
	for _, m := range prev {
		if !ratable(m) {
			continue
		}
		scored++
		marginSum += m.Margin()
		if m.NeutralSite {
			continue
		}
		nonNeutral++
		if *m.HomeScore > *m.AwayScore {
			homeWins++
		}
	}

	p := SeasonParams{MarginWeightCap: defaultCap}
	if nonNeutral > 0 && ok {
		p.HomeFieldBonus = (float64(homeWins)/float64(nonNeutral) - 0.5) * prevAvg
	}
	if scored > 0 && marginSum > 0 {
		p.MarginWeightCap = capFactor * float64(marginSum) / float64(scored)
	}
	return p
}

// WeightOutcome pulls a raw 1/0.5/0 outcome toward 0.5 for close games.
// logMargin is capped at logCap; a zero cap leaves the outcome alone.
func WeightOutcome(raw, logMargin, logCap float64) float64 {
	if logCap <= 0 {
		return raw
	}
	return 0.5 + (raw-0.5)*math.Min(logMargin, logCap)/logCap
}

// GlickoEngine batches matches into weekly rating periods, season by season.
type GlickoEngine struct {
	Tau       float64
	Tolerance float64
	Out       io.Writer
}

func NewGlickoEngine() *GlickoEngine {
	return &GlickoEngine{Tau: rating.DefaultTau, Tolerance: rating.ConvergenceTolerance}
}

type GlickoResult struct {
	Snapshots []GlickoSnapshot
	Active    map[int64]bool
	Params    map[int]SeasonParams
	Teams     int
}

type opponent struct {
	rating, rd, logMargin, outcome float64
}

// seasonAverage accumulates snapshot ratings per season for the next
// season's home-field bonus.
type seasonAverage struct{ sum, n float64 }

// Run processes seasons in ascending order. matches may contain incomplete
// games; only completed, scored ones are rated.
func (e *GlickoEngine) Run(seasons []int, matches []Match) *GlickoResult {
	out := e.Out
	if out == nil {
		out = io.Discard
	}

	bySeason := make(map[int][]Match)
	for _, m := range matches {
		if ratable(m) {
			bySeason[m.Season] = append(bySeason[m.Season], m)
		}
	}
	ss := append([]int(nil), seasons...)
	sort.Ints(ss)

	ratings := NewRatings(e.Tau, e.Tolerance)
	activity := NewActivity()
	averages := make(map[int]*seasonAverage)
	res := &GlickoResult{Params: make(map[int]SeasonParams)}

	for i, season := range ss {
		if i > 0 && ss[i-1] == season {
			continue
		}
		ms := bySeason[season]
		if len(ms) == 0 {
			fmt.Fprintf(out, "No matches found for season %d. Skipping...\n", season)
			continue
		}

		prevAvg, ok := 0.0, false
		if a := averages[season-1]; a != nil && a.n > 0 {
			prevAvg, ok = a.sum/a.n, true
		}
		params := DeriveSeasonParams(bySeason[season-1], prevAvg, ok)
		res.Params[season] = params

		SortMatches(ms)
		weeks := groupWeeks(ms)
		fmt.Fprintf(out, "Processing season %d... %d matches found across %d weeks.\n", season, len(ms), len(weeks))

		avg := &seasonAverage{}
		averages[season] = avg
		played := make(map[int64]struct{})
		for _, wk := range weeks {
			fmt.Fprintf(out, "  Processing week %d... %d matches found.\n", wk[0].Week, len(wk))
			snaps := e.processWeek(ratings, wk, params, played)
			for _, s := range snaps {
				avg.sum += s.Rating
				avg.n++
			}
			res.Snapshots = append(res.Snapshots, snaps...)
		}
		activity.MarkSeason(played, ratings.IDs())
	}

	res.Active = activity.Flags()
	res.Teams = ratings.Len()
	return res
}

// groupWeeks splits sorted matches into per-week slices, ascending.
func groupWeeks(ms []Match) [][]Match {
	var weeks [][]Match
	for i := 0; i < len(ms); {
		j := i
		for j < len(ms) && ms[j].Week == ms[i].Week {
			j++
		}
		weeks = append(weeks, ms[i:j])
		i = j
	}
	return weeks
}

func (e *GlickoEngine) processWeek(ratings *Ratings, week []Match, params SeasonParams, played map[int64]struct{}) []GlickoSnapshot {
	results := make(map[int64][]opponent)
	for _, m := range week {
		home := ratings.GetOrCreate(m.HomeTeamID, m.HomeDivision)
		away := ratings.GetOrCreate(m.AwayTeamID, m.AwayDivision)
		played[m.HomeTeamID] = struct{}{}
		played[m.AwayTeamID] = struct{}{}

		homeOutcome := m.HomeOutcome()
		logMargin := math.Log(float64(m.Margin()) + 1)

		homeRating, awayRating := home.Rating, away.Rating
		if !m.NeutralSite {
			homeRating += params.HomeFieldBonus / 2
			awayRating -= params.HomeFieldBonus / 2
		}
		results[m.HomeTeamID] = append(results[m.HomeTeamID], opponent{awayRating, away.RD, logMargin, homeOutcome})
		results[m.AwayTeamID] = append(results[m.AwayTeamID], opponent{homeRating, home.RD, logMargin, 1 - homeOutcome})
	}

	logCap := math.Log(params.MarginWeightCap + 1)
	ids := ratings.IDs()
	snaps := make([]GlickoSnapshot, 0, len(ids))
	for _, id := range ids {
		p, _ := ratings.Get(id)
		snap := GlickoSnapshot{
			TeamID:         id,
			Season:         week[0].Season,
			Week:           week[0].Week,
			Division:       ratings.Division(id),
			PreviousRating: p.Rating,
			PreviousRD:     p.RD,
			PreviousVol:    p.Vol,
		}

		if opps := results[id]; len(opps) > 0 {
			rs := make([]float64, len(opps))
			rds := make([]float64, len(opps))
			outcomes := make([]float64, len(opps))
			for i, o := range opps {
				rs[i], rds[i] = o.rating, o.rd
				outcomes[i] = WeightOutcome(o.outcome, o.logMargin, logCap)
			}
			p.Update(rs, rds, outcomes)
		} else {
			p.DidNotCompete()
		}

		snap.Rating, snap.RD, snap.Vol = p.Rating, p.RD, p.Vol
		snaps = append(snaps, snap)
	}
	return snaps
}
