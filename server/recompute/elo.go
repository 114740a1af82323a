package recompute

import (
	"fmt"
	"io"
	"sort"

	"cfb-ratings/server/rating"
)

// EloEngine replays matches one at a time in chronological order.
type EloEngine struct {
	Params        rating.EloParams
	DefaultRating float64
	Decay         float64 // share of a rating carried into the next season
	Out           io.Writer

	// Name renders a team for progress lines; defaults to the numeric id.
	Name func(teamID int64) string
}

func NewEloEngine(decay float64) *EloEngine {
	return &EloEngine{
		Params:        rating.DefaultEloParams(),
		DefaultRating: rating.EloDefaultRating,
		Decay:         decay,
	}
}

type EloResult struct {
	Snapshots []EloSnapshot
	Ratings   map[int64]float64
	Skipped   int
}

// Teams returns the ids with a final rating, ascending.
func (r *EloResult) Teams() []int64 {
	ids := make([]int64, 0, len(r.Ratings))
	for id := range r.Ratings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Run computes Elo snapshots for every completed, scored match. The input is
// copied and sorted; configuration errors are returned before any work.
func (e *EloEngine) Run(matches []Match) (*EloResult, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	out := e.Out
	if out == nil {
		out = io.Discard
	}
	name := e.Name
	if name == nil {
		name = func(id int64) string { return fmt.Sprintf("team %d", id) }
	}

	ms := append([]Match(nil), matches...)
	SortMatches(ms)

	res := &EloResult{Ratings: make(map[int64]float64)}
	season, started := 0, false
	for _, m := range ms {
		if !ratable(m) {
			res.Skipped++
			continue
		}
		if started && m.Season != season {
			for id, r := range res.Ratings {
				res.Ratings[id] = rating.DecayToward(r, e.DefaultRating, e.Decay)
			}
		}
		season, started = m.Season, true

		homeBefore := e.current(res.Ratings, m.HomeTeamID)
		awayBefore := e.current(res.Ratings, m.AwayTeamID)
		homeAfter, awayAfter := e.Params.Update(homeBefore, awayBefore, *m.HomeScore, *m.AwayScore, m.NeutralSite)

		fmt.Fprintf(out, "%s: %.2f -> %.2f, %s: %.2f -> %.2f\n",
			name(m.HomeTeamID), homeBefore, homeAfter,
			name(m.AwayTeamID), awayBefore, awayAfter)

		res.Snapshots = append(res.Snapshots,
			EloSnapshot{TeamID: m.HomeTeamID, MatchID: m.ID, Season: m.Season, Week: m.Week, RatingBefore: homeBefore, RatingAfter: homeAfter},
			EloSnapshot{TeamID: m.AwayTeamID, MatchID: m.ID, Season: m.Season, Week: m.Week, RatingBefore: awayBefore, RatingAfter: awayAfter},
		)
		res.Ratings[m.HomeTeamID] = homeAfter
		res.Ratings[m.AwayTeamID] = awayAfter
	}
	return res, nil
}

func (e *EloEngine) Validate() error {
	if err := rating.ValidateDecay(e.Decay); err != nil {
		return err
	}
	return e.Params.Validate()
}

func (e *EloEngine) current(ratings map[int64]float64, id int64) float64 {
	if r, ok := ratings[id]; ok {
		return r
	}
	return e.DefaultRating
}
