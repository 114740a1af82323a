package recompute

import (
	"sort"

	"cfb-ratings/server/rating"
)

// Ratings is the in-memory Glicko-2 state for one run, keyed by team id.
type Ratings struct {
	players  map[int64]*rating.Player
	division map[int64]rating.Division
	tau      float64
	tol      float64
}

func NewRatings(tau, tolerance float64) *Ratings {
	return &Ratings{
		players:  make(map[int64]*rating.Player),
		division: make(map[int64]rating.Division),
		tau:      tau,
		tol:      tolerance,
	}
}

// GetOrCreate returns the team's player, seeding it from the division prior
// on first sight. The latest known division is remembered for snapshots.
func (r *Ratings) GetOrCreate(teamID int64, div rating.Division) *rating.Player {
	if div.Valid() {
		r.division[teamID] = div
	}
	if p, ok := r.players[teamID]; ok {
		return p
	}
	base, rd := div.Prior()
	p := rating.NewPlayerWith(base, rd, rating.DefaultVolatility, r.tau)
	p.Tolerance = r.tol
	r.players[teamID] = p
	return p
}

func (r *Ratings) Get(teamID int64) (*rating.Player, bool) {
	p, ok := r.players[teamID]
	return p, ok
}

func (r *Ratings) Division(teamID int64) rating.Division { return r.division[teamID] }

func (r *Ratings) Len() int { return len(r.players) }

// IDs returns every known team id in ascending order.
func (r *Ratings) IDs() []int64 {
	ids := make([]int64, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
