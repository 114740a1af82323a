package recompute

import (
	"context"
	"time"

	"cfb-ratings/server/rating"

	"github.com/google/uuid"
)

// EloSnapshot is one team's rating before and after one match.
type EloSnapshot struct {
	TeamID       int64
	MatchID      int64
	Season       int
	Week         int
	RatingBefore float64
	RatingAfter  float64
}

func (s EloSnapshot) RatingChange() float64 { return s.RatingAfter - s.RatingBefore }

// GlickoSnapshot is one team's state at the end of a season+week.
type GlickoSnapshot struct {
	TeamID         int64
	Season         int
	Week           int
	Division       rating.Division
	PreviousRating float64
	PreviousRD     float64
	PreviousVol    float64
	Rating         float64
	RD             float64
	Vol            float64
}

func (s GlickoSnapshot) RatingChange() float64 { return s.Rating - s.PreviousRating }

type Kind string

const (
	KindElo    Kind = "elo"
	KindGlicko Kind = "glicko"
)

// RunInfo identifies one recompute for the run log.
type RunInfo struct {
	ID         uuid.UUID
	Kind       Kind
	StartedAt  time.Time
	FinishedAt time.Time
	Teams      int
}

func newRun(kind Kind) RunInfo {
	return RunInfo{ID: uuid.New(), Kind: kind, StartedAt: time.Now().UTC()}
}

// Sink persists a full replacement set of snapshots. Implementations must
// swap the old set for the new one atomically.
type Sink interface {
	ReplaceEloRatings(ctx context.Context, run RunInfo, snaps []EloSnapshot) error
	ReplaceGlickoRatings(ctx context.Context, run RunInfo, snaps []GlickoSnapshot, active map[int64]bool) error
}
