// Package recompute turns the completed match history into Elo and Glicko-2
// rating snapshots. Every run starts from scratch: nothing here reads prior
// ratings back from storage.
package recompute

import (
	"context"
	"sort"
	"time"

	"cfb-ratings/server/rating"
)

// Match is one game as read from the match feed.
type Match struct {
	ID           int64
	Season       int
	Week         int
	Start        time.Time
	Completed    bool
	NeutralSite  bool
	HomeTeamID   int64
	AwayTeamID   int64
	HomeScore    *int
	AwayScore    *int
	HomeDivision rating.Division
	AwayDivision rating.Division
}

// Scored reports whether both scores are present.
func (m Match) Scored() bool { return m.HomeScore != nil && m.AwayScore != nil }

// Margin is |home - away|. Zero for unscored matches.
func (m Match) Margin() int {
	if !m.Scored() {
		return 0
	}
	d := *m.HomeScore - *m.AwayScore
	if d < 0 {
		return -d
	}
	return d
}

// HomeOutcome is 1/0.5/0 for a home win/tie/loss.
func (m Match) HomeOutcome() float64 {
	switch {
	case *m.HomeScore > *m.AwayScore:
		return 1
	case *m.HomeScore < *m.AwayScore:
		return 0
	}
	return 0.5
}

// Feed supplies the match history. CompletedMatches must only return
// completed matches; Seasons lists every season that has any match at all.
type Feed interface {
	Seasons(ctx context.Context) ([]int, error)
	CompletedMatches(ctx context.Context) ([]Match, error)
}

// SortMatches orders matches by season, week, start time, then id.
func SortMatches(ms []Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.ID < b.ID
	})
}

func ratable(m Match) bool { return m.Completed && m.Scored() }
