package recompute

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Runner wires a feed and a sink around the engines. A run reads the whole
// history, computes in memory, then hands the sink one complete result.
type Runner struct {
	Feed Feed
	Sink Sink
}

func (r *Runner) RecomputeElo(ctx context.Context, e *EloEngine) (RunInfo, error) {
	run := newRun(KindElo)
	if err := e.Validate(); err != nil {
		return run, err
	}
	matches, err := r.Feed.CompletedMatches(ctx)
	if err != nil {
		return run, fmt.Errorf("load matches: %w", err)
	}
	res, err := e.Run(matches)
	if err != nil {
		return run, err
	}
	if res.Skipped > 0 {
		log.Printf("elo run %s: skipped %d matches without scores", run.ID, res.Skipped)
	}
	run.Teams = len(res.Ratings)
	run.FinishedAt = time.Now().UTC()
	if err := r.Sink.ReplaceEloRatings(ctx, run, res.Snapshots); err != nil {
		return run, fmt.Errorf("store elo ratings: %w", err)
	}
	log.Printf("elo run %s: %d snapshots for %d teams", run.ID, len(res.Snapshots), run.Teams)
	return run, nil
}

func (r *Runner) RecomputeGlicko(ctx context.Context, e *GlickoEngine) (RunInfo, error) {
	run := newRun(KindGlicko)
	seasons, err := r.Feed.Seasons(ctx)
	if err != nil {
		return run, fmt.Errorf("load seasons: %w", err)
	}
	matches, err := r.Feed.CompletedMatches(ctx)
	if err != nil {
		return run, fmt.Errorf("load matches: %w", err)
	}
	res := e.Run(seasons, matches)
	run.Teams = res.Teams
	run.FinishedAt = time.Now().UTC()
	if err := r.Sink.ReplaceGlickoRatings(ctx, run, res.Snapshots, res.Active); err != nil {
		return run, fmt.Errorf("store glicko ratings: %w", err)
	}
	log.Printf("glicko run %s: %d snapshots for %d teams across %d seasons", run.ID, len(res.Snapshots), run.Teams, len(res.Params))
	return run, nil
}
