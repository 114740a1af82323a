package store

import (
	"context"
	"embed"
	"fmt"
	"sort"

	"cfb-ratings/server/rating"
	"cfb-ratings/server/recompute"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema embed.FS

type DB struct{ *pgxpool.Pool }

func Open(dsn string) (*DB, error) {
	p, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close(ctx context.Context)      { db.Pool.Close() }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

/* -----------------------------
   Match feed
------------------------------*/

// Seasons lists every season with at least one match, completed or not.
func (db *DB) Seasons(ctx context.Context) ([]int, error) {
	rows, err := db.Query(ctx, `SELECT DISTINCT season FROM matches ORDER BY season`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (db *DB) CompletedMatches(ctx context.Context) ([]recompute.Match, error) {
	rows, err := db.Query(ctx, `
		SELECT id, season, week, start_date, completed, neutral_site,
		       home_team_id, COALESCE(home_classification, ''), home_score,
		       away_team_id, COALESCE(away_classification, ''), away_score
		  FROM matches
		 WHERE completed
		 ORDER BY season, week, start_date, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []recompute.Match
	for rows.Next() {
		var m recompute.Match
		var homeDiv, awayDiv string
		if err := rows.Scan(
			&m.ID, &m.Season, &m.Week, &m.Start, &m.Completed, &m.NeutralSite,
			&m.HomeTeamID, &homeDiv, &m.HomeScore,
			&m.AwayTeamID, &awayDiv, &m.AwayScore,
		); err != nil {
			return nil, err
		}
		m.HomeDivision = rating.ParseDivision(homeDiv)
		m.AwayDivision = rating.ParseDivision(awayDiv)
		out = append(out, m)
	}
	return out, rows.Err()
}

// TeamNames maps team id to school for progress output.
func (db *DB) TeamNames(ctx context.Context) (map[int64]string, error) {
	rows, err := db.Query(ctx, `SELECT id, school FROM teams`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]string)
	for rows.Next() {
		var id int64
		var school string
		if err := rows.Scan(&id, &school); err != nil {
			return nil, err
		}
		out[id] = school
	}
	return out, rows.Err()
}

/* -----------------------------
   Snapshot replacement
------------------------------*/

// ReplaceEloRatings swaps the whole Elo history for snaps in one transaction.
func (db *DB) ReplaceEloRatings(ctx context.Context, run recompute.RunInfo, snaps []recompute.EloSnapshot) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // safe if already committed

	if _, err := tx.Exec(ctx, `DELETE FROM elo_ratings`); err != nil {
		return fmt.Errorf("clear elo_ratings: %w", err)
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"elo_ratings"},
		[]string{"team_id", "match_id", "rating_before", "rating_after"},
		pgx.CopyFromSlice(len(snaps), func(i int) ([]any, error) {
			s := snaps[i]
			return []any{s.TeamID, s.MatchID, s.RatingBefore, s.RatingAfter}, nil
		}),
	); err != nil {
		return fmt.Errorf("copy elo_ratings: %w", err)
	}
	if err := insertRun(ctx, tx, run, len(snaps)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ReplaceGlickoRatings swaps the whole Glicko history and refreshes the
// activity flag of every team present in active.
func (db *DB) ReplaceGlickoRatings(ctx context.Context, run recompute.RunInfo, snaps []recompute.GlickoSnapshot, active map[int64]bool) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM glicko_ratings`); err != nil {
		return fmt.Errorf("clear glicko_ratings: %w", err)
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"glicko_ratings"},
		[]string{
			"team_id", "season", "week", "classification",
			"previous_rating", "previous_rd", "previous_vol",
			"rating", "rd", "vol",
		},
		pgx.CopyFromSlice(len(snaps), func(i int) ([]any, error) {
			s := snaps[i]
			return []any{
				s.TeamID, s.Season, s.Week, string(s.Division),
				s.PreviousRating, s.PreviousRD, s.PreviousVol,
				s.Rating, s.RD, s.Vol,
			}, nil
		}),
	); err != nil {
		return fmt.Errorf("copy glicko_ratings: %w", err)
	}

	ids, flags := activityArrays(active)
	if len(ids) > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE teams
			   SET active = v.active
			  FROM unnest($1::bigint[], $2::bool[]) AS v(id, active)
			 WHERE teams.id = v.id
		`, ids, flags); err != nil {
			return fmt.Errorf("update team activity: %w", err)
		}
	}
	if err := insertRun(ctx, tx, run, len(snaps)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertRun(ctx context.Context, tx pgx.Tx, run recompute.RunInfo, snapshots int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO rating_runs(id, kind, started_at, finished_at, snapshots, teams)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, run.ID, string(run.Kind), run.StartedAt, run.FinishedAt, snapshots, run.Teams)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// activityArrays flattens the flag map into parallel arrays ordered by id.
func activityArrays(active map[int64]bool) ([]int64, []bool) {
	ids := make([]int64, 0, len(active))
	for id := range active {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	flags := make([]bool, len(ids))
	for i, id := range ids {
		flags[i] = active[id]
	}
	return ids, flags
}
