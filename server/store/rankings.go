package store

import (
	"context"
	"sort"

	"cfb-ratings/server/rating"

	"github.com/jackc/pgx/v5"
)

type Team struct {
	ID             int64   `json:"id"`
	School         string  `json:"school"`
	Mascot         *string `json:"mascot"`
	Abbreviation   *string `json:"abbreviation"`
	Conference     *string `json:"conference"`
	Classification string  `json:"classification"`
	Active         bool    `json:"active"`
}

// RankingFilter selects one week of Glicko rankings. An empty Division
// means every classification.
type RankingFilter struct {
	Season     int
	Week       int
	Division   rating.Division
	ActiveOnly bool
}

type GlickoRanking struct {
	Rank           int     `json:"rank"`
	TeamID         int64   `json:"team_id"`
	School         string  `json:"school"`
	Abbreviation   *string `json:"abbreviation"`
	Conference     *string `json:"conference"`
	Classification string  `json:"classification"`
	Active         bool    `json:"active"`
	Rating         float64 `json:"rating"`
	RD             float64 `json:"rd"`
	Vol            float64 `json:"vol"`
	RatingChange   float64 `json:"rating_change"`
}

type GlickoPoint struct {
	Season         int     `json:"season"`
	Week           int     `json:"week"`
	Classification string  `json:"classification"`
	PreviousRating float64 `json:"previous_rating"`
	Rating         float64 `json:"rating"`
	RD             float64 `json:"rd"`
	Vol            float64 `json:"vol"`
	RatingChange   float64 `json:"rating_change"`
}

type EloPoint struct {
	MatchID      int64   `json:"match_id"`
	Season       int     `json:"season"`
	Week         int     `json:"week"`
	OpponentID   int64   `json:"opponent_id"`
	Opponent     string  `json:"opponent"`
	RatingBefore float64 `json:"rating_before"`
	RatingAfter  float64 `json:"rating_after"`
	RatingChange float64 `json:"rating_change"`
}

type EloStanding struct {
	Rank    int     `json:"rank"`
	TeamID  int64   `json:"team_id"`
	School  string  `json:"school"`
	Rating  float64 `json:"rating"`
	MatchID int64   `json:"last_match_id"`
	Season  int     `json:"season"`
	Week    int     `json:"week"`
}

// GlickoSeasons lists seasons with Glicko snapshots, ascending.
func (db *DB) GlickoSeasons(ctx context.Context, div rating.Division) ([]int, error) {
	rows, err := db.Query(ctx, `
		SELECT DISTINCT season FROM glicko_ratings
		 WHERE ($1::text = '' OR classification = $1)
		 ORDER BY season
	`, string(div))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (db *DB) GlickoWeeks(ctx context.Context, div rating.Division, season int) ([]int, error) {
	rows, err := db.Query(ctx, `
		SELECT DISTINCT week FROM glicko_ratings
		 WHERE season = $1 AND ($2::text = '' OR classification = $2)
		 ORDER BY week
	`, season, string(div))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

// GlickoRankings returns one week ordered by rating, best first.
func (db *DB) GlickoRankings(ctx context.Context, f RankingFilter) ([]GlickoRanking, error) {
	rows, err := db.Query(ctx, `
		SELECT t.id, t.school, t.abbreviation, t.conference, g.classification, t.active,
		       g.rating, g.rd, g.vol, g.rating_change
		  FROM glicko_ratings g
		  JOIN teams t ON t.id = g.team_id
		 WHERE g.season = $1 AND g.week = $2
		   AND ($3::text = '' OR g.classification = $3)
		   AND (NOT $4::bool OR t.active)
		 ORDER BY g.rating DESC, t.school
	`, f.Season, f.Week, string(f.Division), f.ActiveOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GlickoRanking
	for rows.Next() {
		var r GlickoRanking
		if err := rows.Scan(&r.TeamID, &r.School, &r.Abbreviation, &r.Conference, &r.Classification, &r.Active,
			&r.Rating, &r.RD, &r.Vol, &r.RatingChange); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	numberGlicko(out)
	return out, nil
}

// Team returns pgx.ErrNoRows for an unknown id.
func (db *DB) Team(ctx context.Context, id int64) (Team, error) {
	var t Team
	err := db.QueryRow(ctx, `
		SELECT id, school, mascot, abbreviation, conference, COALESCE(classification, ''), active
		  FROM teams WHERE id = $1
	`, id).Scan(&t.ID, &t.School, &t.Mascot, &t.Abbreviation, &t.Conference, &t.Classification, &t.Active)
	return t, err
}

func (db *DB) TeamGlickoHistory(ctx context.Context, teamID int64) ([]GlickoPoint, error) {
	rows, err := db.Query(ctx, `
		SELECT season, week, classification, previous_rating, rating, rd, vol, rating_change
		  FROM glicko_ratings
		 WHERE team_id = $1
		 ORDER BY season, week
	`, teamID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[GlickoPoint])
}

func (db *DB) TeamEloHistory(ctx context.Context, teamID int64) ([]EloPoint, error) {
	rows, err := db.Query(ctx, `
		SELECT m.id, m.season, m.week,
		       CASE WHEN m.home_team_id = $1 THEN m.away_team_id ELSE m.home_team_id END AS opp_id,
		       o.school,
		       e.rating_before, e.rating_after, e.rating_change
		  FROM elo_ratings e
		  JOIN matches m ON m.id = e.match_id
		  JOIN teams o ON o.id = CASE WHEN m.home_team_id = $1 THEN m.away_team_id ELSE m.home_team_id END
		 WHERE e.team_id = $1
		 ORDER BY m.season, m.week, m.start_date, m.id
	`, teamID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[EloPoint])
}

// LatestEloRatings returns each team's rating after its most recent match.
func (db *DB) LatestEloRatings(ctx context.Context) ([]EloStanding, error) {
	rows, err := db.Query(ctx, `
		SELECT DISTINCT ON (e.team_id)
		       e.team_id, t.school, e.rating_after, m.id, m.season, m.week
		  FROM elo_ratings e
		  JOIN matches m ON m.id = e.match_id
		  JOIN teams t ON t.id = e.team_id
		 ORDER BY e.team_id, m.season DESC, m.week DESC, m.start_date DESC, m.id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EloStanding
	for rows.Next() {
		var s EloStanding
		if err := rows.Scan(&s.TeamID, &s.School, &s.Rating, &s.MatchID, &s.Season, &s.Week); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortElo(out)
	return out, nil
}

// numberGlicko assigns competition ranks (1, 2, 2, 4) to rows already
// ordered by rating.
func numberGlicko(rs []GlickoRanking) {
	for i := range rs {
		if i > 0 && rs[i].Rating == rs[i-1].Rating {
			rs[i].Rank = rs[i-1].Rank
			continue
		}
		rs[i].Rank = i + 1
	}
}

func sortElo(ss []EloStanding) {
	sort.SliceStable(ss, func(i, j int) bool {
		if ss[i].Rating != ss[j].Rating {
			return ss[i].Rating > ss[j].Rating
		}
		return ss[i].School < ss[j].School
	})
	for i := range ss {
		if i > 0 && ss[i].Rating == ss[i-1].Rating {
			ss[i].Rank = ss[i-1].Rank
			continue
		}
		ss[i].Rank = i + 1
	}
}
