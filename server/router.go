// server/router.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"cfb-ratings/server/rating"
	"cfb-ratings/server/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"
)

// RankingSource is the read side of the store used by the API.
type RankingSource interface {
	Ping(ctx context.Context) error
	GlickoSeasons(ctx context.Context, div rating.Division) ([]int, error)
	GlickoWeeks(ctx context.Context, div rating.Division, season int) ([]int, error)
	GlickoRankings(ctx context.Context, f store.RankingFilter) ([]store.GlickoRanking, error)
	Team(ctx context.Context, id int64) (store.Team, error)
	TeamGlickoHistory(ctx context.Context, teamID int64) ([]store.GlickoPoint, error)
	TeamEloHistory(ctx context.Context, teamID int64) ([]store.EloPoint, error)
	LatestEloRatings(ctx context.Context) ([]store.EloStanding, error)
}

func Router(src RankingSource) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := withTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := src.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			writeJSON(w, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	})

	rankings := rankingsHandler(src)
	r.Get("/api/rankings", rankings)
	r.Get("/api/rankings/seasons", func(w http.ResponseWriter, r *http.Request) {
		div, ok := classification(r.URL.Query().Get("classification"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		seasons, err := src.GlickoSeasons(r.Context(), div)
		if err != nil {
			serverError(w, err)
			return
		}
		writeJSON(w, map[string]any{"classification": string(div), "seasons": nonNil(seasons)})
	})
	r.Get("/api/rankings/{classification}", rankings)

	r.Get("/api/teams/{id}/glicko", func(w http.ResponseWriter, r *http.Request) {
		team, ok := lookupTeam(w, r, src)
		if !ok {
			return
		}
		hist, err := src.TeamGlickoHistory(r.Context(), team.ID)
		if err != nil {
			serverError(w, err)
			return
		}
		writeJSON(w, map[string]any{"team": team, "history": nonNil(hist)})
	})

	r.Get("/api/teams/{id}/elo", func(w http.ResponseWriter, r *http.Request) {
		team, ok := lookupTeam(w, r, src)
		if !ok {
			return
		}
		hist, err := src.TeamEloHistory(r.Context(), team.ID)
		if err != nil {
			serverError(w, err)
			return
		}
		writeJSON(w, map[string]any{"team": team, "history": nonNil(hist)})
	})

	r.Get("/api/elo", func(w http.ResponseWriter, r *http.Request) {
		rows, err := src.LatestEloRatings(r.Context())
		if err != nil {
			serverError(w, err)
			return
		}
		writeJSON(w, map[string]any{"rows": nonNil(rows)})
	})

	return r
}

type rankingsPayload struct {
	Title               string                `json:"title"`
	Classification      string                `json:"classification"`
	ClassificationLabel string                `json:"classification_label,omitempty"`
	Season              *int                  `json:"season"`
	Week                *int                  `json:"week"`
	Seasons             []int                 `json:"seasons"`
	Weeks               []int                 `json:"weeks"`
	ActiveOnly          bool                  `json:"active_only"`
	Rankings            []store.GlickoRanking `json:"rankings"`
}

// rankingsHandler serves one week of Glicko rankings. Season and week fall
// back to the latest available when missing or not in the list.
func rankingsHandler(src RankingSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		q := r.URL.Query()

		raw := chi.URLParam(r, "classification")
		if raw == "" {
			raw = q.Get("classification")
		}
		div, ok := classification(raw)
		if !ok {
			http.NotFound(w, r)
			return
		}

		p := rankingsPayload{
			Title:          "Rankings",
			Classification: string(div),
			ActiveOnly:     asBool(q.Get("active")),
			Seasons:        []int{},
			Weeks:          []int{},
			Rankings:       []store.GlickoRanking{},
		}
		if div != rating.DivisionUnknown {
			p.ClassificationLabel = div.Label()
			p.Title = div.Label() + " Rankings"
		}

		seasons, err := src.GlickoSeasons(ctx, div)
		if err != nil {
			serverError(w, err)
			return
		}
		p.Seasons = nonNil(seasons)
		season, ok := pick(q.Get("season"), seasons)
		if !ok {
			writeJSON(w, p)
			return
		}
		p.Season = &season

		weeks, err := src.GlickoWeeks(ctx, div, season)
		if err != nil {
			serverError(w, err)
			return
		}
		p.Weeks = nonNil(weeks)
		week, ok := pick(q.Get("week"), weeks)
		if !ok {
			writeJSON(w, p)
			return
		}
		p.Week = &week

		rows, err := src.GlickoRankings(ctx, store.RankingFilter{
			Season:     season,
			Week:       week,
			Division:   div,
			ActiveOnly: p.ActiveOnly,
		})
		if err != nil {
			serverError(w, err)
			return
		}
		p.Rankings = nonNil(rows)
		writeJSON(w, p)
	}
}

// classification accepts "" (all) or a known division.
func classification(raw string) (rating.Division, bool) {
	if strings.TrimSpace(raw) == "" {
		return rating.DivisionUnknown, true
	}
	d := rating.ParseDivision(raw)
	return d, d.Valid()
}

// pick returns the requested value if it is one of the available ones,
// otherwise the last (latest) available. ok is false when none exist.
func pick(raw string, available []int) (int, bool) {
	if len(available) == 0 {
		return 0, false
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 0 && slices.Contains(available, n) {
		return n, true
	}
	return available[len(available)-1], true
}

func lookupTeam(w http.ResponseWriter, r *http.Request, src RankingSource) (store.Team, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "bad team id", http.StatusBadRequest)
		return store.Team{}, false
	}
	team, err := src.Team(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		http.Error(w, "team not found", http.StatusNotFound)
		return store.Team{}, false
	}
	if err != nil {
		serverError(w, err)
		return store.Team{}, false
	}
	return team, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func serverError(w http.ResponseWriter, err error) {
	log.Printf("api error: %v", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}
