package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"cfb-ratings/server/rating"
	"cfb-ratings/server/store"

	"github.com/jackc/pgx/v5"
)

type fakeRow struct {
	season, week int
	div          rating.Division
	active       bool
	teamID       int64
	rating       float64
}

type fakeSource struct {
	pingErr error
	rows    []fakeRow
	teams   map[int64]store.Team
	elo     []store.EloStanding
	lastF   store.RankingFilter
}

func (f *fakeSource) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeSource) match(div rating.Division, r fakeRow) bool {
	return div == rating.DivisionUnknown || r.div == div
}

func distinct(m map[int]bool) []int {
	var out []int
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func (f *fakeSource) GlickoSeasons(ctx context.Context, div rating.Division) ([]int, error) {
	seen := map[int]bool{}
	for _, r := range f.rows {
		if f.match(div, r) {
			seen[r.season] = true
		}
	}
	return distinct(seen), nil
}

func (f *fakeSource) GlickoWeeks(ctx context.Context, div rating.Division, season int) ([]int, error) {
	seen := map[int]bool{}
	for _, r := range f.rows {
		if f.match(div, r) && r.season == season {
			seen[r.week] = true
		}
	}
	return distinct(seen), nil
}

func (f *fakeSource) GlickoRankings(ctx context.Context, flt store.RankingFilter) ([]store.GlickoRanking, error) {
	f.lastF = flt
	var out []store.GlickoRanking
	for _, r := range f.rows {
		if r.season != flt.Season || r.week != flt.Week || !f.match(flt.Division, r) {
			continue
		}
		if flt.ActiveOnly && !r.active {
			continue
		}
		out = append(out, store.GlickoRanking{TeamID: r.teamID, Classification: string(r.div), Active: r.active, Rating: r.rating})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

func (f *fakeSource) Team(ctx context.Context, id int64) (store.Team, error) {
	t, ok := f.teams[id]
	if !ok {
		return store.Team{}, pgx.ErrNoRows
	}
	return t, nil
}

func (f *fakeSource) TeamGlickoHistory(ctx context.Context, id int64) ([]store.GlickoPoint, error) {
	return []store.GlickoPoint{{Season: 2024, Week: 1, Rating: 1550}}, nil
}

func (f *fakeSource) TeamEloHistory(ctx context.Context, id int64) ([]store.EloPoint, error) {
	return nil, nil
}

func (f *fakeSource) LatestEloRatings(ctx context.Context) ([]store.EloStanding, error) {
	return f.elo, nil
}

func newFake() *fakeSource {
	return &fakeSource{
		rows: []fakeRow{
			{2023, 14, rating.DivisionFBS, true, 1, 1700},
			{2024, 1, rating.DivisionFBS, true, 1, 1650},
			{2024, 1, rating.DivisionFBS, false, 2, 1600},
			{2024, 1, rating.DivisionFCS, true, 3, 1400},
			{2024, 2, rating.DivisionFBS, true, 1, 1660},
		},
		teams: map[int64]store.Team{1: {ID: 1, School: "Georgia"}},
	}
}

func get(t *testing.T, h http.Handler, path string, dst any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if dst != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
			t.Fatalf("%s: decode: %v\n%s", path, err, rec.Body.String())
		}
	}
	return rec.Code
}

func TestHealth(t *testing.T) {
	src := newFake()
	var body map[string]any
	if code := get(t, Router(src), "/api/health", &body); code != http.StatusOK || body["ok"] != true {
		t.Fatalf("health: %d %v", code, body)
	}
	src.pingErr = errors.New("db down")
	if code := get(t, Router(src), "/api/health", nil); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
}

func TestRankingsDefaultsToLatest(t *testing.T) {
	var p rankingsPayload
	if code := get(t, Router(newFake()), "/api/rankings", &p); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if p.Season == nil || *p.Season != 2024 || p.Week == nil || *p.Week != 2 {
		t.Fatalf("latest season/week not chosen: %+v", p)
	}
	if len(p.Rankings) != 1 || p.Title != "Rankings" {
		t.Fatalf("unexpected payload: %+v", p)
	}
}

func TestRankingsFilters(t *testing.T) {
	src := newFake()
	h := Router(src)

	var p rankingsPayload
	get(t, h, "/api/rankings?season=2024&week=1&classification=FBS", &p)
	if len(p.Rankings) != 2 || p.Rankings[0].TeamID != 1 || p.Title != "FBS Rankings" {
		t.Fatalf("fbs week 1: %+v", p)
	}

	p = rankingsPayload{}
	get(t, h, "/api/rankings/fbs?season=2024&week=1&active=true", &p)
	if len(p.Rankings) != 1 || !src.lastF.ActiveOnly {
		t.Fatalf("active filter: %+v", p)
	}

	// unknown season falls back to latest
	p = rankingsPayload{}
	get(t, h, "/api/rankings?season=1999&week=7", &p)
	if *p.Season != 2024 || *p.Week != 2 {
		t.Fatalf("fallback: season %v week %v", *p.Season, *p.Week)
	}

	p = rankingsPayload{}
	get(t, h, "/api/rankings?classification=fcs", &p)
	if len(p.Seasons) != 1 || *p.Week != 1 || len(p.Rankings) != 1 {
		t.Fatalf("fcs: %+v", p)
	}
}

func TestRankingsUnknownClassification(t *testing.T) {
	h := Router(newFake())
	for _, path := range []string{"/api/rankings?classification=nfl", "/api/rankings/nfl", "/api/rankings/seasons?classification=xfl"} {
		if code := get(t, h, path, nil); code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, code)
		}
	}
}

func TestRankingsEmpty(t *testing.T) {
	var p rankingsPayload
	if code := get(t, Router(&fakeSource{}), "/api/rankings", &p); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if p.Season != nil || p.Week != nil || p.Rankings == nil || len(p.Rankings) != 0 {
		t.Fatalf("empty payload: %+v", p)
	}
}

func TestRankingSeasons(t *testing.T) {
	var body struct {
		Seasons []int `json:"seasons"`
	}
	get(t, Router(newFake()), "/api/rankings/seasons", &body)
	if len(body.Seasons) != 2 || body.Seasons[0] != 2023 {
		t.Fatalf("seasons: %v", body.Seasons)
	}
}

func TestTeamRoutes(t *testing.T) {
	h := Router(newFake())
	var body struct {
		Team    store.Team          `json:"team"`
		History []store.GlickoPoint `json:"history"`
	}
	if code := get(t, h, "/api/teams/1/glicko", &body); code != http.StatusOK || body.Team.School != "Georgia" || len(body.History) != 1 {
		t.Fatalf("glicko history: %d %+v", code, body)
	}

	var elo struct {
		History []store.EloPoint `json:"history"`
	}
	if code := get(t, h, "/api/teams/1/elo", &elo); code != http.StatusOK || elo.History == nil {
		t.Fatalf("elo history should be an empty list: %d %+v", code, elo)
	}

	if code := get(t, h, "/api/teams/99/glicko", nil); code != http.StatusNotFound {
		t.Fatalf("unknown team: %d", code)
	}
	if code := get(t, h, "/api/teams/abc/elo", nil); code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", code)
	}
}

func TestLatestElo(t *testing.T) {
	src := newFake()
	src.elo = []store.EloStanding{{Rank: 1, TeamID: 1, School: "Georgia", Rating: 1612.5}}
	var body struct {
		Rows []store.EloStanding `json:"rows"`
	}
	if code := get(t, Router(src), "/api/elo", &body); code != http.StatusOK || len(body.Rows) != 1 || body.Rows[0].Rating != 1612.5 {
		t.Fatalf("elo: %d %+v", code, body)
	}
}
