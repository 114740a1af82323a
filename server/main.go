package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"cfb-ratings/server/config"
	"cfb-ratings/server/rating"
	"cfb-ratings/server/recompute"
	"cfb-ratings/server/store"
)

//
// ===== pretty printing =====
//

var useColor bool

const (
	colReset = "\033[0m"
	colBold  = "\033[1m"
	colDim   = "\033[2m"
	colGreen = "\033[32m"
	colRed   = "\033[31m"
)

func c(code, s string) string {
	if !useColor {
		return s
	}
	return code + s + colReset
}
func bold(s string) string { return c(colBold, s) }
func dim(s string) string  { return c(colDim, s) }
func good(s string) string { return c(colGreen, s) }
func bad(s string) string  { return c(colRed, s) }
func section(title string) { fmt.Printf("\n%s %s %s\n", dim("──"), bold(title), dim("──")) }

//
// ===== command line =====
//

type command int

const (
	cmdServe command = iota
	cmdMigrate
	cmdElo
	cmdGlicko
)

type options struct {
	cmd        command
	configPath string
	decay      *float64
}

// parseArgs understands --migrate, --elo [--decay=F], --glicko and
// --config=PATH. No command means serve.
func parseArgs(args []string) (options, error) {
	var o options
	set := func(c command) error {
		if o.cmd != cmdServe && o.cmd != c {
			return errors.New("--migrate, --elo and --glicko are mutually exclusive")
		}
		o.cmd = c
		return nil
	}
	for i := 0; i < len(args); i++ {
		a := args[i]
		var err error
		switch {
		case a == "--migrate":
			err = set(cmdMigrate)
		case a == "--elo":
			err = set(cmdElo)
		case a == "--glicko":
			err = set(cmdGlicko)
		case a == "--decay" || strings.HasPrefix(a, "--decay="):
			raw, ok := strings.CutPrefix(a, "--decay=")
			if !ok {
				if i+1 >= len(args) {
					return o, errors.New("--decay needs a value")
				}
				i++
				raw = args[i]
			}
			d, perr := strconv.ParseFloat(raw, 64)
			if perr != nil {
				return o, fmt.Errorf("--decay: %w", perr)
			}
			if verr := rating.ValidateDecay(d); verr != nil {
				return o, verr
			}
			o.decay = &d
		case strings.HasPrefix(a, "--config="):
			o.configPath = strings.TrimPrefix(a, "--config=")
		default:
			return o, fmt.Errorf("unknown argument %q", a)
		}
		if err != nil {
			return o, err
		}
	}
	if o.decay != nil && o.cmd != cmdElo {
		return o, errors.New("--decay only applies to --elo")
	}
	return o, nil
}

func asBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatal(err)
	}
	if opts.decay != nil {
		cfg.Elo.Decay = *opts.decay
	}
	// bad rating parameters exit before any storage is touched
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("Missing required env var DATABASE_URL (or CFB_DATABASE_URL). Put it in .env (dev) or set it on the host (prod).")
	}
	useColor = (os.Getenv("NO_COLOR") == "") && (strings.TrimSpace(os.Getenv("USE_COLOR")) != "0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchSignals(cancel)

	db, err := store.Open(cfg.Database.URL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close(context.Background())

	if opts.cmd == cmdMigrate || cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx, db); err != nil {
			log.Fatal(err)
		}
		log.Println("migrated")
		if opts.cmd == cmdMigrate {
			return
		}
	}

	runner := &recompute.Runner{Feed: db, Sink: db}
	switch opts.cmd {
	case cmdElo:
		if err := runElo(ctx, runner, db, cfg, os.Stdout); err != nil {
			log.Fatalf("%s %v", bad("elo recompute failed:"), err)
		}
		return
	case cmdGlicko:
		if err := runGlicko(ctx, runner, cfg, os.Stdout); err != nil {
			log.Fatalf("%s %v", bad("glicko recompute failed:"), err)
		}
		return
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      Router(db),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	go func() {
		<-ctx.Done()
		shutCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutCtx)
	}()
	log.Printf("listening on %s (Ctrl+C to stop)", cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func runElo(ctx context.Context, r *recompute.Runner, db *store.DB, cfg *config.Config, out io.Writer) error {
	names, err := db.TeamNames(ctx)
	if err != nil {
		return fmt.Errorf("load team names: %w", err)
	}
	e := recompute.NewEloEngine(cfg.Elo.Decay)
	e.Params = cfg.Elo.Params()
	e.Out = out
	e.Name = func(id int64) string {
		if n, ok := names[id]; ok {
			return n
		}
		return fmt.Sprintf("team %d", id)
	}

	section(fmt.Sprintf("Elo recompute (decay %.2f)", cfg.Elo.Decay))
	run, err := r.RecomputeElo(ctx, e)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, good(fmt.Sprintf("Elo ratings rebuilt for %d teams in %s (run %s)",
		run.Teams, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond), run.ID)))
	return nil
}

func runGlicko(ctx context.Context, r *recompute.Runner, cfg *config.Config, out io.Writer) error {
	e := recompute.NewGlickoEngine()
	e.Tau = cfg.Glicko.Tau
	e.Tolerance = cfg.Glicko.Tolerance
	e.Out = out

	section("Glicko-2 recompute")
	run, err := r.RecomputeGlicko(ctx, e)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, good(fmt.Sprintf("Glicko-2 ratings rebuilt for %d teams in %s (run %s)",
		run.Teams, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond), run.ID)))
	return nil
}

func watchSignals(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	cancel()
}
