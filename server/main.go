package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (yaml, json or toml)")
	mode := flag.String("mode", "serve", "play | serve | headless")
	runs := flag.Int("runs", 1, "Headless: number of matches")
	seed := flag.Int64("seed", 0, "Match seed (0 = match.seed from config)")
	ticks := flag.Uint64("ticks", 0, "Headless: tick limit per match (0 = time limit)")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Match.Seed = *seed
	}

	logOut, closeLog, err := logOutput(cfg.Log, *mode == "play")
	if err != nil {
		fmt.Fprintf(os.Stderr, "log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	log := SetupLogging(cfg.Log, logOut)

	if err := run(*mode, cfg, *runs, *ticks); err != nil {
		log.Error().Err(err).Str("mode", *mode).Msg("exit")
		closeLog()
		os.Exit(1)
	}
}

// logOutput picks the log writer. Play mode owns the terminal, so without a
// log file its output is discarded.
func logOutput(cfg LogConfig, play bool) (io.Writer, func(), error) {
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	}
	if play {
		return io.Discard, func() {}, nil
	}
	return os.Stderr, func() {}, nil
}

func run(mode string, cfg *Config, runs int, ticks uint64) error {
	log := componentLogger("main")

	terrain, err := LoadTerrain(cfg.Terrain, cfg.Match.Seed)
	if err != nil {
		return fmt.Errorf("terrain: %w", err)
	}

	var db *DB
	if cfg.Store.Path != "" {
		if db, err = OpenDB(cfg.Store.Path); err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close()
	}
	var recorder *EventRecorder
	if db != nil {
		recorder = NewEventRecorder(db)
		defer recorder.Stop()
	}

	metrics, err := NewMetrics()
	if err != nil {
		return err
	}

	var audio *SoundBoard
	if cfg.Audio.Output != "" {
		audio = NewSoundBoard(cfg.Audio)
	}

	opts := RunnerOptions{
		TickRate:      cfg.Match.TickRate,
		BroadcastRate: cfg.Feed.BroadcastRate,
		Linger:        cfg.Match.Linger,
		DB:            db,
		Recorder:      recorder,
		Metrics:       metrics,
		Audio:         audio,
		Log:           log,
	}

	switch mode {
	case "play":
		return runPlay(cfg, terrain, opts)
	case "serve":
		// several matches would share one timeline
		opts.Audio = nil
		return runServe(cfg, terrain, db, opts)
	case "headless":
		sessions := NewSessionManager(cfg, terrain, opts)
		_, err := RunHeadless(sessions, terrain, cfg.TickDT(), HeadlessOptions{
			Runs:     runs,
			Seed:     cfg.Match.Seed,
			MaxTicks: ticks,
			DB:       db,
			Recorder: recorder,
			Metrics:  metrics,
			Audio:    audio,
			Log:      log,
		}, os.Stdout)
		return err
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

func runPlay(cfg *Config, terrain Terrain, opts RunnerOptions) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen init: %w", err)
	}
	defer screen.Fini()

	viewer := NewViewer(screen, cfg.Bindings)
	sinks := Sinks{Screen: viewer}
	if opts.Audio != nil {
		sinks.Audio = opts.Audio
	}
	m, err := NewMatch(cfg.MatchSetup(cfg.Match.Seed), terrain, sinks, opts.Log)
	if err != nil {
		return err
	}

	r := NewRunner(m, opts)
	go r.Run()
	viewer.Run(r)
	r.Stop()
	<-r.Done()
	return nil
}

func runServe(cfg *Config, terrain Terrain, db *DB, opts RunnerOptions) error {
	log := componentLogger("main")
	sessions := NewSessionManager(cfg, terrain, opts)
	if err := sessions.StartBots(cfg.Feed.BotMatches); err != nil {
		return fmt.Errorf("start bot matches: %w", err)
	}
	defer sessions.StopAll()

	hubDone := make(chan struct{})
	hub := NewHub(sessions, db, cfg.Feed, cfg.Store.History)
	go hub.Run(hubDone)
	defer close(hubDone)

	feedURL := cfg.Feed.PublicURL
	if feedURL == "" {
		feedURL = "ws://localhost" + cfg.Feed.Addr + "/ws"
	}
	server := &http.Server{
		Addr:              cfg.Feed.Addr,
		Handler:           SetupRoutes(hub, feedURL),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Feed.Addr).Int("bots", cfg.Feed.BotMatches).Msg("feed server starting")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	if cfg.Feed.ShowQR {
		if err := PrintQR(os.Stdout, feedURL); err != nil {
			log.Warn().Err(err).Msg("print qr")
		}
	}

	select {
	case <-stop:
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	}
	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
