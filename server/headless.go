package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// HeadlessOptions controls a batch of bot matches run as fast as possible
type HeadlessOptions struct {
	Runs     int
	Seed     int64
	MaxTicks uint64 // per match, 0 = until the time limit
	DB       *DB
	Recorder *EventRecorder
	Metrics  *Metrics
	Audio    *SoundBoard // only the first run is recorded
	Log      zerolog.Logger
}

// RunReport summarizes one headless match
type RunReport struct {
	Run    int
	Seed   int64
	ID     string
	Result MatchResult
	Counts map[EventKind]int
	Ended  bool // false when MaxTicks cut the match short
}

// RunHeadless plays opts.Runs bot matches back to back on terrain and writes
// one line per run to out.
func RunHeadless(sessions *SessionManager, terrain Terrain, dt float64, opts HeadlessOptions, out io.Writer) ([]RunReport, error) {
	if opts.Runs <= 0 {
		opts.Runs = 1
	}
	reports := make([]RunReport, 0, opts.Runs)
	for i := 0; i < opts.Runs; i++ {
		seed := opts.Seed + int64(i)
		setup := sessions.BotSetup(seed)

		var sinks Sinks
		audio := opts.Audio
		if i > 0 {
			audio = nil
		}
		if audio != nil {
			sinks.Audio = audio
		}
		m, err := NewMatch(setup, terrain, sinks, opts.Log)
		if err != nil {
			return reports, fmt.Errorf("run %d: %w", i+1, err)
		}

		started := time.Now().UTC()
		counts := make(map[EventKind]int)
		var none [2]PlayerInput
		for !m.IsOver() && (opts.MaxTicks == 0 || m.TickCount() < opts.MaxTicks) {
			events := m.Tick(dt, none)
			for _, ev := range events {
				counts[ev.Kind]++
				opts.Recorder.Track(m.ID, ev)
			}
			opts.Metrics.Observe(events)
			audio.Advance(dt)
		}
		if err := audio.Flush(); err != nil {
			opts.Log.Error().Err(err).Msg("render audio")
		}

		rep := RunReport{Run: i + 1, Seed: seed, ID: m.ID, Counts: counts, Ended: m.IsOver()}
		if res := m.Result(); res != nil {
			rep.Result = *res
		} else {
			rep.Result = MatchResult{Duration: m.Time(), Ticks: m.TickCount()}
		}
		reports = append(reports, rep)

		if rep.Ended && opts.DB != nil {
			err := opts.DB.RecordMatch(MatchRow{
				ID:        m.ID,
				Seed:      seed,
				StartedAt: started,
				Duration:  rep.Result.Duration,
				Ticks:     rep.Result.Ticks,
				Winner:    rep.Result.Winner,
				Loser:     rep.Result.Loser,
				Draw:      rep.Result.Draw,
			})
			if err != nil {
				return reports, fmt.Errorf("run %d: %w", i+1, err)
			}
		}
		fmt.Fprintln(out, rep.String())
	}
	return reports, nil
}

func (r RunReport) String() string {
	outcome := "unfinished"
	switch {
	case r.Ended && r.Result.Draw:
		outcome = "draw"
	case r.Ended:
		outcome = r.Result.Winner + " wins"
	}
	return fmt.Sprintf("run %d seed %d: %s after %.1fs (%d ticks) shots=%d hits=%d urchin=%d heals=%d",
		r.Run, r.Seed, outcome, r.Result.Duration, r.Result.Ticks,
		r.Counts[EventShot], r.Counts[EventHit], r.Counts[EventUrchin], r.Counts[EventHeal])
}
