package main

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	DefaultTickRate      = 60 // physics ticks per second
	DefaultBroadcastRate = 20 // snapshots per second
	maxViewersPerMatch   = 50
)

// Broadcaster receives encoded feed frames
type Broadcaster interface {
	SendBinary(data []byte)
	SendJSON(msg interface{})
}

// RunnerOptions wires a runner to its pacing and ambient services
type RunnerOptions struct {
	TickRate      int
	BroadcastRate int
	Linger        float64 // seconds to keep publishing after the result
	DB            *DB
	Recorder      *EventRecorder
	Metrics       *Metrics
	Audio         *SoundBoard
	Log           zerolog.Logger
}

// Runner drives one Match in real time and fans snapshots out to viewers
type Runner struct {
	mu      sync.RWMutex
	match   *Match
	opts    RunnerOptions
	viewers map[Broadcaster]bool
	inputs  [2]PlayerInput
	pending []CombatEvent

	startedAt  time.Time
	recorded   bool
	lingerLeft float64
	stopped    bool
	stop       chan struct{}
	done       chan struct{}
	broadcastN uint64
	lastFrame  []byte
	log        zerolog.Logger
}

// NewRunner wraps a match. Zero rates fall back to the defaults.
func NewRunner(m *Match, opts RunnerOptions) *Runner {
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}
	if opts.BroadcastRate <= 0 || opts.BroadcastRate > opts.TickRate {
		opts.BroadcastRate = min(DefaultBroadcastRate, opts.TickRate)
	}
	return &Runner{
		match:      m,
		opts:       opts,
		viewers:    make(map[Broadcaster]bool),
		startedAt:  time.Now().UTC(),
		lingerLeft: opts.Linger,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		broadcastN: uint64(opts.TickRate / opts.BroadcastRate),
		log:        opts.Log.With().Str("match", m.ID).Logger(),
	}
}

// Run starts the game loop and blocks until the match ends or Stop is called
func (r *Runner) Run() {
	defer close(r.done)

	ticker := time.NewTicker(time.Second / time.Duration(r.opts.TickRate))
	defer ticker.Stop()

	dt := 1 / float64(r.opts.TickRate)
	for {
		select {
		case <-ticker.C:
			if finished := r.Step(dt); finished {
				r.finish()
				return
			}
		case <-r.stop:
			r.finish()
			return
		}
	}
}

// Stop terminates the game loop. Safe to call before Run and more than once.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.stopped {
		r.stopped = true
		close(r.stop)
	}
}

// Done is closed when Run returns
func (r *Runner) Done() <-chan struct{} { return r.done }

// SetInput stores the held controls for a player slot (1 or 2)
func (r *Runner) SetInput(slot int, in PlayerInput) {
	if slot < 1 || slot > 2 {
		return
	}
	r.mu.Lock()
	r.inputs[slot-1] = in
	r.mu.Unlock()
}

// Step runs one tick and reports whether the runner is finished
func (r *Runner) Step(dt float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := r.match.Tick(dt, r.inputs)
	r.pending = append(r.pending, events...)
	r.opts.Metrics.Observe(events)
	r.opts.Metrics.SetEntities(r.match.ID, len(r.match.Entities()))
	if r.opts.Recorder != nil {
		for _, ev := range events {
			r.opts.Recorder.Track(r.match.ID, ev)
		}
	}
	if r.opts.Audio != nil {
		r.opts.Audio.Advance(dt)
	}

	if r.match.TickCount()%r.broadcastN == 0 {
		r.broadcast()
	}

	if !r.match.IsOver() {
		return false
	}
	if !r.recorded {
		r.recordResult()
	}
	r.lingerLeft -= dt
	return r.lingerLeft <= 0
}

func (r *Runner) recordResult() {
	r.recorded = true
	res := r.match.Result()
	for v := range r.viewers {
		v.SendJSON(Envelope{T: MsgOver, Data: res})
	}
	if r.opts.DB == nil {
		return
	}
	err := r.opts.DB.RecordMatch(MatchRow{
		ID:        r.match.ID,
		Seed:      r.match.Seed,
		StartedAt: r.startedAt,
		Duration:  res.Duration,
		Ticks:     res.Ticks,
		Winner:    res.Winner,
		Loser:     res.Loser,
		Draw:      res.Draw,
	})
	if err != nil {
		r.log.Error().Err(err).Msg("record match")
	}
}

// broadcast encodes the current snapshot and sends it to all viewers.
// Callers hold r.mu.
func (r *Runner) broadcast() {
	snap := r.match.Snapshot()
	snap.Events = r.pending
	data, err := msgpack.Marshal(snap)
	r.pending = nil
	if err != nil {
		r.log.Error().Err(err).Msg("encode snapshot")
		return
	}
	r.lastFrame = data
	for v := range r.viewers {
		v.SendBinary(data)
	}
}

func (r *Runner) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts.Metrics.Forget(r.match.ID)
	if r.opts.Audio != nil {
		if err := r.opts.Audio.Flush(); err != nil {
			r.log.Error().Err(err).Msg("render audio")
		}
	}
	r.log.Info().Uint64("ticks", r.match.TickCount()).Msg("runner stopped")
}

// AddViewer attaches a feed client. Returns false when the match is full.
func (r *Runner) AddViewer(b Broadcaster) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.viewers) >= maxViewersPerMatch {
		return false
	}
	r.viewers[b] = true
	if r.lastFrame != nil {
		b.SendBinary(r.lastFrame)
	}
	return true
}

// RemoveViewer detaches a feed client
func (r *Runner) RemoveViewer(b Broadcaster) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.viewers, b)
}

// Snapshot returns the current renderer view
func (r *Runner) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.match.Snapshot()
}

// Welcome describes the match to a newly attached viewer
func (r *Runner) Welcome() WelcomeMsg {
	minX, maxX, minZ, maxZ := r.match.Terrain().Bounds()
	return WelcomeMsg{
		Match:   r.match.ID,
		Seed:    r.match.Seed,
		MinX:    minX,
		MaxX:    maxX,
		MinZ:    minZ,
		MaxZ:    maxZ,
		TickHz:  r.opts.TickRate,
		FrameHz: r.opts.BroadcastRate,
	}
}

// Info summarizes the match for the running list
func (r *Runner) Info() MatchInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info := MatchInfo{
		ID:      r.match.ID,
		Seed:    r.match.Seed,
		Time:    r.match.Time(),
		Over:    r.match.IsOver(),
		Viewers: len(r.viewers),
	}
	for _, p := range r.match.Players() {
		info.Players = append(info.Players, p.Player.Name)
		info.HP = append(info.HP, p.Player.HP)
	}
	return info
}

// ID returns the match identifier
func (r *Runner) ID() string { return r.match.ID }
