package main

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

const (
	maxSessions         = 32
	DefaultBotTimeLimit = 120.0
)

var ErrTooManyMatches = errors.New("match limit reached")

// SessionManager hosts the running matches
type SessionManager struct {
	mu       sync.RWMutex
	runners  map[string]*Runner
	cfg      *Config
	terrain  Terrain
	opts     RunnerOptions
	nextSeed int64
	keepBots int
	closed   bool
	log      zerolog.Logger
}

// NewSessionManager creates a manager that builds matches on terrain
func NewSessionManager(cfg *Config, terrain Terrain, opts RunnerOptions) *SessionManager {
	return &SessionManager{
		runners:  make(map[string]*Runner),
		cfg:      cfg,
		terrain:  terrain,
		opts:     opts,
		nextSeed: cfg.Match.Seed,
		log:      componentLogger("sessions"),
	}
}

// BotSetup returns a setup where both players wander and auto-fire
func (sm *SessionManager) BotSetup(seed int64) MatchSetup {
	s := sm.cfg.MatchSetup(seed)
	for i := range s.Players {
		s.Players[i].Bot = true
		s.Players[i].AutoFire = true
	}
	if s.TimeLimit == 0 {
		s.TimeLimit = DefaultBotTimeLimit
	}
	return s
}

// CreateMatch builds and starts a runner. Returns ErrTooManyMatches at the limit.
func (sm *SessionManager) CreateMatch(setup MatchSetup) (*Runner, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.closed || len(sm.runners) >= maxSessions {
		return nil, ErrTooManyMatches
	}

	opts := sm.opts
	opts.Log = sm.log
	var sinks Sinks
	if opts.Audio != nil {
		sinks.Audio = opts.Audio
	}
	m, err := NewMatch(setup, sm.terrain, sinks, sm.log)
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	r := NewRunner(m, opts)
	sm.runners[m.ID] = r
	go r.Run()
	go sm.reap(r)
	return r, nil
}

// StartBots keeps n bot matches running, replacing each one as it ends
func (sm *SessionManager) StartBots(n int) error {
	sm.mu.Lock()
	sm.keepBots = n
	sm.mu.Unlock()
	for i := 0; i < n; i++ {
		if _, err := sm.CreateMatch(sm.BotSetup(sm.seed())); err != nil {
			return err
		}
	}
	return nil
}

func (sm *SessionManager) seed() int64 {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.nextSeed++
	return sm.nextSeed
}

// reap removes a finished runner and tops the bot pool back up
func (sm *SessionManager) reap(r *Runner) {
	<-r.Done()
	sm.mu.Lock()
	delete(sm.runners, r.ID())
	refill := !sm.closed && sm.botCount() < sm.keepBots
	sm.mu.Unlock()

	if refill {
		if _, err := sm.CreateMatch(sm.BotSetup(sm.seed())); err != nil {
			sm.log.Warn().Err(err).Msg("refill bot match")
		}
	}
}

// botCount counts running matches. Callers hold sm.mu.
func (sm *SessionManager) botCount() int {
	n := 0
	for _, r := range sm.runners {
		if r.match.players[0].Wander != nil {
			n++
		}
	}
	return n
}

// GetRunner returns a running match by ID
func (sm *SessionManager) GetRunner(id string) *Runner {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.runners[id]
}

// ListMatches returns info about all running matches, oldest seed first
func (sm *SessionManager) ListMatches() []MatchInfo {
	sm.mu.RLock()
	list := make([]MatchInfo, 0, len(sm.runners))
	for _, r := range sm.runners {
		list = append(list, r.Info())
	}
	sm.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Seed < list[j].Seed })
	return list
}

// StopAll stops every runner and waits for them to finish
func (sm *SessionManager) StopAll() {
	sm.mu.Lock()
	sm.closed = true
	runners := make([]*Runner, 0, len(sm.runners))
	for _, r := range sm.runners {
		runners = append(runners, r)
	}
	sm.mu.Unlock()

	for _, r := range runners {
		r.Stop()
		<-r.Done()
	}
}
