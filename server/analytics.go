package main

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	eventQueueSize  = 1024
	eventBatchSize  = 50
	eventFlushEvery = 2 * time.Second
)

type storedEvent struct {
	MatchID string
	Event   CombatEvent
}

// EventRecorder persists combat events with batched background writes
type EventRecorder struct {
	db     *DB
	events chan storedEvent
	stop   chan struct{}
	wg     sync.WaitGroup
	log    zerolog.Logger

	mu      sync.Mutex
	dropped int
}

// NewEventRecorder creates and starts the background writer
func NewEventRecorder(db *DB) *EventRecorder {
	r := &EventRecorder{
		db:     db,
		events: make(chan storedEvent, eventQueueSize),
		stop:   make(chan struct{}),
		log:    componentLogger("recorder"),
	}
	r.wg.Add(1)
	go r.writer()
	return r
}

// Track enqueues an event for async persistence (non-blocking). A nil
// recorder discards events.
func (r *EventRecorder) Track(matchID string, ev CombatEvent) {
	if r == nil {
		return
	}
	select {
	case r.events <- storedEvent{MatchID: matchID, Event: ev}:
	default:
		// queue full, drop rather than stall the tick
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
	}
}

// Dropped returns how many events were discarded on a full queue
func (r *EventRecorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Stop drains the queue and shuts down the writer
func (r *EventRecorder) Stop() {
	close(r.stop)
	r.wg.Wait()
}

func (r *EventRecorder) writer() {
	defer r.wg.Done()

	batch := make([]storedEvent, 0, eventBatchSize)
	ticker := time.NewTicker(eventFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case ev := <-r.events:
			batch = append(batch, ev)
			if len(batch) >= eventBatchSize {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-r.stop:
			for {
				select {
				case ev := <-r.events:
					batch = append(batch, ev)
				default:
					if len(batch) > 0 {
						r.flush(batch)
					}
					return
				}
			}
		}
	}
}

func (r *EventRecorder) flush(events []storedEvent) {
	if r.db == nil || len(events) == 0 {
		return
	}
	tx, err := r.db.conn.Begin()
	if err != nil {
		r.log.Error().Err(err).Msg("begin tx")
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO match_events (match_id, tick, time, kind, actor, target, hp) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		r.log.Error().Err(err).Msg("prepare insert")
		return
	}
	defer stmt.Close()

	for _, se := range events {
		ev := se.Event
		if _, err := stmt.Exec(se.MatchID, ev.Tick, ev.Time, string(ev.Kind), ev.Actor, ev.Target, ev.HP); err != nil {
			r.log.Error().Err(err).Str("match", se.MatchID).Msg("insert event")
		}
	}
	if err := tx.Commit(); err != nil {
		r.log.Error().Err(err).Msg("commit events")
	}
}
