package main

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "octopus-arena/server"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics counts gameplay events. Uses the global OTel meter, which is a
// no-op unless a provider is installed.
type Metrics struct {
	hits      metric.Int64Counter
	heals     metric.Int64Counter
	shots     metric.Int64Counter
	fallbacks metric.Int64Counter
	over      metric.Int64Counter
	entities  metric.Int64ObservableGauge

	mu     sync.RWMutex
	counts map[string]int
}

// NewMetrics registers the arena instruments
func NewMetrics() (*Metrics, error) {
	m := meter()
	mt := &Metrics{counts: make(map[string]int)}

	var err error
	if mt.hits, err = m.Int64Counter("arena.hits",
		metric.WithDescription("Damage taken by players from rockets and urchins")); err != nil {
		return nil, fmt.Errorf("creating hits counter: %w", err)
	}
	if mt.heals, err = m.Int64Counter("arena.heals",
		metric.WithDescription("Heals granted by sea flowers")); err != nil {
		return nil, fmt.Errorf("creating heals counter: %w", err)
	}
	if mt.shots, err = m.Int64Counter("arena.shots",
		metric.WithDescription("Rockets fired")); err != nil {
		return nil, fmt.Errorf("creating shots counter: %w", err)
	}
	if mt.fallbacks, err = m.Int64Counter("arena.pushback.fallbacks",
		metric.WithDescription("Push-backs that needed the forced snap")); err != nil {
		return nil, fmt.Errorf("creating fallback counter: %w", err)
	}
	if mt.over, err = m.Int64Counter("arena.matches.over",
		metric.WithDescription("Matches that reached a result")); err != nil {
		return nil, fmt.Errorf("creating match counter: %w", err)
	}
	if mt.entities, err = m.Int64ObservableGauge("arena.entities",
		metric.WithDescription("Entities in each running match")); err != nil {
		return nil, fmt.Errorf("creating entity gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			mt.mu.RLock()
			defer mt.mu.RUnlock()
			for id, n := range mt.counts {
				o.ObserveInt64(mt.entities, int64(n),
					metric.WithAttributes(attribute.String("match", id)))
			}
			return nil
		},
		mt.entities,
	)
	if err != nil {
		return nil, fmt.Errorf("registering entity callback: %w", err)
	}
	return mt, nil
}

// Observe counts one tick's events
func (mt *Metrics) Observe(events []CombatEvent) {
	if mt == nil {
		return
	}
	ctx := context.Background()
	for _, ev := range events {
		kind := metric.WithAttributes(attribute.String("kind", string(ev.Kind)))
		switch ev.Kind {
		case EventHit, EventUrchin:
			mt.hits.Add(ctx, 1, kind)
		case EventHeal:
			mt.heals.Add(ctx, 1)
		case EventShot:
			mt.shots.Add(ctx, 1)
		case EventPushBackFallback:
			mt.fallbacks.Add(ctx, 1)
		case EventMatchOver:
			mt.over.Add(ctx, 1)
		}
	}
}

// SetEntities records the roster size of a running match
func (mt *Metrics) SetEntities(matchID string, n int) {
	if mt == nil {
		return
	}
	mt.mu.Lock()
	mt.counts[matchID] = n
	mt.mu.Unlock()
}

// Forget drops a finished match from the gauge
func (mt *Metrics) Forget(matchID string) {
	if mt == nil {
		return
	}
	mt.mu.Lock()
	delete(mt.counts, matchID)
	mt.mu.Unlock()
}
