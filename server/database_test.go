package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndListMatches(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.RecordMatch(MatchRow{ID: "a", Seed: 1, StartedAt: base, Duration: 30, Ticks: 1800, Winner: "Player 2", Loser: "Player 1"}))
	require.NoError(t, db.RecordMatch(MatchRow{ID: "b", Seed: 2, StartedAt: base.Add(time.Minute), Duration: 12.5, Ticks: 750, Draw: true}))
	require.NoError(t, db.RecordMatch(MatchRow{ID: "c", Seed: 3, StartedAt: base.Add(2 * time.Minute)}))

	rows, err := db.RecentMatches(2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "c", rows[0].ID)
	assert.Equal(t, "b", rows[1].ID)
	assert.True(t, rows[1].Draw)
	assert.Equal(t, uint64(750), rows[1].Ticks)
	assert.True(t, rows[1].StartedAt.Equal(base.Add(time.Minute)))

	all, err := db.RecentMatches(10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Player 2", all[2].Winner)
	assert.Equal(t, "Player 1", all[2].Loser)
}

func TestRecordMatchDuplicateID(t *testing.T) {
	db := openTestDB(t)
	row := MatchRow{ID: "dup", StartedAt: time.Now()}
	require.NoError(t, db.RecordMatch(row))
	assert.Error(t, db.RecordMatch(row))
}

func TestEventRecorderPersists(t *testing.T) {
	db := openTestDB(t)
	rec := NewEventRecorder(db)

	rec.Track("m1", CombatEvent{Kind: EventShot, Tick: 1, Time: 0.1, Actor: "Player 1"})
	rec.Track("m1", CombatEvent{Kind: EventHit, Tick: 3, Time: 0.3, Actor: "Player 1", Target: "Player 2", HP: 9})
	rec.Track("m1", CombatEvent{Kind: EventHit, Tick: 5, Time: 0.5, Actor: "Player 1", Target: "Player 2", HP: 8})
	rec.Track("m2", CombatEvent{Kind: EventHeal, Tick: 2, Time: 0.2, Actor: "Player 1", HP: 10})
	rec.Stop()

	events, err := db.MatchEvents("m1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, EventShot, events[0].Kind)
	assert.Equal(t, uint64(5), events[2].Tick)
	assert.Equal(t, 8, events[2].HP)
	assert.Equal(t, "Player 2", events[2].Target)

	counts, err := db.EventCounts("m1")
	require.NoError(t, err)
	assert.Equal(t, map[EventKind]int{EventShot: 1, EventHit: 2}, counts)

	other, err := db.EventCounts("m2")
	require.NoError(t, err)
	assert.Equal(t, 1, other[EventHeal])
	assert.Zero(t, rec.Dropped())
}

func TestEventRecorderNil(t *testing.T) {
	var rec *EventRecorder
	assert.NotPanics(t, func() { rec.Track("m", CombatEvent{Kind: EventShot}) })
}
