package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunHeadless(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	sessions := NewSessionManager(cfg, flatTerrain(), RunnerOptions{})

	var out bytes.Buffer
	reports, err := RunHeadless(sessions, flatTerrain(), cfg.TickDT(), HeadlessOptions{
		Runs:     2,
		Seed:     10,
		MaxTicks: 120,
		Log:      zerolog.Nop(),
	}, &out)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, int64(10), reports[0].Seed)
	assert.Equal(t, int64(11), reports[1].Seed)
	assert.NotEqual(t, reports[0].ID, reports[1].ID)
	for _, r := range reports {
		assert.LessOrEqual(t, r.Result.Ticks, uint64(120))
		if !r.Ended {
			assert.Equal(t, uint64(120), r.Result.Ticks)
		}
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "run 1 seed 10: "))
	assert.True(t, strings.HasPrefix(lines[1], "run 2 seed 11: "))
}

func TestRunHeadlessRecordsFinishedMatches(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	cfg.Match.TimeLimit = 0.5
	sessions := NewSessionManager(cfg, flatTerrain(), RunnerOptions{})

	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()
	rec := NewEventRecorder(db)

	wavPath := filepath.Join(t.TempDir(), "run.wav")
	audio := NewSoundBoard(AudioConfig{Output: wavPath, SampleRate: 8000})

	var out bytes.Buffer
	reports, err := RunHeadless(sessions, flatTerrain(), cfg.TickDT(), HeadlessOptions{
		Runs:     1,
		Seed:     3,
		DB:       db,
		Recorder: rec,
		Audio:    audio,
		Log:      zerolog.Nop(),
	}, &out)
	require.NoError(t, err)
	rec.Stop()

	require.Len(t, reports, 1)
	assert.True(t, reports[0].Ended, "time limit should end the match")

	rows, err := db.RecentMatches(5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, reports[0].ID, rows[0].ID)

	counts, err := db.EventCounts(reports[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[EventMatchOver])

	assert.FileExists(t, wavPath)
	assert.NotEmpty(t, audio.Cues())
}
