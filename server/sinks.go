package main

import (
	"math/rand"

	"github.com/rs/zerolog"
)

// Sound cue names understood by the audio sink
const (
	SoundShoot      = "shoot"
	SoundHit        = "hit"
	SoundSeaFlower  = "seaflower"
	SoundUrchin     = "urchin"
	SoundBackground = "background"
)

// AudioSink plays a named cue. Fire-and-forget.
type AudioSink interface {
	PlaySound(name string, loop bool, emitter Vec3)
}

// Spawner accepts projectiles created during a tick
type Spawner interface {
	AddRocket(owner *Entity)
	AddProjectile(p *Projectile)
}

// ParticleSink receives particle bursts
type ParticleSink interface {
	AddParticles(kind ParticleKind, pos, vel Vec3, count int)
}

// Screen is a screen pushed onto the external screen stack
type Screen interface {
	ScreenName() string
}

// MatchOverScreen is pushed once when a player runs out of HP
type MatchOverScreen struct {
	Winner    string
	Loser     string
	LoserSlot int
	Time      float64
	Draw      bool
}

func (MatchOverScreen) ScreenName() string { return "match_over" }

// ScreenSink receives screen transitions and per-player visual cues
type ScreenSink interface {
	AddScreen(s Screen)
	SetBloomPreset(slot int, preset string)
}

// EventKind classifies a combat event
type EventKind string

const (
	EventShot             EventKind = "shot"
	EventHit              EventKind = "hit"
	EventUrchin           EventKind = "urchin"
	EventHeal             EventKind = "heal"
	EventMatchOver        EventKind = "match_over"
	EventPushBackFallback EventKind = "pushback_fallback"
)

// CombatEvent is one gameplay fact emitted during a tick
type CombatEvent struct {
	Tick   uint64    `json:"tick" msgpack:"tick"`
	Time   float64   `json:"time" msgpack:"time"`
	Kind   EventKind `json:"kind" msgpack:"kind"`
	Actor  string    `json:"actor" msgpack:"actor"`
	Target string    `json:"target,omitempty" msgpack:"target,omitempty"`
	HP     int       `json:"hp" msgpack:"hp"`
}

// EventSink receives combat events
type EventSink interface {
	RecordEvent(ev CombatEvent)
}

// Sinks bundles the external collaborators an entity may call
type Sinks struct {
	Audio     AudioSink
	Spawn     Spawner
	Particles ParticleSink
	Screen    ScreenSink
	Events    EventSink
}

// withDefaults fills nil sinks with no-ops
func (s Sinks) withDefaults() Sinks {
	if s.Audio == nil {
		s.Audio = nopSink{}
	}
	if s.Spawn == nil {
		s.Spawn = nopSink{}
	}
	if s.Particles == nil {
		s.Particles = nopSink{}
	}
	if s.Screen == nil {
		s.Screen = nopSink{}
	}
	if s.Events == nil {
		s.Events = nopSink{}
	}
	return s
}

type nopSink struct{}

func (nopSink) PlaySound(string, bool, Vec3)               {}
func (nopSink) AddRocket(*Entity)                          {}
func (nopSink) AddProjectile(*Projectile)                  {}
func (nopSink) AddParticles(ParticleKind, Vec3, Vec3, int) {}
func (nopSink) AddScreen(Screen)                           {}
func (nopSink) SetBloomPreset(int, string)                 {}
func (nopSink) RecordEvent(CombatEvent)                    {}

// TickContext carries everything an entity needs for one Update
type TickContext struct {
	DT      float64 // seconds since the previous tick
	Time    float64 // total match time in seconds
	Tick    uint64
	Terrain Terrain
	RNG     *rand.Rand
	World   *CollisionWorld
	Sinks   Sinks
	Log     zerolog.Logger
}

// NewTickContext returns a context with no-op sinks and a disabled logger
func NewTickContext(dt float64, terrain Terrain, rng *rand.Rand) *TickContext {
	return &TickContext{
		DT:      dt,
		Terrain: terrain,
		RNG:     rng,
		Sinks:   Sinks{}.withDefaults(),
		Log:     zerolog.Nop(),
	}
}
