package main

import (
	"math/rand"
	"testing"
)

// recorder captures everything the simulation sends to its collaborators
type recorder struct {
	sounds    []string
	rockets   []*Entity
	shells    []*Projectile
	particles map[ParticleKind]int
	screens   []Screen
	blooms    []string
	events    []CombatEvent
}

func newRecorder() *recorder {
	return &recorder{particles: make(map[ParticleKind]int)}
}

func (r *recorder) PlaySound(name string, loop bool, emitter Vec3) { r.sounds = append(r.sounds, name) }
func (r *recorder) AddRocket(owner *Entity)                        { r.rockets = append(r.rockets, NewRocket(owner)) }
func (r *recorder) AddProjectile(p *Projectile)                    { r.shells = append(r.shells, p) }
func (r *recorder) AddParticles(kind ParticleKind, pos, vel Vec3, count int) {
	r.particles[kind] += count
}
func (r *recorder) AddScreen(s Screen)                     { r.screens = append(r.screens, s) }
func (r *recorder) SetBloomPreset(slot int, preset string) { r.blooms = append(r.blooms, preset) }
func (r *recorder) RecordEvent(ev CombatEvent)             { r.events = append(r.events, ev) }

func (r *recorder) sinks() Sinks {
	return Sinks{Audio: r, Spawn: r, Particles: r, Screen: r, Events: r}
}

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// flatTerrain is a level 4000x4000 map centred on the origin
func flatTerrain() *HeightMap {
	return FlatHeightMap(4000, 4000, 20, 0)
}

// testCtx returns a tick context wired to rec over the given entities
func testCtx(dt float64, terrain Terrain, rec *recorder, entities ...*Entity) *TickContext {
	ctx := NewTickContext(dt, terrain, rand.New(rand.NewSource(1)))
	ctx.Sinks = rec.sinks()
	ctx.World = NewCollisionWorld(entities, nil, 0)
	return ctx
}

func mustPlayer(t *testing.T, slot int, name string, pos Vec3, terrain Terrain) *Entity {
	t.Helper()
	p, err := NewPlayer(slot, name, "octopus")
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	p.Position = pos
	p.AdjustToHeightmap(terrain)
	p.UpdateSphere()
	return p
}

func mustScenery(t *testing.T, model string, cat Category, radius float64, pos Vec3, terrain Terrain) *Entity {
	t.Helper()
	e, err := NewEntity(model, cat)
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	e.BoundToHeightmap = true
	e.Position = pos
	e.SetCollision(radius)
	e.AdjustToHeightmap(terrain)
	e.UpdateSphere()
	return e
}

func approx(a, b, eps float64) bool {
	d := a - b
	return d < eps && d > -eps
}
