package main

import (
	"math"
	"testing"
)

func TestShellLaunch(t *testing.T) {
	owner, _ := NewEntity("stone", CategoryStone)
	owner.ID = 12
	owner.Position = Vec3{10, 20, 30}
	owner.RotationY = math.Pi / 2

	p := NewShell(owner)
	if p.OwnerID != 12 || !p.Alive {
		t.Fatal("shell should be live and remember its owner")
	}
	if p.Position != (Vec3{10, 20 + ShellLaunchHeight, 30}) {
		t.Errorf("shell should start above the shooter, got %+v", p.Position)
	}
	if !approx(p.Velocity.X, -ShellSpeed, 1e-9) || !approx(p.Velocity.Z, 0, 1e-9) {
		t.Errorf("shell should fly along the heading, got %+v", p.Velocity)
	}
}

func TestShellArcsUnderGravity(t *testing.T) {
	rec := newRecorder()
	p := NewProjectile(1, Vec3{}, Vec3{100, 0, 0})

	p.Update(0.5, rec)
	p.Update(0.5, rec)
	if p.Velocity.Y != -ShellGravity {
		t.Errorf("expected vertical speed %v after 1s, got %v", -ShellGravity, p.Velocity.Y)
	}
	if p.Position.Y >= 0 {
		t.Errorf("shell should drop, got Y %v", p.Position.Y)
	}
	if !approx(p.Position.X, 100, 1e-9) {
		t.Errorf("expected X 100, got %v", p.Position.X)
	}
}

func TestShellTrailAndExplosion(t *testing.T) {
	rec := newRecorder()
	p := NewProjectile(1, Vec3{}, Vec3{0, 0, 100})

	dt := 0.01
	ticks := 0
	for p.Update(dt, rec) {
		ticks++
		if ticks > 1000 {
			t.Fatal("shell never expired")
		}
	}
	if p.Age <= ShellLifespan || p.Age > ShellLifespan+dt+1e-9 {
		t.Errorf("shell should expire just after %vs, aged %vs", ShellLifespan, p.Age)
	}
	trail := rec.particles[ParticleTrail]
	if trail < 290 || trail > 310 {
		t.Errorf("expected about %v trail particles, got %d", ShellLifespan*ShellTrailPerSecond, trail)
	}
	if rec.particles[ParticleFire] != ShellExplosionParticles || rec.particles[ParticleSmoke] != ShellSmokeParticles {
		t.Errorf("unexpected explosion %v", rec.particles)
	}
	if p.Update(dt, rec) {
		t.Error("expired shell must stay dead")
	}
}

func TestMatchUpdatesShells(t *testing.T) {
	m := newTestMatch(t, 5)
	m.AddProjectile(NewProjectile(1, Vec3{}, Vec3{100, 0, 0}))
	if len(m.Projectiles()) != 1 {
		t.Fatal("shell should be queued")
	}
	for i := 0; i < 200 && len(m.Projectiles()) > 0; i++ {
		m.Tick(0.01, [2]PlayerInput{})
	}
	if len(m.Projectiles()) != 0 {
		t.Error("expired shells should be dropped from the match")
	}
}
