package main

const (
	ShellSpeed              = 500.0 // units/s along the shooter's heading
	ShellLaunchHeight       = 90.0
	ShellGravity            = 15.0 // units/s²
	ShellLifespan           = 1.5  // seconds
	ShellTrailPerSecond     = 200.0
	ShellExplosionParticles = 30
	ShellSmokeParticles     = 50
)

// ParticleKind selects the particle system a burst is emitted into
type ParticleKind int

const (
	ParticleTrail ParticleKind = iota
	ParticleFire
	ParticleSmoke
)

// Projectile is a ballistic shell that arcs under gravity, leaves a trail
// and bursts into fire and smoke when its lifespan runs out.
type Projectile struct {
	OwnerID  int
	Position Vec3
	Velocity Vec3
	Age      float64
	Alive    bool

	trailDebt float64
}

// NewShell lobs a shell from above the shooter along its heading
func NewShell(owner *Entity) *Projectile {
	from := owner.Position.Add(Vec3{0, ShellLaunchHeight, 0})
	return NewProjectile(owner.ID, from, HeadingForward(owner.RotationY).Scale(ShellSpeed))
}

// NewProjectile creates a live shell
func NewProjectile(ownerID int, from, velocity Vec3) *Projectile {
	return &Projectile{
		OwnerID:  ownerID,
		Position: from,
		Velocity: velocity,
		Alive:    true,
	}
}

// Update moves the projectile one tick and reports whether it is still alive
func (p *Projectile) Update(dt float64, particles ParticleSink) bool {
	if !p.Alive {
		return false
	}
	p.Position = p.Position.Add(p.Velocity.Scale(dt))
	p.Velocity.Y -= dt * ShellGravity
	p.Age += dt

	p.trailDebt += dt * ShellTrailPerSecond
	if n := int(p.trailDebt); n > 0 {
		particles.AddParticles(ParticleTrail, p.Position, VecZero, n)
		p.trailDebt -= float64(n)
	}

	if p.Age > ShellLifespan {
		particles.AddParticles(ParticleFire, p.Position, p.Velocity, ShellExplosionParticles)
		particles.AddParticles(ParticleSmoke, p.Position, p.Velocity, ShellSmokeParticles)
		p.Alive = false
	}
	return p.Alive
}

// ToState converts to protocol state
func (p *Projectile) ToState() ProjectileState {
	return ProjectileState{
		Owner: p.OwnerID,
		X:     round1(p.Position.X),
		Y:     round1(p.Position.Y),
		Z:     round1(p.Position.Z),
	}
}
