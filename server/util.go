package main

import (
	"math"
	"math/rand"

	"github.com/google/uuid"
)

// GenerateID returns a random match identifier
func GenerateID() string {
	return uuid.NewString()
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ClampInt restricts v to [min, max]
func ClampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// DistanceXZ returns the ground-plane distance between two points
func DistanceXZ(a, b Vec3) float64 {
	dx := b.X - a.X
	dz := b.Z - a.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// randRange returns a uniform float64 in [min, max)
func randRange(rng *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + rng.Float64()*(max-min)
}

// cooldownEpsilon absorbs float drift when a timer is stepped down by dt.
const cooldownEpsilon = 1e-9

// Cooldown is a countdown in seconds. It is plain data: the owner steps it
// every tick and checks Ready before running the gated branch.
type Cooldown float64

// Tick counts the timer down, stopping at zero
func (c *Cooldown) Tick(dt float64) {
	if *c > 0 {
		*c -= Cooldown(dt)
		if *c < 0 {
			*c = 0
		}
	}
}

// Ready reports whether the gate is open
func (c Cooldown) Ready() bool {
	return float64(c) <= cooldownEpsilon
}

// Arm closes the gate for d seconds
func (c *Cooldown) Arm(d float64) {
	*c = Cooldown(d)
}
