package main

import "math/rand"

const (
	WanderMinInterval    = 0.5 // seconds
	WanderMaxInterval    = 2.0 // seconds
	WanderTurnChance     = 0.5
	WanderAccelChance    = 0.7
	WanderMaxTurnRepeat  = 30 // ticks
	WanderMaxAccelRepeat = 20 // ticks
)

// WanderBehavior issues random turn and accelerate commands on its own
// timer, independent of player input.
type WanderBehavior struct {
	MinInterval    float64
	MaxInterval    float64
	TurnChance     float64
	AccelChance    float64
	MaxTurnRepeat  int
	MaxAccelRepeat int

	timer     Cooldown
	turnCmd   Command
	turnLeft  int // ticks of turning still to issue
	accelLeft int // ticks of accelerating still to issue
}

// NewWander returns a wander behaviour with the default parameters
func NewWander() *WanderBehavior {
	return &WanderBehavior{
		MinInterval:    WanderMinInterval,
		MaxInterval:    WanderMaxInterval,
		TurnChance:     WanderTurnChance,
		AccelChance:    WanderAccelChance,
		MaxTurnRepeat:  WanderMaxTurnRepeat,
		MaxAccelRepeat: WanderMaxAccelRepeat,
	}
}

// Step queues this tick's wander commands on e and re-rolls the plan when
// the timer expires.
func (w *WanderBehavior) Step(e *Entity, dt float64, rng *rand.Rand) {
	if w.turnLeft > 0 {
		e.Queue(w.turnCmd)
		w.turnLeft--
	}
	if w.accelLeft > 0 {
		e.Queue(CmdAccelerate)
		w.accelLeft--
	}

	w.timer.Tick(dt)
	if !w.timer.Ready() || rng == nil {
		return
	}

	if rng.Float64() < w.TurnChance {
		w.turnCmd = CmdTurnLeft
		if rng.Intn(2) == 1 {
			w.turnCmd = CmdTurnRight
		}
		w.turnLeft = 1 + rng.Intn(max(w.MaxTurnRepeat, 1))
	}
	if rng.Float64() < w.AccelChance {
		w.accelLeft = 1 + rng.Intn(max(w.MaxAccelRepeat, 1))
	}
	w.timer.Arm(randRange(rng, w.MinInterval, w.MaxInterval))
}
