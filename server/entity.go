package main

import (
	"errors"
	"fmt"
	"math"
)

const (
	EntityRotationStep = 5.0     // radians/s while a turn is held
	EntityMovementStep = 10000.0 // units/s² while accelerate is held
	EntityMaxSpeed     = 900.0   // units/s
	EntityFriction     = 1000.0  // units/s² decay toward rest
	HeadingResetAngle  = 2 * math.Pi
	TimeRotationSpeed  = 0.42  // radians/s for SpinInTime entities
	CollisionInterval  = 0.001 // seconds between collision passes
)

var (
	ErrMissingModel = errors.New("entity model identifier is required")
	ErrBadTuning    = errors.New("invalid entity tuning")
)

// EntityKind selects the payload and the collision reaction of an entity.
type EntityKind int

const (
	KindScenery EntityKind = iota
	KindPlayer
	KindRocket
)

func (k EntityKind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindRocket:
		return "rocket"
	default:
		return "scenery"
	}
}

// Category is the collision category assigned at spawn time.
type Category int

const (
	CategoryNone Category = iota
	CategoryEgg
	CategoryStone
	CategoryBigSeagrass
	CategorySmallSeagrass
	CategorySeaFlower
	CategoryUrchin
	CategorySurface
)

var categoryNames = map[Category]string{
	CategoryNone:          "none",
	CategoryEgg:           "egg",
	CategoryStone:         "stone",
	CategoryBigSeagrass:   "big_seagrass",
	CategorySmallSeagrass: "small_seagrass",
	CategorySeaFlower:     "sea_flower",
	CategoryUrchin:        "urchin",
	CategorySurface:       "surface",
}

func (c Category) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory resolves a category name from configuration
func ParseCategory(name string) (Category, error) {
	for c, n := range categoryNames {
		if n == name {
			return c, nil
		}
	}
	return CategoryNone, fmt.Errorf("unknown category %q", name)
}

// Blocks reports whether bodies of this category stop a player physically.
func (c Category) Blocks() bool {
	return c == CategoryEgg || c == CategoryStone || c == CategoryBigSeagrass
}

// Tuning holds the per-entity kinematic constants
type Tuning struct {
	Friction     float64
	MovementStep float64
	RotationStep float64
	MaxSpeed     float64
}

// DefaultTuning returns the standard creature tuning
func DefaultTuning() Tuning {
	return Tuning{
		Friction:     EntityFriction,
		MovementStep: EntityMovementStep,
		RotationStep: EntityRotationStep,
		MaxSpeed:     EntityMaxSpeed,
	}
}

func (t Tuning) validate() error {
	if t.Friction < 0 || t.MovementStep < 0 || t.RotationStep < 0 || t.MaxSpeed <= 0 {
		return fmt.Errorf("%w: %+v", ErrBadTuning, t)
	}
	return nil
}

// Command is one input-level action queued for the next Update.
type Command uint8

const (
	CmdTurnLeft Command = iota + 1
	CmdTurnRight
	CmdAccelerate
	CmdDecelerate
	CmdStop
	CmdShoot
)

// Entity is a single simulated body. Kind-specific state lives in the
// Player and Rocket payloads; exactly one of them is set for those kinds.
type Entity struct {
	ID       int
	Kind     EntityKind
	Category Category
	Model    string

	Position  Vec3
	Frame     Frame
	RotationY float64 // heading
	RotationX float64
	RotationZ float64
	Speed     float64
	Tuning    Tuning

	BoundToHeightmap bool
	HeightOffset     float64
	Scale            float64
	Alpha            float64

	Collidable      bool
	CollisionRadius float64
	Sphere          Sphere
	collisionCD     Cooldown

	Wander      *WanderBehavior
	SpinInTime  bool
	PulseInTime bool

	commands []Command

	Player *PlayerData
	Rocket *RocketData
}

// NewEntity creates a resting scenery entity with default tuning.
func NewEntity(model string, category Category) (*Entity, error) {
	if model == "" {
		return nil, ErrMissingModel
	}
	e := &Entity{
		Kind:     KindScenery,
		Category: category,
		Model:    model,
		Tuning:   DefaultTuning(),
		Scale:    1,
		Alpha:    1,
	}
	e.Frame = FlatFrame(0)
	return e, nil
}

// SetCollision enables the collision sphere with the given radius
func (e *Entity) SetCollision(radius float64) {
	e.Collidable = radius > 0
	e.CollisionRadius = radius
	e.UpdateSphere()
}

// Queue schedules a command for the next Update
func (e *Entity) Queue(cmd Command) {
	e.commands = append(e.commands, cmd)
}

// PendingCommands returns the commands queued for the next tick
func (e *Entity) PendingCommands() []Command {
	return e.commands
}

// TurnLeft rotates the heading counter-clockwise by one step
func (e *Entity) TurnLeft(dt float64) {
	e.RotationY += dt * e.Tuning.RotationStep
	e.computeRotation()
}

// TurnRight rotates the heading clockwise by one step
func (e *Entity) TurnRight(dt float64) {
	e.RotationY -= dt * e.Tuning.RotationStep
	e.computeRotation()
}

// Accelerate adds one movement step to the speed
func (e *Entity) Accelerate(dt float64) {
	e.Speed += dt * e.Tuning.MovementStep
}

// Decelerate removes one movement step from the speed
func (e *Entity) Decelerate(dt float64) {
	e.Speed -= dt * e.Tuning.MovementStep
}

// Stop brings the entity to rest. A live rocket dies instead.
func (e *Entity) Stop() {
	if e.Rocket != nil {
		e.Die()
	}
	e.Speed = 0
}

// computeRotation snaps the heading back to zero once it passes a full
// turn in either direction. This is a reset, not a modulo wrap.
func (e *Entity) computeRotation() {
	if e.RotationY > HeadingResetAngle || e.RotationY < -HeadingResetAngle {
		e.RotationY = 0
	}
}

// ComputeSpeed applies friction toward rest and clamps to MaxSpeed
func (e *Entity) ComputeSpeed(dt float64) {
	decay := dt * e.Tuning.Friction
	switch {
	case e.Speed > 0:
		if e.Speed-decay <= 0 {
			e.Speed = 0
		} else {
			e.Speed -= decay
		}
	case e.Speed < 0:
		if e.Speed+decay >= 0 {
			e.Speed = 0
		} else {
			e.Speed += decay
		}
	}
	e.Speed = Clamp(e.Speed, -e.Tuning.MaxSpeed, e.Tuning.MaxSpeed)
}

// Move integrates one tick of heading-relative displacement. Bound
// entities take their height and up axis from terrain; a candidate
// position off the map stops the entity where it stands.
func (e *Entity) Move(dt float64, terrain Terrain) bool {
	fwd := HeadingForward(e.RotationY)
	candidate := Vec3{
		X: e.Position.X + fwd.X*dt*e.Speed,
		Y: e.Position.Y,
		Z: e.Position.Z + fwd.Z*dt*e.Speed,
	}

	if !e.BoundToHeightmap || terrain == nil {
		e.Position = candidate
		e.Frame = FlatFrame(e.RotationY)
		return true
	}

	if !terrain.IsOnHeightmap(candidate) {
		e.Stop()
		return false
	}
	h, n := terrain.HeightAndNormal(candidate)
	candidate.Y = h + e.HeightOffset
	e.Position = candidate
	e.Frame = GroundFrame(fwd, n)
	return true
}

// AdjustToHeightmap re-derives height and orientation without moving
func (e *Entity) AdjustToHeightmap(terrain Terrain) {
	if !e.BoundToHeightmap || terrain == nil || !terrain.IsOnHeightmap(e.Position) {
		return
	}
	h, n := terrain.HeightAndNormal(e.Position)
	e.Position.Y = h + e.HeightOffset
	e.Frame = GroundFrame(HeadingForward(e.RotationY), n)
}

// UpdateSphere moves the collision sphere onto the current position
func (e *Entity) UpdateSphere() {
	e.Sphere = Sphere{Center: e.Position, Radius: e.CollisionRadius}
}

// Update advances the entity by one tick
func (e *Entity) Update(ctx *TickContext) {
	if e.Kind == KindRocket {
		e.updateRocket(ctx)
		return
	}
	if e.Player != nil {
		e.Player.tickTimers(ctx.DT)
	}
	if e.Wander != nil {
		e.Wander.Step(e, ctx.DT, ctx.RNG)
	}
	e.drainCommands(ctx)
	e.applyTimeBehaviors(ctx)

	if e.Collidable && e.reacts() {
		e.UpdateCollision(ctx)
	}

	e.ComputeSpeed(ctx.DT)
	e.Move(ctx.DT, ctx.Terrain)
	e.UpdateSphere()

	if e.Player != nil {
		e.afterPlayerUpdate(ctx)
	}
}

func (e *Entity) drainCommands(ctx *TickContext) {
	for _, cmd := range e.commands {
		switch cmd {
		case CmdTurnLeft:
			e.TurnLeft(ctx.DT)
		case CmdTurnRight:
			e.TurnRight(ctx.DT)
		case CmdAccelerate:
			e.Accelerate(ctx.DT)
		case CmdDecelerate:
			e.Decelerate(ctx.DT)
		case CmdStop:
			e.Stop()
		case CmdShoot:
			e.Shoot(ctx)
		}
	}
	e.commands = e.commands[:0]
}

func (e *Entity) applyTimeBehaviors(ctx *TickContext) {
	if e.SpinInTime {
		e.RotationY = ctx.Time * TimeRotationSpeed
	}
	if e.PulseInTime {
		t := int(ctx.Time)
		if t%4 == 0 {
			e.Accelerate(ctx.DT)
		} else if t%2 == 0 {
			e.Decelerate(ctx.DT)
		}
	}
}

// reacts reports whether the entity has a collision reaction at all.
// Scenery never reacts, so it skips the detection pass.
func (e *Entity) reacts() bool {
	return e.Kind == KindPlayer || e.Kind == KindRocket
}

// Shoot fires the entity's weapon. Players launch rockets; any other
// entity lobs a ballistic shell.
func (e *Entity) Shoot(ctx *TickContext) {
	if e.Player != nil {
		e.playerShoot(ctx)
		return
	}
	ctx.Sinks.Audio.PlaySound(SoundShoot, false, e.Position)
	ctx.Sinks.Spawn.AddProjectile(NewShell(e))
}

// IsActive reports whether the entity still takes part in collisions
func (e *Entity) IsActive() bool {
	return e.Rocket == nil || !e.Rocket.IsDead
}

// Label names the entity in logs and events
func (e *Entity) Label() string {
	if e.Player != nil && e.Player.Name != "" {
		return e.Player.Name
	}
	return fmt.Sprintf("%s#%d", e.Model, e.ID)
}
