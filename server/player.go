package main

import "fmt"

const (
	PlayerMaxHP             = 10
	PlayerRadius            = 50.0
	PlayerHeightOffset      = 5.0
	PlayerShootRadius       = 1000.0
	PlayerActionInterval    = 0.8  // seconds between hit/heal reactions
	PlayerShootInterval     = 0.03 // seconds between rockets
	PlayerAutoShootInterval = 0.5  // seconds between auto-fire shots

	BloomDamage = "Blurry"
	BloomHeal   = "Subtle"
)

// PlayerTuning holds the combat timer lengths
type PlayerTuning struct {
	ActionInterval    float64
	ShootInterval     float64
	AutoShootInterval float64
}

// DefaultPlayerTuning returns the standard combat timers
func DefaultPlayerTuning() PlayerTuning {
	return PlayerTuning{
		ActionInterval:    PlayerActionInterval,
		ShootInterval:     PlayerShootInterval,
		AutoShootInterval: PlayerAutoShootInterval,
	}
}

// PlayerData is the payload of a player-controlled entity
type PlayerData struct {
	Slot     int // 1 or 2
	Name     string
	HP       int
	IsOver   bool
	AutoFire bool

	ActionCD    Cooldown
	ShootCD     Cooldown
	AutoShootCD Cooldown
	Tuning      PlayerTuning

	ShootRange Sphere
	Opponent   *Entity

	lastShoot bool
}

// NewPlayer creates a heightmap-bound player entity
func NewPlayer(slot int, name, model string) (*Entity, error) {
	if slot != 1 && slot != 2 {
		return nil, fmt.Errorf("player slot must be 1 or 2, got %d", slot)
	}
	e, err := NewEntity(model, CategoryNone)
	if err != nil {
		return nil, err
	}
	e.Kind = KindPlayer
	e.BoundToHeightmap = true
	e.HeightOffset = PlayerHeightOffset
	e.SetCollision(PlayerRadius)
	e.Player = &PlayerData{
		Slot:       slot,
		Name:       name,
		HP:         PlayerMaxHP,
		Tuning:     DefaultPlayerTuning(),
		ShootRange: Sphere{Radius: PlayerShootRadius},
	}
	return e, nil
}

func (p *PlayerData) tickTimers(dt float64) {
	p.ActionCD.Tick(dt)
	p.ShootCD.Tick(dt)
	p.AutoShootCD.Tick(dt)
}

// setHP clamps and stores HP, then fires match over if it hit zero
func (e *Entity) setHP(hp int, ctx *TickContext) {
	p := e.Player
	p.HP = ClampInt(hp, 0, PlayerMaxHP)
	e.checkMatchOver(ctx)
}

func (e *Entity) checkMatchOver(ctx *TickContext) {
	p := e.Player
	if p.HP > 0 || p.IsOver {
		return
	}
	p.IsOver = true
	screen := MatchOverScreen{Loser: p.Name, LoserSlot: p.Slot, Time: ctx.Time}
	if p.Opponent != nil && p.Opponent.Player != nil {
		// the result is decided for both sides; the winner takes no more damage
		p.Opponent.Player.IsOver = true
		screen.Winner = p.Opponent.Player.Name
	}
	ctx.Sinks.Screen.AddScreen(screen)
	ctx.Sinks.Events.RecordEvent(CombatEvent{
		Kind:   EventMatchOver,
		Time:   ctx.Time,
		Actor:  screen.Winner,
		Target: p.Name,
	})
}

// OnShot handles a hit by an enemy rocket
func (e *Entity) OnShot(ctx *TickContext) {
	p := e.Player
	if p.Slot == 1 {
		ctx.Sinks.Screen.SetBloomPreset(p.Slot, BloomDamage)
	}
	ctx.Sinks.Audio.PlaySound(SoundHit, false, e.Position)
	e.setHP(p.HP-1, ctx)
	e.recordHP(EventHit, ctx)
}

// OnUrchin handles touching an urchin
func (e *Entity) OnUrchin(ctx *TickContext) {
	p := e.Player
	if p.Slot == 1 {
		ctx.Sinks.Screen.SetBloomPreset(p.Slot, BloomDamage)
	}
	ctx.Sinks.Audio.PlaySound(SoundUrchin, false, e.Position)
	e.setHP(p.HP-1, ctx)
	e.recordHP(EventUrchin, ctx)
}

// OnSeaFlower heals one point. A full-health player gets no cue.
func (e *Entity) OnSeaFlower(ctx *TickContext) {
	p := e.Player
	if p.HP >= PlayerMaxHP {
		return
	}
	if p.Slot == 1 {
		ctx.Sinks.Screen.SetBloomPreset(p.Slot, BloomHeal)
	}
	ctx.Sinks.Audio.PlaySound(SoundSeaFlower, false, e.Position)
	e.setHP(p.HP+1, ctx)
	e.recordHP(EventHeal, ctx)
}

func (e *Entity) recordHP(kind EventKind, ctx *TickContext) {
	ctx.Sinks.Events.RecordEvent(CombatEvent{
		Kind:  kind,
		Time:  ctx.Time,
		Actor: e.Label(),
		HP:    e.Player.HP,
	})
}

func (e *Entity) playerOnCollision(other *Entity, ctx *TickContext) {
	p := e.Player

	switch {
	case other.Kind == KindPlayer || other.Category.Blocks():
		e.PushBack(other, ctx)
		return
	case other.Kind == KindRocket:
		if other.Rocket.Owner == e {
			return
		}
		if p.IsOver || !p.ActionCD.Ready() {
			return
		}
		other.Die()
		e.OnShot(ctx)
	case other.Category == CategoryUrchin:
		if p.IsOver || !p.ActionCD.Ready() {
			return
		}
		e.OnUrchin(ctx)
	case other.Category == CategorySeaFlower:
		if p.IsOver || !p.ActionCD.Ready() {
			return
		}
		e.OnSeaFlower(ctx)
	default:
		return
	}
	p.ActionCD.Arm(p.Tuning.ActionInterval)
}

func (e *Entity) playerShoot(ctx *TickContext) {
	p := e.Player
	if p.IsOver || !p.ShootCD.Ready() {
		return
	}
	ctx.Sinks.Audio.PlaySound(SoundShoot, false, e.Position)
	ctx.Sinks.Spawn.AddRocket(e)
	ctx.Sinks.Events.RecordEvent(CombatEvent{Kind: EventShot, Time: ctx.Time, Actor: e.Label()})
	p.ShootCD.Arm(p.Tuning.ShootInterval)
}

func (e *Entity) afterPlayerUpdate(ctx *TickContext) {
	p := e.Player
	p.ShootRange.Center = e.Position

	if p.AutoFire && p.Opponent != nil && p.AutoShootCD.Ready() &&
		p.ShootRange.Intersects(p.Opponent.Sphere) {
		e.playerShoot(ctx)
		p.AutoShootCD.Arm(p.Tuning.AutoShootInterval)
	}
	e.checkMatchOver(ctx)
}

// ApplyInput turns one tick of held keys into queued commands. Shooting
// is edge-triggered: it queues only when the key goes down.
func (e *Entity) ApplyInput(in PlayerInput) {
	if in.Left {
		e.Queue(CmdTurnLeft)
	}
	if in.Right {
		e.Queue(CmdTurnRight)
	}
	if in.Forward {
		e.Queue(CmdAccelerate)
	}
	if in.Backward {
		e.Queue(CmdDecelerate)
	}
	if e.Player == nil {
		return
	}
	if in.Shoot && !e.Player.lastShoot {
		e.Queue(CmdShoot)
	}
	e.Player.lastShoot = in.Shoot
}

// PlayerState is the renderer-facing view of a player
func (e *Entity) PlayerState() PlayerState {
	p := e.Player
	return PlayerState{
		ID:     e.ID,
		Slot:   p.Slot,
		Name:   p.Name,
		HP:     p.HP,
		MaxHP:  PlayerMaxHP,
		Over:   p.IsOver,
		Auto:   p.AutoFire,
		ShootR: p.ShootRange.Radius,
	}
}
