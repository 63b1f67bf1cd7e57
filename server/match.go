package main

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"
)

const (
	DefaultSpawnRange      = 1000.0
	DefaultQueryMargin     = 64.0
	maxPlacementAttempts   = 16
	maxRocketsPerMatch     = 200
	maxProjectilesPerMatch = 100
	SurfaceModel           = "surface"
	SurfaceHeight          = 2000.0
	SurfaceMovementStep    = 600.0
	SurfaceFriction        = 300.0
)

var (
	ErrNilTerrain  = errors.New("match requires a terrain")
	ErrBadSetup    = errors.New("invalid match setup")
	ErrMatchIsOver = errors.New("match is over")
)

// PlayerSetup places one player at match start
type PlayerSetup struct {
	Name     string
	Model    string
	Position Vec3
	Heading  float64
	AutoFire bool
	Bot      bool // driven by wander instead of input
}

// ScenerySetup scatters Count copies of one model
type ScenerySetup struct {
	Model    string
	Category Category
	Count    int
	Radius   float64 // 0 = not collidable
	Scale    float64
	Wander   bool
}

// MatchSetup holds settings for a match
type MatchSetup struct {
	Seed         int64
	Players      [2]PlayerSetup
	Scenery      []ScenerySetup
	SpawnRange   float64 // scenery is placed in [-SpawnRange, SpawnRange)
	TimeLimit    float64 // seconds, 0 = unlimited
	Tuning       Tuning
	PlayerTuning PlayerTuning
	CellSize     float64
	QueryMargin  float64
	Surface      bool
}

// DefaultScenery returns the standard arena layout
func DefaultScenery() []ScenerySetup {
	return []ScenerySetup{
		{Model: "egg", Category: CategoryEgg, Count: 3, Radius: 60},
		{Model: "stone", Category: CategoryStone, Count: 6, Radius: 70},
		{Model: "seagrass_big_1", Category: CategoryBigSeagrass, Count: 30, Radius: 25},
		{Model: "seagrass_big_2", Category: CategoryBigSeagrass, Count: 30, Radius: 25},
		{Model: "seagrass_small_1", Category: CategorySmallSeagrass, Count: 30},
		{Model: "seagrass_small_2", Category: CategorySmallSeagrass, Count: 30},
		{Model: "sea_flower", Category: CategorySeaFlower, Count: 20, Radius: 30},
		{Model: "urchin_long_black", Category: CategoryUrchin, Count: 10, Radius: 35},
		{Model: "urchin_long_red", Category: CategoryUrchin, Count: 10, Radius: 35},
		{Model: "urchin_short_black", Category: CategoryUrchin, Count: 10, Radius: 30},
		{Model: "urchin_short_red", Category: CategoryUrchin, Count: 10, Radius: 30},
	}
}

// DefaultMatchSetup returns the standard two-player arena
func DefaultMatchSetup(seed int64) MatchSetup {
	return MatchSetup{
		Seed: seed,
		Players: [2]PlayerSetup{
			{Name: "Player 1", Model: "octopus", Position: Vec3{400, 0, -400}},
			{Name: "Player 2", Model: "octopus", Position: Vec3{200, 0, 200}, AutoFire: true},
		},
		Scenery:      DefaultScenery(),
		SpawnRange:   DefaultSpawnRange,
		Tuning:       DefaultTuning(),
		PlayerTuning: DefaultPlayerTuning(),
		CellSize:     DefaultSpatialCellSize,
		QueryMargin:  DefaultQueryMargin,
		Surface:      true,
	}
}

// Validate rejects setups that cannot build a match
func (s MatchSetup) Validate() error {
	for i, p := range s.Players {
		if p.Model == "" {
			return fmt.Errorf("%w: player %d: %w", ErrBadSetup, i+1, ErrMissingModel)
		}
	}
	for _, sc := range s.Scenery {
		if sc.Model == "" {
			return fmt.Errorf("%w: scenery: %w", ErrBadSetup, ErrMissingModel)
		}
		if sc.Count < 0 || sc.Radius < 0 {
			return fmt.Errorf("%w: scenery %s: negative count or radius", ErrBadSetup, sc.Model)
		}
	}
	if s.SpawnRange <= 0 {
		return fmt.Errorf("%w: spawn range must be positive", ErrBadSetup)
	}
	if s.TimeLimit < 0 {
		return fmt.Errorf("%w: time limit must not be negative", ErrBadSetup)
	}
	if err := s.Tuning.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrBadSetup, err)
	}
	return nil
}

// PlayerInput is one tick of held controls for a player
type PlayerInput struct {
	Left     bool
	Right    bool
	Forward  bool
	Backward bool
	Shoot    bool
}

// MatchResult summarizes a finished match
type MatchResult struct {
	Winner   string
	Loser    string
	Draw     bool
	Duration float64
	Ticks    uint64
}

// Match owns the entity roster and advances it one tick at a time. It is
// not safe for concurrent use; the Runner serializes access.
type Match struct {
	ID    string
	Seed  int64
	setup MatchSetup

	rng     *rand.Rand
	terrain Terrain
	grid    *SpatialGrid
	log     zerolog.Logger
	ext     Sinks

	roster      []*Entity
	players     [2]*Entity
	pending     []*Entity
	projectiles []*Projectile
	nextID      int

	time   float64
	tick   uint64
	events []CombatEvent
	result *MatchResult
}

// NewMatch lays out a new match on terrain. sinks may leave any collaborator
// nil; missing ones become no-ops.
func NewMatch(setup MatchSetup, terrain Terrain, sinks Sinks, logger zerolog.Logger) (*Match, error) {
	if terrain == nil {
		return nil, ErrNilTerrain
	}
	if err := setup.Validate(); err != nil {
		return nil, err
	}
	minX, maxX, minZ, maxZ := terrain.Bounds()
	m := &Match{
		ID:      GenerateID(),
		Seed:    setup.Seed,
		setup:   setup,
		rng:     rand.New(rand.NewSource(setup.Seed)),
		terrain: terrain,
		grid:    NewSpatialGrid(minX, maxX, minZ, maxZ, setup.CellSize),
		ext:     sinks.withDefaults(),
	}
	m.log = logger.With().Str("match", m.ID).Logger()

	for i, ps := range setup.Players {
		p, err := NewPlayer(i+1, ps.Name, ps.Model)
		if err != nil {
			return nil, err
		}
		p.Tuning = setup.Tuning
		p.Player.Tuning = setup.PlayerTuning
		p.Player.AutoFire = ps.AutoFire
		p.Position = ps.Position
		p.RotationY = ps.Heading
		if ps.Bot {
			p.Wander = NewWander()
		}
		p.AdjustToHeightmap(terrain)
		p.UpdateSphere()
		m.players[i] = p
		m.add(p)
	}
	m.players[0].Player.Opponent = m.players[1]
	m.players[1].Player.Opponent = m.players[0]

	if setup.Surface {
		m.add(newSurface())
	}
	for _, sc := range setup.Scenery {
		for i := 0; i < sc.Count; i++ {
			e, err := m.placeScenery(sc)
			if err != nil {
				return nil, err
			}
			m.add(e)
		}
	}

	m.ext.Audio.PlaySound(SoundBackground, true, VecZero)
	m.log.Info().Int64("seed", setup.Seed).Int("entities", len(m.roster)).Msg("match created")
	return m, nil
}

func newSurface() *Entity {
	e := &Entity{
		Kind:        KindScenery,
		Category:    CategorySurface,
		Model:       SurfaceModel,
		Position:    Vec3{0, SurfaceHeight, 0},
		RotationX:   math.Pi,
		Scale:       1,
		Alpha:       0.9,
		PulseInTime: true,
		Tuning:      DefaultTuning(),
	}
	e.Tuning.MovementStep = SurfaceMovementStep
	e.Tuning.Friction = SurfaceFriction
	e.Frame = FlatFrame(0)
	return e
}

// placeScenery drops one copy at a random spot that does not overlap a player
func (m *Match) placeScenery(sc ScenerySetup) (*Entity, error) {
	e, err := NewEntity(sc.Model, sc.Category)
	if err != nil {
		return nil, err
	}
	if sc.Scale > 0 {
		e.Scale = sc.Scale
	}
	e.BoundToHeightmap = true
	e.SetCollision(sc.Radius)
	if sc.Wander {
		e.Wander = NewWander()
	}

	for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
		e.Position = Vec3{
			X: randRange(m.rng, -m.setup.SpawnRange, m.setup.SpawnRange),
			Z: randRange(m.rng, -m.setup.SpawnRange, m.setup.SpawnRange),
		}
		e.RotationY = randRange(m.rng, 0, 2*math.Pi)
		if !m.overlapsPlayer(e) {
			break
		}
	}
	e.AdjustToHeightmap(m.terrain)
	e.UpdateSphere()
	return e, nil
}

func (m *Match) overlapsPlayer(e *Entity) bool {
	if !e.Collidable {
		return false
	}
	for _, p := range m.players {
		if p != nil && DistanceXZ(p.Position, e.Position) <= p.CollisionRadius+e.CollisionRadius {
			return true
		}
	}
	return false
}

func (m *Match) add(e *Entity) {
	m.nextID++
	e.ID = m.nextID
	m.roster = append(m.roster, e)
}

// AddRocket queues a rocket; it joins the roster after the update pass
func (m *Match) AddRocket(owner *Entity) {
	if len(m.pending)+m.rocketCount() >= maxRocketsPerMatch {
		return
	}
	m.pending = append(m.pending, NewRocket(owner))
}

// AddProjectile queues a ballistic shell
func (m *Match) AddProjectile(p *Projectile) {
	if len(m.projectiles) >= maxProjectilesPerMatch {
		return
	}
	m.projectiles = append(m.projectiles, p)
}

// AddScreen records the result and forwards the screen. Only the first
// match-over screen counts.
func (m *Match) AddScreen(s Screen) {
	if over, ok := s.(MatchOverScreen); ok {
		if m.result != nil {
			m.log.Warn().Str("loser", over.Loser).Msg("match already decided")
			return
		}
		m.result = &MatchResult{
			Winner:   over.Winner,
			Loser:    over.Loser,
			Draw:     over.Draw,
			Duration: m.time,
			Ticks:    m.tick,
		}
		m.log.Info().Str("winner", over.Winner).Str("loser", over.Loser).
			Float64("duration", m.time).Msg("match over")
	}
	m.ext.Screen.AddScreen(s)
}

// SetBloomPreset forwards a visual cue
func (m *Match) SetBloomPreset(slot int, preset string) {
	m.ext.Screen.SetBloomPreset(slot, preset)
}

// RecordEvent stamps and collects an event for this tick
func (m *Match) RecordEvent(ev CombatEvent) {
	ev.Tick = m.tick
	m.events = append(m.events, ev)
	m.ext.Events.RecordEvent(ev)
	m.log.Debug().Str("kind", string(ev.Kind)).Str("actor", ev.Actor).
		Str("target", ev.Target).Int("hp", ev.HP).Msg("event")
}

// Tick advances the whole match by dt seconds and returns the events it produced
func (m *Match) Tick(dt float64, inputs [2]PlayerInput) []CombatEvent {
	m.events = m.events[:0]
	m.tick++
	m.time += dt

	for i, p := range m.players {
		if p.Wander == nil {
			p.ApplyInput(inputs[i])
		}
	}

	ctx := &TickContext{
		DT:      dt,
		Time:    m.time,
		Tick:    m.tick,
		Terrain: m.terrain,
		RNG:     m.rng,
		World:   NewCollisionWorld(m.roster, m.grid, m.setup.QueryMargin),
		Sinks: Sinks{
			Audio:     m.ext.Audio,
			Spawn:     m,
			Particles: m.ext.Particles,
			Screen:    m,
			Events:    m,
		},
		Log: m.log,
	}

	for _, e := range m.roster {
		e.Update(ctx)
	}

	live := m.projectiles[:0]
	for _, p := range m.projectiles {
		if p.Update(dt, m.ext.Particles) {
			live = append(live, p)
		}
	}
	clear(m.projectiles[len(live):])
	m.projectiles = live

	m.sweepRockets()
	for _, r := range m.pending {
		m.add(r)
	}
	m.pending = m.pending[:0]

	if m.result == nil && m.setup.TimeLimit > 0 && m.time >= m.setup.TimeLimit {
		m.timeUp(ctx)
	}
	return m.events
}

// sweepRockets drops rockets one tick after they died so the renderer
// sees each death once
func (m *Match) sweepRockets() {
	kept := m.roster[:0]
	for _, e := range m.roster {
		if e.IsDead() {
			if e.Rocket.seenDead {
				continue
			}
			e.Rocket.seenDead = true
		}
		kept = append(kept, e)
	}
	clear(m.roster[len(kept):])
	m.roster = kept
}

// timeUp ends the match on the clock. More HP wins; equal HP is a draw.
func (m *Match) timeUp(ctx *TickContext) {
	a, b := m.players[0].Player, m.players[1].Player
	screen := MatchOverScreen{Time: m.time}
	switch {
	case a.HP > b.HP:
		screen.Winner, screen.Loser, screen.LoserSlot = a.Name, b.Name, b.Slot
	case b.HP > a.HP:
		screen.Winner, screen.Loser, screen.LoserSlot = b.Name, a.Name, a.Slot
	default:
		screen.Draw = true
	}
	a.IsOver, b.IsOver = true, true
	m.AddScreen(screen)
	m.RecordEvent(CombatEvent{Kind: EventMatchOver, Time: ctx.Time, Actor: screen.Winner, Target: screen.Loser})
}

func (m *Match) rocketCount() int {
	n := 0
	for _, e := range m.roster {
		if e.Kind == KindRocket {
			n++
		}
	}
	return n
}

// Entities returns the roster in update order
func (m *Match) Entities() []*Entity { return m.roster }

// Players returns both player entities
func (m *Match) Players() [2]*Entity { return m.players }

// Projectiles returns the live ballistic shells
func (m *Match) Projectiles() []*Projectile { return m.projectiles }

// Collidables returns the current collidable subset
func (m *Match) Collidables() []*Entity {
	return NewCollisionWorld(m.roster, nil, 0).Entities()
}

// RNG returns the match's seeded random source
func (m *Match) RNG() *rand.Rand { return m.rng }

// Terrain returns the match terrain
func (m *Match) Terrain() Terrain { return m.terrain }

// Time returns elapsed match time in seconds
func (m *Match) Time() float64 { return m.time }

// TickCount returns the number of ticks run
func (m *Match) TickCount() uint64 { return m.tick }

// IsOver reports whether a result has been decided
func (m *Match) IsOver() bool { return m.result != nil }

// Result returns the match result, or nil while it is running
func (m *Match) Result() *MatchResult { return m.result }
