package main

import (
	"math"
	"slices"
)

const (
	MaxPushBackIterations = 32
	pushBackSeparation    = 0.01 // extra gap left by the fallback snap
	snapEdgeInset         = 0.5  // IsOnHeightmap excludes the border itself
)

// CheckCollision checks if two spheres touch or overlap
func CheckCollision(c1 Vec3, r1 float64, c2 Vec3, r2 float64) bool {
	d := c2.Sub(c1)
	radSum := r1 + r2
	return d.LenSq() <= radSum*radSum
}

// InCollisionWith reports whether both entities are collidable, distinct,
// live and their current spheres intersect.
func (e *Entity) InCollisionWith(other *Entity) bool {
	if other == nil || other == e || !e.Collidable || !other.Collidable {
		return false
	}
	if !e.IsActive() || !other.IsActive() {
		return false
	}
	return e.Sphere.Intersects(other.Sphere)
}

// UpdateCollision runs the gated detection pass against the tick's
// collidable snapshot.
func (e *Entity) UpdateCollision(ctx *TickContext) {
	e.collisionCD.Tick(ctx.DT)
	if !e.collisionCD.Ready() {
		return
	}
	if ctx.World != nil {
		for _, other := range ctx.World.Candidates(e) {
			if !e.IsActive() {
				break
			}
			if e.InCollisionWith(other) {
				e.OnCollision(other, ctx)
			}
		}
	}
	e.collisionCD.Arm(CollisionInterval)
}

// OnCollision dispatches to the kind's reaction
func (e *Entity) OnCollision(other *Entity, ctx *TickContext) {
	switch e.Kind {
	case KindPlayer:
		e.playerOnCollision(other, ctx)
	case KindRocket:
		e.rocketOnCollision(other)
	}
}

// PushBack backs the entity out of other by repeated reverse steps. If the
// steps cannot separate them in MaxPushBackIterations (zero dt, terrain
// edge, other pinned by a third body) the entity is snapped along the
// ground-plane axis to just outside other.
func (e *Entity) PushBack(other *Entity, ctx *TickContext) {
	for i := 0; i < MaxPushBackIterations; i++ {
		if !e.Sphere.Intersects(other.Sphere) {
			return
		}
		e.MoveBack(ctx)
	}
	if !e.Sphere.Intersects(other.Sphere) {
		return
	}

	e.snapOutOf(other, ctx)
	ctx.Log.Warn().
		Str("entity", e.Label()).
		Str("other", other.Label()).
		Int("iterations", MaxPushBackIterations).
		Msg("push-back did not separate, snapped out")
	ctx.Sinks.Events.RecordEvent(CombatEvent{
		Kind:   EventPushBackFallback,
		Time:   ctx.Time,
		Actor:  e.Label(),
		Target: other.Label(),
	})
}

// MoveBack applies one reverse movement step and leaves the entity at rest
func (e *Entity) MoveBack(ctx *TickContext) {
	e.Speed = 0
	e.Decelerate(ctx.DT)
	e.ComputeSpeed(ctx.DT)
	e.Move(ctx.DT, ctx.Terrain)
	e.Speed = 0
	e.UpdateSphere()
}

func (e *Entity) snapOutOf(other *Entity, ctx *TickContext) {
	axis := Vec3{e.Position.X - other.Position.X, 0, e.Position.Z - other.Position.Z}
	if axis.LenSq() < 1e-12 {
		// coincident centers; back out along our own heading
		axis = HeadingForward(e.RotationY).Scale(-1)
	}
	axis = axis.Normalize()

	// vertical offset may differ, so solve the XZ distance that clears
	// the sphere sum for the current height difference
	sum := e.CollisionRadius + other.CollisionRadius + pushBackSeparation
	dy := e.Position.Y - other.Position.Y
	dist := sum
	if dy*dy < sum*sum {
		dist = math.Sqrt(sum*sum-dy*dy) + pushBackSeparation
	}

	target := Vec3{other.Position.X + axis.X*dist, e.Position.Y, other.Position.Z + axis.Z*dist}
	if e.BoundToHeightmap && ctx.Terrain != nil && !ctx.Terrain.IsOnHeightmap(target) {
		target = snapOnMap(ctx.Terrain, other.Position, axis, dist)
	}
	e.Position.X, e.Position.Z = target.X, target.Z
	e.Speed = 0
	e.AdjustToHeightmap(ctx.Terrain)
	e.UpdateSphere()
}

// snapOnMap keeps a snap target on the map: the opposite side of other
// first, then the nearest point strictly inside the bounds
func snapOnMap(terrain Terrain, center, axis Vec3, dist float64) Vec3 {
	flipped := Vec3{center.X - axis.X*dist, 0, center.Z - axis.Z*dist}
	if terrain.IsOnHeightmap(flipped) {
		return flipped
	}
	minX, maxX, minZ, maxZ := terrain.Bounds()
	return Vec3{
		X: Clamp(center.X+axis.X*dist, minX+snapEdgeInset, maxX-snapEdgeInset),
		Z: Clamp(center.Z+axis.Z*dist, minZ+snapEdgeInset, maxZ-snapEdgeInset),
	}
}

// CollisionWorld is the per-tick snapshot of collidable entities with a
// ground-plane broad phase over it.
type CollisionWorld struct {
	entities []*Entity
	grid     *SpatialGrid
	margin   float64
	maxR     float64
	buf      []EntityRef
	seen     map[int]struct{}
}

// NewCollisionWorld snapshots the collidable entities. margin widens every
// query to cover movement that happens after the snapshot is taken.
func NewCollisionWorld(entities []*Entity, grid *SpatialGrid, margin float64) *CollisionWorld {
	w := &CollisionWorld{
		grid:   grid,
		margin: margin,
		seen:   make(map[int]struct{}),
	}
	if grid != nil {
		grid.Clear()
	}
	for _, e := range entities {
		if !e.Collidable || !e.IsActive() {
			continue
		}
		idx := len(w.entities)
		w.entities = append(w.entities, e)
		if e.CollisionRadius > w.maxR {
			w.maxR = e.CollisionRadius
		}
		if grid != nil {
			grid.InsertCircle(e.Position.X, e.Position.Z, e.CollisionRadius, EntityRef{Kind: byte(e.Kind), Idx: idx})
		}
	}
	return w
}

// Len returns the number of entities in the snapshot
func (w *CollisionWorld) Len() int { return len(w.entities) }

// Entities returns the snapshot in roster order
func (w *CollisionWorld) Entities() []*Entity { return w.entities }

// Candidates returns every snapshot entity that might touch e, in roster
// order and without duplicates. Without a grid it is the whole snapshot.
func (w *CollisionWorld) Candidates(e *Entity) []*Entity {
	if w.grid == nil {
		return w.entities
	}
	radius := e.CollisionRadius + w.maxR + w.margin
	w.buf = w.grid.QueryBuf(e.Position.X, e.Position.Z, radius, w.buf[:0])

	clear(w.seen)
	idxs := make([]int, 0, len(w.buf))
	for _, ref := range w.buf {
		if _, dup := w.seen[ref.Idx]; dup {
			continue
		}
		w.seen[ref.Idx] = struct{}{}
		idxs = append(idxs, ref.Idx)
	}
	slices.Sort(idxs)

	out := make([]*Entity, 0, len(idxs))
	for _, i := range idxs {
		if w.entities[i] != e {
			out = append(out, w.entities[i])
		}
	}
	return out
}
