package main

import (
	"math/rand"
	"testing"
)

func TestCheckCollision(t *testing.T) {
	// Overlapping spheres
	if !CheckCollision(Vec3{0, 0, 0}, 10, Vec3{15, 0, 0}, 10) {
		t.Error("spheres should collide (overlapping)")
	}

	// Touching spheres
	if !CheckCollision(Vec3{0, 0, 0}, 10, Vec3{0, 0, 20}, 10) {
		t.Error("spheres should collide (touching)")
	}

	// Apart
	if CheckCollision(Vec3{0, 0, 0}, 10, Vec3{25, 0, 0}, 10) {
		t.Error("spheres should not collide")
	}

	// Same XZ but stacked vertically
	if CheckCollision(Vec3{0, 0, 0}, 10, Vec3{0, 30, 0}, 10) {
		t.Error("vertically separated spheres should not collide")
	}

	// Same position
	if !CheckCollision(Vec3{5, 5, 5}, 1, Vec3{5, 5, 5}, 1) {
		t.Error("same position should collide")
	}
}

func TestInCollisionWithExclusions(t *testing.T) {
	hm := flatTerrain()
	a := mustScenery(t, "stone", CategoryStone, 70, Vec3{}, hm)
	b := mustScenery(t, "egg", CategoryEgg, 60, Vec3{50, 0, 0}, hm)

	if !a.InCollisionWith(b) || !b.InCollisionWith(a) {
		t.Error("overlapping entities should collide both ways")
	}
	if a.InCollisionWith(a) {
		t.Error("an entity never collides with itself")
	}
	if a.InCollisionWith(nil) {
		t.Error("nil never collides")
	}

	grass := mustScenery(t, "seagrass_small_1", CategorySmallSeagrass, 0, Vec3{}, hm)
	if a.InCollisionWith(grass) || grass.InCollisionWith(a) {
		t.Error("non-collidable entities never collide")
	}

	owner := mustPlayer(t, 1, "P1", Vec3{500, 0, 500}, hm)
	r := NewRocket(owner)
	r.Position = Vec3{}
	r.UpdateSphere()
	if !a.InCollisionWith(r) {
		t.Fatal("live rocket inside the stone should collide")
	}
	r.Die()
	if a.InCollisionWith(r) || r.InCollisionWith(a) {
		t.Error("dead rocket should not collide")
	}
}

func TestCollisionSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	hm := flatTerrain()
	var ents []*Entity
	for i := 0; i < 40; i++ {
		pos := Vec3{randRange(rng, -300, 300), 0, randRange(rng, -300, 300)}
		ents = append(ents, mustScenery(t, "stone", CategoryStone, randRange(rng, 10, 60), pos, hm))
	}
	for _, a := range ents {
		for _, b := range ents {
			if a.InCollisionWith(b) != b.InCollisionWith(a) {
				t.Fatalf("collision not symmetric between %v and %v", a.Position, b.Position)
			}
		}
	}
}

func TestPushBackSeparates(t *testing.T) {
	hm := flatTerrain()
	stone := mustScenery(t, "stone", CategoryStone, 70, Vec3{0, 0, -100}, hm)
	p := mustPlayer(t, 1, "P1", Vec3{}, hm) // faces -Z, into the stone
	rec := newRecorder()
	ctx := testCtx(1.0/60, hm, rec, p, stone)

	if !p.InCollisionWith(stone) {
		t.Fatal("setup: player should overlap the stone")
	}
	p.Speed = 300
	p.PushBack(stone, ctx)

	if p.Sphere.Intersects(stone.Sphere) {
		t.Errorf("push-back should separate, player at %+v", p.Position)
	}
	if p.Position.Z <= 0 {
		t.Errorf("player should back away along +Z, got %+v", p.Position)
	}
	if p.Speed != 0 {
		t.Errorf("push-back leaves the entity at rest, speed %v", p.Speed)
	}
	if rec.count(EventPushBackFallback) != 0 {
		t.Error("regular push-back should not fall back")
	}
}

func TestPushBackFallbackSnaps(t *testing.T) {
	hm := flatTerrain()
	stone := mustScenery(t, "stone", CategoryStone, 70, Vec3{0, 0, -100}, hm)
	p := mustPlayer(t, 1, "P1", Vec3{}, hm)
	rec := newRecorder()
	// zero dt means the reverse steps cannot move the player
	ctx := testCtx(0, hm, rec, p, stone)

	p.PushBack(stone, ctx)

	if p.Sphere.Intersects(stone.Sphere) {
		t.Errorf("fallback must separate, player at %+v", p.Position)
	}
	if rec.count(EventPushBackFallback) != 1 {
		t.Errorf("expected one fallback event, got %d", rec.count(EventPushBackFallback))
	}
	if p.Position.X != 0 || p.Position.Z <= 0 {
		t.Errorf("snap should follow the centre axis, got %+v", p.Position)
	}
}

func TestPushBackFallbackStaysOnMap(t *testing.T) {
	hm := FlatHeightMap(1000, 1000, 20, 3) // bounds +-500
	stone := mustScenery(t, "stone", CategoryStone, 70, Vec3{450, 0, 0}, hm)
	p := mustPlayer(t, 1, "P1", Vec3{490, 0, 0}, hm)
	rec := newRecorder()
	ctx := testCtx(0, hm, rec, p, stone)

	p.PushBack(stone, ctx)

	if !hm.IsOnHeightmap(p.Position) {
		t.Fatalf("snap left the map: %+v", p.Position)
	}
	if p.Position.X >= stone.Position.X {
		t.Errorf("snap should flip to the open side of the stone, got %+v", p.Position)
	}
	if p.Sphere.Intersects(stone.Sphere) {
		t.Errorf("fallback must separate, player at %+v", p.Position)
	}
	if !approx(p.Position.Y, 3+p.HeightOffset, 1e-9) {
		t.Errorf("height should be re-derived after the snap, got %v", p.Position.Y)
	}
}

func TestSnapOnMapClampsInsideBounds(t *testing.T) {
	hm := FlatHeightMap(200, 200, 20, 0) // bounds +-100
	got := snapOnMap(hm, Vec3{}, Vec3{1, 0, 0}, 150)
	if !hm.IsOnHeightmap(got) {
		t.Fatalf("clamped snap should be on the map, got %+v", got)
	}
	if !approx(got.X, 100-snapEdgeInset, 1e-9) || got.Z != 0 {
		t.Errorf("expected the nearest point inside the east edge, got %+v", got)
	}
}

func TestPushBackCoincidentCentres(t *testing.T) {
	hm := flatTerrain()
	a := mustPlayer(t, 1, "P1", Vec3{}, hm)
	b := mustPlayer(t, 2, "P2", Vec3{}, hm)
	ctx := testCtx(0, hm, newRecorder(), a, b)

	a.PushBack(b, ctx)
	if a.Sphere.Intersects(b.Sphere) {
		t.Error("coincident players should still be separated")
	}
}

func TestPlayerBlockedByStone(t *testing.T) {
	hm := flatTerrain()
	stone := mustScenery(t, "stone", CategoryStone, 70, Vec3{0, 0, -200}, hm)
	p := mustPlayer(t, 1, "P1", Vec3{}, hm)
	rec := newRecorder()

	dt := 1.0 / 60
	for i := 0; i < 120; i++ {
		ctx := testCtx(dt, hm, rec, p, stone)
		ctx.Time = float64(i) * dt
		p.Queue(CmdAccelerate)
		p.Update(ctx)
		stone.Update(ctx)
	}
	// after the last move the player may overlap; the next detection
	// pass pushes it out, so it can never get past the stone's centre
	if p.Position.Z < stone.Position.Z {
		t.Errorf("player passed through the stone: %+v", p.Position)
	}
	if stone.Position != (Vec3{0, 0, -200}) {
		t.Errorf("scenery must not move, got %+v", stone.Position)
	}
}

func TestCollisionWorldCandidates(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	hm := flatTerrain()
	var ents []*Entity
	for i := 0; i < 200; i++ {
		pos := Vec3{randRange(rng, -1800, 1800), 0, randRange(rng, -1800, 1800)}
		ents = append(ents, mustScenery(t, "stone", CategoryStone, randRange(rng, 10, 80), pos, hm))
	}
	minX, maxX, minZ, maxZ := hm.Bounds()
	grid := NewSpatialGrid(minX, maxX, minZ, maxZ, DefaultSpatialCellSize)
	world := NewCollisionWorld(ents, grid, 0)

	if world.Len() != len(ents) {
		t.Fatalf("expected %d entities in world, got %d", len(ents), world.Len())
	}

	for _, e := range ents {
		want := map[*Entity]bool{}
		for _, o := range ents {
			if e.InCollisionWith(o) {
				want[o] = true
			}
		}
		got := map[*Entity]bool{}
		prev := -1
		for _, o := range world.Candidates(e) {
			if o == e {
				t.Fatal("candidates must exclude the querying entity")
			}
			idx := indexOf(ents, o)
			if idx <= prev {
				t.Fatal("candidates must be in roster order without duplicates")
			}
			prev = idx
			if e.InCollisionWith(o) {
				got[o] = true
			}
		}
		if len(got) != len(want) {
			t.Fatalf("broad phase missed collisions: want %d, got %d", len(want), len(got))
		}
	}
}

func TestCollisionWorldSkipsInactive(t *testing.T) {
	hm := flatTerrain()
	owner := mustPlayer(t, 1, "P1", Vec3{}, hm)
	r := NewRocket(owner)
	r.Die()
	grass := mustScenery(t, "seagrass_small_1", CategorySmallSeagrass, 0, Vec3{}, hm)

	w := NewCollisionWorld([]*Entity{owner, r, grass}, nil, 0)
	if w.Len() != 1 || w.Entities()[0] != owner {
		t.Errorf("world should hold only the live collidable player, got %d", w.Len())
	}
}

func indexOf(ents []*Entity, e *Entity) int {
	for i, o := range ents {
		if o == e {
			return i
		}
	}
	return -1
}
