package main

import (
	"math"
	"testing"
)

func TestNewRocketFlies(t *testing.T) {
	hm := flatTerrain()
	owner := mustPlayer(t, 1, "P1", Vec3{100, 0, 100}, hm)
	owner.RotationY = math.Pi

	r := NewRocket(owner)
	if r.Rocket.Owner != owner || r.Kind != KindRocket {
		t.Fatal("rocket should reference its owner")
	}
	if r.Speed != RocketSpeed || r.RotationY != math.Pi {
		t.Errorf("rocket should fly at full speed along the owner's heading, got speed %v heading %v", r.Speed, r.RotationY)
	}
	if r.CollisionRadius != RocketRadius || !r.BoundToHeightmap {
		t.Error("rocket should be a bound collidable")
	}

	ctx := testCtx(0.1, hm, newRecorder(), r)
	r.Update(ctx)
	// heading π faces +Z
	if !approx(r.Position.Z, 100+RocketSpeed*0.1, 1e-6) {
		t.Errorf("expected Z %v, got %v", 100+RocketSpeed*0.1, r.Position.Z)
	}
	if !approx(r.Position.Y, RocketHeightOffset, 1e-9) {
		t.Errorf("rocket should ride %v above the ground, got %v", RocketHeightOffset, r.Position.Y)
	}
	if !approx(r.RotationZ, 0.1*RocketSpin, 1e-9) {
		t.Errorf("rocket should spin, got %v", r.RotationZ)
	}
	if r.Speed != RocketSpeed {
		t.Errorf("friction must not slow a rocket, got %v", r.Speed)
	}
}

func TestRocketDiesOffMap(t *testing.T) {
	hm := FlatHeightMap(1000, 1000, 20, 0)
	owner := mustPlayer(t, 1, "P1", Vec3{0, 0, -450}, hm)
	r := NewRocket(owner) // heading 0: toward the -Z edge

	ctx := testCtx(0.1, hm, newRecorder(), r)
	r.Update(ctx)
	if !r.IsDead() {
		t.Error("rocket leaving the map should die")
	}
	if r.IsActive() {
		t.Error("dead rocket should be inactive")
	}
	pos := r.Position
	r.Update(ctx)
	if r.Position != pos || r.Speed != 0 {
		t.Error("dead rocket should stay put")
	}
}

func TestRocketDiesOnStone(t *testing.T) {
	hm := flatTerrain()
	owner := mustPlayer(t, 1, "P1", Vec3{0, 0, 1000}, hm)
	stone := mustScenery(t, "stone", CategoryStone, 70, Vec3{}, hm)
	r := NewRocket(owner)
	r.Position = Vec3{0, 0, 50}
	r.UpdateSphere()

	r.Update(testCtx(0.01, hm, newRecorder(), r, stone))
	if !r.IsDead() {
		t.Error("rocket should die on a stone")
	}
}

func TestRocketDiesOnEgg(t *testing.T) {
	hm := flatTerrain()
	owner := mustPlayer(t, 1, "P1", Vec3{0, 0, 1000}, hm)
	egg := mustScenery(t, "egg", CategoryEgg, 60, Vec3{}, hm)
	r := NewRocket(owner)
	r.Position = Vec3{}
	r.UpdateSphere()

	r.Update(testCtx(0.01, hm, newRecorder(), r, egg))
	if !r.IsDead() {
		t.Error("rocket should die on an egg")
	}
}

func TestRocketPassesThroughSeagrass(t *testing.T) {
	hm := flatTerrain()
	owner := mustPlayer(t, 1, "P1", Vec3{0, 0, 1000}, hm)
	grass := mustScenery(t, "seagrass_big_1", CategoryBigSeagrass, 25, Vec3{}, hm)
	flower := mustScenery(t, "sea_flower", CategorySeaFlower, 30, Vec3{}, hm)
	r := NewRocket(owner)
	r.Position = Vec3{}
	r.UpdateSphere()

	r.Update(testCtx(0.01, hm, newRecorder(), r, grass, flower))
	if r.IsDead() {
		t.Error("rocket should fly through seagrass and flowers")
	}
}

func TestStopKillsRocket(t *testing.T) {
	owner, _ := NewPlayer(1, "P1", "octopus")
	r := NewRocket(owner)
	r.Queue(CmdStop)
	r.Update(testCtx(0.01, nil, newRecorder(), r))
	if !r.IsDead() {
		t.Error("stop command should kill a rocket")
	}
}
