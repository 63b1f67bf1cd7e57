package main

const (
	RocketSpeed        = 1500.0 // units/s
	RocketSpin         = 4.0    // radians/s around the forward axis
	RocketRadius       = 20.0
	RocketHeightOffset = 60.0
	RocketModel        = "rocket"
)

// RocketData is the payload of a rocket entity
type RocketData struct {
	Owner  *Entity
	IsDead bool
	Age    float64

	seenDead bool
}

// NewRocket launches a rocket from the owner's position along its heading
func NewRocket(owner *Entity) *Entity {
	e := &Entity{
		Kind:   KindRocket,
		Model:  RocketModel,
		Tuning: DefaultTuning(),
		Scale:  1,
		Alpha:  1,
		Rocket: &RocketData{Owner: owner},
	}
	e.Tuning.MaxSpeed = RocketSpeed
	e.SetCollision(RocketRadius)
	e.Fly(owner.Position, owner.RotationY)
	return e
}

// Fly places the rocket and sets it moving at full speed
func (e *Entity) Fly(from Vec3, heading float64) {
	e.BoundToHeightmap = true
	e.HeightOffset = RocketHeightOffset
	e.Position = from
	e.RotationY = heading
	e.Frame = FlatFrame(heading)
	e.Speed = RocketSpeed
	e.UpdateSphere()
}

// Die marks the rocket dead. It stops colliding immediately.
func (e *Entity) Die() {
	if e.Rocket == nil {
		return
	}
	e.Rocket.IsDead = true
	e.Speed = 0
}

// IsDead reports whether a rocket has been destroyed
func (e *Entity) IsDead() bool {
	return e.Rocket != nil && e.Rocket.IsDead
}

func (e *Entity) rocketOnCollision(other *Entity) {
	if other.Category == CategoryEgg || other.Category == CategoryStone {
		e.Die()
	}
}

func (e *Entity) updateRocket(ctx *TickContext) {
	r := e.Rocket
	if r.IsDead {
		e.Speed = 0
		e.commands = e.commands[:0]
		e.UpdateSphere()
		return
	}

	e.drainCommands(ctx)
	r.Age += ctx.DT
	e.RotationZ = r.Age * RocketSpin

	if e.Collidable && !r.IsDead {
		e.UpdateCollision(ctx)
	}
	if r.IsDead {
		e.UpdateSphere()
		return
	}

	e.Speed = RocketSpeed
	e.Move(ctx.DT, ctx.Terrain)
	e.UpdateSphere()
}
