package main

import "github.com/go-gl/mathgl/mgl64"

// Vec3 is a 3D vector in world units. Y is up. The named fields keep the
// wire and snapshot encodings stable; the math runs on mgl64.
type Vec3 struct {
	X, Y, Z float64
}

func V3(x, y, z float64) Vec3 { return Vec3{x, y, z} }

var (
	VecUp   = Vec3{0, 1, 0}
	VecZero = Vec3{}

	// forward axis at heading 0
	headingAxis = mgl64.Vec3{0, 0, -1}
)

func (v Vec3) mgl() mgl64.Vec3      { return mgl64.Vec3{v.X, v.Y, v.Z} }
func fromMgl(m mgl64.Vec3) Vec3     { return Vec3{m[0], m[1], m[2]} }
func (v Vec3) Add(o Vec3) Vec3      { return fromMgl(v.mgl().Add(o.mgl())) }
func (v Vec3) Sub(o Vec3) Vec3      { return fromMgl(v.mgl().Sub(o.mgl())) }
func (v Vec3) Scale(s float64) Vec3 { return fromMgl(v.mgl().Mul(s)) }
func (v Vec3) Dot(o Vec3) float64   { return v.mgl().Dot(o.mgl()) }
func (v Vec3) Cross(o Vec3) Vec3    { return fromMgl(v.mgl().Cross(o.mgl())) }
func (v Vec3) Len() float64         { return v.mgl().Len() }
func (v Vec3) LenSq() float64       { return v.mgl().LenSqr() }

// Normalize returns the unit vector, or zero for a zero-length input
func (v Vec3) Normalize() Vec3 {
	m := v.mgl()
	if m.LenSqr() < 1e-20 {
		return Vec3{}
	}
	return fromMgl(m.Normalize())
}

// Frame is an orthonormal orientation basis.
type Frame struct {
	Forward Vec3
	Up      Vec3
	Right   Vec3
}

// HeadingForward returns the unit forward vector for a heading.
// Heading 0 faces -Z; positive headings turn toward -X.
func HeadingForward(rotationY float64) Vec3 {
	return fromMgl(mgl64.Rotate3DY(rotationY).Mul3x1(headingAxis))
}

// FlatFrame builds the frame used when an entity is not bound to terrain.
func FlatFrame(rotationY float64) Frame {
	rot := mgl64.Rotate3DY(rotationY)
	return Frame{
		Forward: fromMgl(rot.Mul3x1(headingAxis)),
		Up:      VecUp,
		Right:   fromMgl(rot.Mul3x1(mgl64.Vec3{1, 0, 0})),
	}
}

// GroundFrame re-orthogonalizes a heading against a ground normal so the
// entity banks with the slope.
func GroundFrame(forward, normal Vec3) Frame {
	up := normal.Normalize()
	if up == VecZero {
		up = VecUp
	}
	right := forward.Cross(up).Normalize()
	if right == VecZero {
		// forward parallel to the normal; fall back to the flat right axis
		right = Vec3{1, 0, 0}
	}
	return Frame{
		Forward: up.Cross(right).Normalize(),
		Up:      up,
		Right:   right,
	}
}

// Sphere is a collision proxy.
type Sphere struct {
	Center Vec3
	Radius float64
}

// Intersects reports whether two spheres touch or overlap.
func (s Sphere) Intersects(o Sphere) bool {
	return CheckCollision(s.Center, s.Radius, o.Center, o.Radius)
}
