package main

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Terrain is the height/normal query service the simulation consumes.
// Implementations must be safe to query every tick and are never mutated
// by the simulation.
type Terrain interface {
	IsOnHeightmap(pos Vec3) bool
	HeightAndNormal(pos Vec3) (float64, Vec3)
	Bounds() (minX, maxX, minZ, maxZ float64)
}

var ErrBadHeightMap = errors.New("invalid heightmap")

// HeightMap is an immutable grid of terrain samples centred on the world
// origin. Sample (0,0) sits at the minimum X/Z corner.
type HeightMap struct {
	width   int // samples along X
	depth   int // samples along Z
	scale   float64
	origin  Vec3
	heights []float64
	normals []Vec3
}

// NewHeightMap builds a heightmap from row-major samples (index z*width+x).
func NewHeightMap(width, depth int, scale float64, heights []float64) (*HeightMap, error) {
	if width < 2 || depth < 2 {
		return nil, fmt.Errorf("%w: need at least 2x2 samples, got %dx%d", ErrBadHeightMap, width, depth)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("%w: scale must be positive, got %v", ErrBadHeightMap, scale)
	}
	if len(heights) != width*depth {
		return nil, fmt.Errorf("%w: expected %d samples, got %d", ErrBadHeightMap, width*depth, len(heights))
	}
	hm := &HeightMap{
		width:   width,
		depth:   depth,
		scale:   scale,
		origin:  Vec3{-float64(width-1) * scale / 2, 0, -float64(depth-1) * scale / 2},
		heights: append([]float64(nil), heights...),
		normals: make([]Vec3, width*depth),
	}
	hm.computeNormals()
	return hm, nil
}

// FlatHeightMap returns a level heightmap covering width x depth world units.
func FlatHeightMap(sizeX, sizeZ, scale, height float64) *HeightMap {
	w := int(math.Ceil(sizeX/scale)) + 1
	d := int(math.Ceil(sizeZ/scale)) + 1
	heights := make([]float64, w*d)
	for i := range heights {
		heights[i] = height
	}
	hm, err := NewHeightMap(w, d, scale, heights)
	if err != nil {
		panic(err) // sizes above are always valid
	}
	return hm
}

// GenerateHeightMap builds rolling hills from a few random sine layers.
func GenerateHeightMap(rng *rand.Rand, width, depth int, scale, amplitude float64) (*HeightMap, error) {
	type layer struct{ fx, fz, px, pz, amp float64 }
	layers := make([]layer, 3)
	for i := range layers {
		f := float64(i + 1)
		layers[i] = layer{
			fx:  randRange(rng, 0.5, 1.5) * f * 2 * math.Pi / float64(width),
			fz:  randRange(rng, 0.5, 1.5) * f * 2 * math.Pi / float64(depth),
			px:  rng.Float64() * 2 * math.Pi,
			pz:  rng.Float64() * 2 * math.Pi,
			amp: amplitude / f,
		}
	}
	heights := make([]float64, width*depth)
	for z := 0; z < depth; z++ {
		for x := 0; x < width; x++ {
			h := 0.0
			for _, l := range layers {
				h += l.amp * (1 + math.Sin(float64(x)*l.fx+l.px)*math.Cos(float64(z)*l.fz+l.pz)) / 2
			}
			heights[z*width+x] = h
		}
	}
	return NewHeightMap(width, depth, scale, heights)
}

func (hm *HeightMap) at(x, z int) float64 {
	x = ClampInt(x, 0, hm.width-1)
	z = ClampInt(z, 0, hm.depth-1)
	return hm.heights[z*hm.width+x]
}

func (hm *HeightMap) computeNormals() {
	for z := 0; z < hm.depth; z++ {
		for x := 0; x < hm.width; x++ {
			dx := hm.at(x-1, z) - hm.at(x+1, z)
			dz := hm.at(x, z-1) - hm.at(x, z+1)
			hm.normals[z*hm.width+x] = Vec3{dx, 2 * hm.scale, dz}.Normalize()
		}
	}
}

// Bounds returns the world-space extent of the map
func (hm *HeightMap) Bounds() (minX, maxX, minZ, maxZ float64) {
	minX = hm.origin.X
	minZ = hm.origin.Z
	maxX = minX + float64(hm.width-1)*hm.scale
	maxZ = minZ + float64(hm.depth-1)*hm.scale
	return
}

// IsOnHeightmap reports whether the XZ position lies strictly inside the grid
func (hm *HeightMap) IsOnHeightmap(pos Vec3) bool {
	lx := pos.X - hm.origin.X
	lz := pos.Z - hm.origin.Z
	return lx > 0 && lx < float64(hm.width-1)*hm.scale &&
		lz > 0 && lz < float64(hm.depth-1)*hm.scale
}

// HeightAndNormal bilinearly interpolates height and normal at pos.
// Positions off the map are clamped to the nearest edge cell.
func (hm *HeightMap) HeightAndNormal(pos Vec3) (float64, Vec3) {
	lx := Clamp(pos.X-hm.origin.X, 0, float64(hm.width-1)*hm.scale)
	lz := Clamp(pos.Z-hm.origin.Z, 0, float64(hm.depth-1)*hm.scale)

	left := ClampInt(int(lx/hm.scale), 0, hm.width-2)
	top := ClampInt(int(lz/hm.scale), 0, hm.depth-2)
	tx := lx/hm.scale - float64(left)
	tz := lz/hm.scale - float64(top)

	i00 := top*hm.width + left
	i10 := i00 + 1
	i01 := i00 + hm.width
	i11 := i01 + 1

	hTop := lerp(hm.heights[i00], hm.heights[i10], tx)
	hBottom := lerp(hm.heights[i01], hm.heights[i11], tx)
	height := lerp(hTop, hBottom, tz)

	nTop := lerpVec(hm.normals[i00], hm.normals[i10], tx)
	nBottom := lerpVec(hm.normals[i01], hm.normals[i11], tx)
	normal := lerpVec(nTop, nBottom, tz).Normalize()
	return height, normal
}

// Size returns the sample grid dimensions
func (hm *HeightMap) Size() (width, depth int) {
	return hm.width, hm.depth
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func lerpVec(a, b Vec3, t float64) Vec3 {
	return Vec3{lerp(a.X, b.X, t), lerp(a.Y, b.Y, t), lerp(a.Z, b.Z, t)}
}
