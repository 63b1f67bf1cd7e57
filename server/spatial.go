package main

import "math"

const DefaultSpatialCellSize = 256.0 // ~2x the largest scenery radius

// EntityRef identifies an entity in the grid
type EntityRef struct {
	Kind byte // EntityKind of the referenced entity
	Idx  int  // index into the collision snapshot
}

// SpatialGrid is a fixed-size ground-plane grid for broad-phase collision
// queries. Positions outside the covered area clamp to the border cells.
type SpatialGrid struct {
	minX, minZ float64
	cellSize   float64
	cols, rows int
	cells      [][]EntityRef
}

// NewSpatialGrid covers the rectangle [minX,maxX] x [minZ,maxZ]
func NewSpatialGrid(minX, maxX, minZ, maxZ, cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = DefaultSpatialCellSize
	}
	cols := int(math.Ceil((maxX-minX)/cellSize)) + 1
	rows := int(math.Ceil((maxZ-minZ)/cellSize)) + 1
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &SpatialGrid{
		minX:     minX,
		minZ:     minZ,
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([][]EntityRef, cols*rows),
	}
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *SpatialGrid) cellRange(x, z, radius float64) (minCX, maxCX, minCZ, maxCZ int) {
	minCX = ClampInt(int(math.Floor((x-radius-g.minX)/g.cellSize)), 0, g.cols-1)
	maxCX = ClampInt(int(math.Floor((x+radius-g.minX)/g.cellSize)), 0, g.cols-1)
	minCZ = ClampInt(int(math.Floor((z-radius-g.minZ)/g.cellSize)), 0, g.rows-1)
	maxCZ = ClampInt(int(math.Floor((z+radius-g.minZ)/g.cellSize)), 0, g.rows-1)
	return
}

// Insert adds an entity reference at the given position
func (g *SpatialGrid) Insert(x, z float64, ref EntityRef) {
	g.InsertCircle(x, z, 0, ref)
}

// InsertCircle adds an entity reference to all cells overlapping its bounding box
func (g *SpatialGrid) InsertCircle(x, z, radius float64, ref EntityRef) {
	minCX, maxCX, minCZ, maxCZ := g.cellRange(x, z, radius)
	for cz := minCZ; cz <= maxCZ; cz++ {
		for cx := minCX; cx <= maxCX; cx++ {
			idx := cz*g.cols + cx
			g.cells[idx] = append(g.cells[idx], ref)
		}
	}
}

// Query returns all entity refs in cells that overlap the given bounding box
func (g *SpatialGrid) Query(x, z, radius float64) []EntityRef {
	return g.QueryBuf(x, z, radius, nil)
}

// QueryBuf appends results to buf and returns the extended slice, avoiding per-call allocation
func (g *SpatialGrid) QueryBuf(x, z, radius float64, buf []EntityRef) []EntityRef {
	minCX, maxCX, minCZ, maxCZ := g.cellRange(x, z, radius)
	for cz := minCZ; cz <= maxCZ; cz++ {
		for cx := minCX; cx <= maxCX; cx++ {
			buf = append(buf, g.cells[cz*g.cols+cx]...)
		}
	}
	return buf
}
