package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestNewHeightMapValidates(t *testing.T) {
	if _, err := NewHeightMap(1, 5, 1, make([]float64, 5)); !errors.Is(err, ErrBadHeightMap) {
		t.Errorf("1-wide map should be rejected, got %v", err)
	}
	if _, err := NewHeightMap(2, 2, 0, make([]float64, 4)); !errors.Is(err, ErrBadHeightMap) {
		t.Errorf("zero scale should be rejected, got %v", err)
	}
	if _, err := NewHeightMap(3, 3, 1, make([]float64, 8)); !errors.Is(err, ErrBadHeightMap) {
		t.Errorf("short sample slice should be rejected, got %v", err)
	}
}

func TestFlatHeightMap(t *testing.T) {
	hm := FlatHeightMap(1000, 600, 20, 7)
	minX, maxX, minZ, maxZ := hm.Bounds()
	if minX != -500 || maxX != 500 || minZ != -300 || maxZ != 300 {
		t.Errorf("unexpected bounds %v %v %v %v", minX, maxX, minZ, maxZ)
	}
	h, n := hm.HeightAndNormal(Vec3{123, 0, -45})
	if h != 7 {
		t.Errorf("expected height 7, got %v", h)
	}
	if !approx(n.Y, 1, 1e-9) {
		t.Errorf("flat normal should point up, got %+v", n)
	}
}

func TestIsOnHeightmapIsStrict(t *testing.T) {
	hm := FlatHeightMap(1000, 1000, 20, 0)
	cases := []struct {
		pos  Vec3
		want bool
	}{
		{Vec3{0, 0, 0}, true},
		{Vec3{499, 0, -499}, true},
		{Vec3{500, 0, 0}, false},
		{Vec3{0, 0, -500}, false},
		{Vec3{600, 0, 0}, false},
	}
	for _, c := range cases {
		if got := hm.IsOnHeightmap(c.pos); got != c.want {
			t.Errorf("IsOnHeightmap(%+v) = %v, want %v", c.pos, got, c.want)
		}
	}
}

func TestHeightBilinear(t *testing.T) {
	// 2x2 samples: heights 0, 10 / 20, 30
	hm, err := NewHeightMap(2, 2, 100, []float64{0, 10, 20, 30})
	if err != nil {
		t.Fatalf("NewHeightMap: %v", err)
	}
	// centre of the single cell is the average
	if h, _ := hm.HeightAndNormal(Vec3{}); !approx(h, 15, 1e-9) {
		t.Errorf("expected 15 at the centre, got %v", h)
	}
	// corner sample
	if h, _ := hm.HeightAndNormal(Vec3{50, 0, 50}); !approx(h, 30, 1e-9) {
		t.Errorf("expected 30 at the max corner, got %v", h)
	}
	// off-map queries clamp to the edge
	if h, _ := hm.HeightAndNormal(Vec3{-900, 0, -900}); !approx(h, 0, 1e-9) {
		t.Errorf("expected clamped 0, got %v", h)
	}
}

func TestGenerateHeightMapDeterministic(t *testing.T) {
	a, err := GenerateHeightMap(rand.New(rand.NewSource(9)), 33, 17, 10, 50)
	if err != nil {
		t.Fatalf("GenerateHeightMap: %v", err)
	}
	b, _ := GenerateHeightMap(rand.New(rand.NewSource(9)), 33, 17, 10, 50)
	if w, d := a.Size(); w != 33 || d != 17 {
		t.Errorf("expected 33x17, got %dx%d", w, d)
	}
	for _, p := range []Vec3{{0, 0, 0}, {55, 0, -21}, {-100, 0, 40}} {
		ha, _ := a.HeightAndNormal(p)
		hb, _ := b.HeightAndNormal(p)
		if ha != hb {
			t.Errorf("same seed should give the same terrain at %+v", p)
		}
		if ha < 0 || ha > 50*(1+0.5+1.0/3)+1e-9 {
			t.Errorf("height %v out of range at %+v", ha, p)
		}
	}
}

func grayRamp(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 255 / (w - 1))})
		}
	}
	return img
}

func TestHeightMapFromImage(t *testing.T) {
	hm, err := HeightMapFromImage(grayRamp(5, 3), 10, 100)
	if err != nil {
		t.Fatalf("HeightMapFromImage: %v", err)
	}
	if w, d := hm.Size(); w != 5 || d != 3 {
		t.Errorf("expected 5x3, got %dx%d", w, d)
	}
	minX, maxX, _, _ := hm.Bounds()
	if h, _ := hm.HeightAndNormal(Vec3{minX, 0, 0}); !approx(h, 0, 1e-9) {
		t.Errorf("black edge should be 0, got %v", h)
	}
	if h, _ := hm.HeightAndNormal(Vec3{maxX, 0, 0}); !approx(h, 100, 1e-9) {
		t.Errorf("white edge should be the bumpiness, got %v", h)
	}
}

func TestLoadHeightMapImage(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, grayRamp(8, 8)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "floor.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	hm, err := LoadTerrain(TerrainConfig{Image: path, Scale: 20, Bumpiness: 50}, 1)
	if err != nil {
		t.Fatalf("LoadTerrain: %v", err)
	}
	if w, d := hm.Size(); w != 8 || d != 8 {
		t.Errorf("expected 8x8, got %dx%d", w, d)
	}

	if _, err := LoadHeightMapImage(filepath.Join(t.TempDir(), "missing.png"), 20, 50); err == nil {
		t.Error("missing file should fail")
	}
}

func TestLoadTerrainGenerated(t *testing.T) {
	hm, err := LoadTerrain(TerrainConfig{Scale: 20, Bumpiness: 120, Width: 65, Depth: 65}, 4)
	if err != nil {
		t.Fatalf("LoadTerrain: %v", err)
	}
	minX, maxX, _, _ := hm.Bounds()
	if minX != -640 || maxX != 640 {
		t.Errorf("expected ±640 bounds, got %v %v", minX, maxX)
	}
}
