package main

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// LoadHeightMapImage reads a grayscale heightmap image. Brightness 0..255
// maps to 0..bumpiness world units; each pixel is one sample.
func LoadHeightMapImage(path string, scale, bumpiness float64) (*HeightMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open heightmap: %w", err)
	}
	defer f.Close()

	img, err := decodeHeightImage(f, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("decode heightmap %s: %w", path, err)
	}
	return HeightMapFromImage(img, scale, bumpiness)
}

func decodeHeightImage(r io.Reader, ext string) (image.Image, error) {
	switch strings.ToLower(ext) {
	case ".bmp":
		return bmp.Decode(r)
	case ".tif", ".tiff":
		return tiff.Decode(r)
	default:
		img, _, err := image.Decode(r)
		return img, err
	}
}

// HeightMapFromImage converts any image to heights via its gray level
func HeightMapFromImage(img image.Image, scale, bumpiness float64) (*HeightMap, error) {
	b := img.Bounds()
	w, d := b.Dx(), b.Dy()
	heights := make([]float64, w*d)
	for z := 0; z < d; z++ {
		for x := 0; x < w; x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+z)).(color.Gray)
			heights[z*w+x] = float64(g.Y) / 255 * bumpiness
		}
	}
	return NewHeightMap(w, d, scale, heights)
}

// LoadTerrain builds the arena heightmap: the configured image when set,
// otherwise hills generated from seed.
func LoadTerrain(cfg TerrainConfig, seed int64) (*HeightMap, error) {
	if cfg.Image != "" {
		return LoadHeightMapImage(cfg.Image, cfg.Scale, cfg.Bumpiness)
	}
	return GenerateHeightMap(rand.New(rand.NewSource(seed)), cfg.Width, cfg.Depth, cfg.Scale, cfg.Bumpiness)
}
