// Package palette builds the reduced color set used by the prefab theme and
// maps shaded colors onto it.
package palette

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/trifold/internal/scene"
	"github.com/Faultbox/trifold/pkg/math"
)

// MergeThreshold is the RGB distance under which two colors are the same
// palette entry.
const MergeThreshold = 32.0 / 255.0

// Palette is an ordered list of distinct colors.
type Palette []math.Vec3

// Build collects the materials' albedos and expands each into a ramp of
// darker shades, shadingDepth steps from full length to black. A depth of
// zero keeps only the base colors.
func Build(materials []scene.Material, shadingDepth int) Palette {
	var bases Palette
	for _, m := range materials {
		if bases.minDistance(m.Albedo) < MergeThreshold {
			continue
		}
		bases = append(bases, m.Albedo)
	}

	step := gomath.Inf(1)
	if shadingDepth > 0 {
		step = 1.0 / float64(shadingDepth) * gomath.Sqrt(3)
	}

	var p Palette
	for _, base := range bases {
		for _, shade := range shades(base, step) {
			if p.minDistance(shade) < MergeThreshold {
				continue
			}
			p = append(p, shade)
		}
	}
	return p
}

// shades returns color followed by copies shortened by step until black.
func shades(color math.Vec3, step float64) []math.Vec3 {
	out := []math.Vec3{color}
	if step > gomath.Sqrt(3) {
		return out
	}

	shade := color
	for shade.Length() > 0 {
		length := gomath.Max(shade.Length()-step, 0)
		shade = shade.Normalize().Scale(length)
		out = append(out, shade)
	}
	return out
}

func (p Palette) minDistance(c math.Vec3) float64 {
	best := gomath.MaxFloat64
	for _, e := range p {
		if d := e.Distance(c); d < best {
			best = d
		}
	}
	return best
}

// Nearest returns the index of the closest entry. Ties go to the lowest
// index. An empty palette returns 0.
func (p Palette) Nearest(c math.Vec3) int {
	best, bestDist := 0, gomath.MaxFloat64
	for i, e := range p {
		if d := e.Distance(c); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Hex formats entry i as #RRGGBB.
func (p Palette) Hex(i int) string {
	c := p[i]
	return fmt.Sprintf("#%02X%02X%02X", channel(c.X), channel(c.Y), channel(c.Z))
}

func channel(v float64) uint8 {
	return uint8(gomath.Round(gomath.Max(0, gomath.Min(1, v)) * 255))
}
