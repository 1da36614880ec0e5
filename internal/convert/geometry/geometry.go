// Package geometry splits arbitrary triangles into right triangles, the only
// shape the prefab format can draw.
package geometry

import (
	gomath "math"
	"sort"

	"github.com/Faultbox/trifold/pkg/math"
)

// Epsilon is the area and edge length below which a triangle is degenerate.
const Epsilon = 1e-12

// Triangle is three 2D points.
type Triangle [3]math.Vec2

// Area returns the unsigned area (shoelace formula).
func (t Triangle) Area() float64 {
	return gomath.Abs(t[0].X*(t[1].Y-t[2].Y)+t[1].X*(t[2].Y-t[0].Y)+t[2].X*(t[0].Y-t[1].Y)) / 2
}

// Primitive places the fixed right-triangle shape: the right angle sits at
// Position, the first leg runs Scale.X along Rotation and the second leg
// runs Scale.Y perpendicular to it.
type Primitive struct {
	Position math.Vec2
	Scale    math.Vec2
	Rotation float64 // radians
}

// Points returns the corners: the right angle first, then the ends of the
// first and second legs.
func (p Primitive) Points() Triangle {
	return Triangle{
		p.Position,
		p.Position.Add(math.Vec2{X: p.Scale.X}.Rotate(p.Rotation)),
		p.Position.Add(math.Vec2{Y: p.Scale.Y}.Rotate(p.Rotation)),
	}
}

type corner struct {
	point math.Vec2
	angle float64
}

// RightTriangles drops the altitude from the widest corner onto the
// opposite edge and returns (H, apex, B) and (H, apex, C), both right-angled
// at H. ok is false for degenerate input.
func RightTriangles(src Triangle) (tri0, tri1 Triangle, ok bool) {
	corners := []corner{
		{src[0], angleBetween(src[1].Sub(src[0]), src[2].Sub(src[0]))},
		{src[1], angleBetween(src[2].Sub(src[1]), src[0].Sub(src[1]))},
		{src[2], angleBetween(src[1].Sub(src[2]), src[0].Sub(src[2]))},
	}
	sort.SliceStable(corners, func(i, j int) bool {
		return corners[i].angle > corners[j].angle
	})
	apex, b, c := corners[0], corners[1], corners[2]

	bc := b.point.Distance(c.point)
	area := src.Area()
	if bc < Epsilon || area < Epsilon {
		return Triangle{apex.point, apex.point, apex.point}, Triangle{apex.point, apex.point, apex.point}, false
	}

	altitude := 2 * area / bc
	bh := altitude / gomath.Tan(b.angle)
	h := math.LerpVec2(b.point, c.point, bh/bc)

	return Triangle{h, apex.point, b.point}, Triangle{h, apex.point, c.point}, true
}

// PrimitiveOf derives the placement of a triangle right-angled at its first
// point.
func PrimitiveOf(tri Triangle) Primitive {
	ab := tri[1].Sub(tri[0])
	ac := tri[2].Sub(tri[0])

	rotation := gomath.Atan2(ab.Y, ab.X)
	local := ac.Normalize().Rotate(-rotation)

	sy := ac.Length()
	if local.Y < 0 {
		sy = -sy
	}
	return Primitive{
		Position: tri[0],
		Scale:    math.Vec2{X: ab.Length(), Y: sy},
		Rotation: rotation,
	}
}

// Decompose splits src into two primitives whose union covers it exactly.
// Degenerate input yields two zero-size primitives at the widest corner.
func Decompose(src Triangle) [2]Primitive {
	tri0, tri1, ok := RightTriangles(src)
	if !ok {
		p := Primitive{Position: tri0[0]}
		return [2]Primitive{p, p}
	}
	return [2]Primitive{PrimitiveOf(tri0), PrimitiveOf(tri1)}
}

// angleBetween returns the angle between two vectors, or 0 if either has
// zero length.
func angleBetween(a, b math.Vec2) float64 {
	la, lb := a.Length(), b.Length()
	if la == 0 || lb == 0 {
		return 0
	}
	cos := a.Dot(b) / (la * lb)
	return gomath.Acos(gomath.Max(-1, gomath.Min(1, cos)))
}
