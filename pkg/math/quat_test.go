package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	n := Quat{X: 1, Y: 2, Z: 3, W: 4}.Normalize()

	length := math.Sqrt(n.Dot(n))
	if abs(length-1.0) > 1e-9 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
}

func TestQuatSlerp(t *testing.T) {
	q1 := QuatIdentity()
	q2 := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, math.Pi/2)

	if r := q1.Slerp(q2, 0); abs(r.W-q1.W) > 1e-6 {
		t.Errorf("Slerp at t=0 should equal q1, got %v", r)
	}
	if r := q1.Slerp(q2, 1); abs(r.W-q2.W) > 1e-6 {
		t.Errorf("Slerp at t=1 should equal q2, got %v", r)
	}

	// Halfway through a 90° turn is 45°
	result5 := SlerpQuat(q1, q2, 0.5)
	expectedW := math.Cos(math.Pi / 8)
	if abs(result5.W-expectedW) > 1e-6 {
		t.Errorf("Slerp at t=0.5: expected W ~%v, got %v", expectedW, result5.W)
	}
}

func TestQuatSlerpShortestPath(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{Z: 1}, 0.2)
	neg := Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}

	r := QuatIdentity().Slerp(neg, 1)
	if abs(math.Abs(r.Dot(q))-1) > 1e-6 {
		t.Errorf("Slerp toward -q should reach the same rotation as q, got %v", r)
	}
}

func TestQuatToMat4(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{Z: 1}, math.Pi/2)
	got := q.ToMat4().TransformPoint(Vec3{1, 0, 0})

	if abs(got.X) > 1e-9 || abs(got.Y-1) > 1e-9 || abs(got.Z) > 1e-9 {
		t.Errorf("90° about Z applied to X axis: got %v, want (0, 1, 0)", got)
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{X: 1}, math.Pi)
	if abs(q.X-1) > 1e-9 || abs(q.W) > 1e-9 {
		t.Errorf("180° about X: got %v, want (1,0,0,0)", q)
	}
}

func TestQuatFromMat3RoundTrip(t *testing.T) {
	axes := []Vec3{{X: 1}, {Y: 1}, {Z: 1}, Vec3{1, 1, 1}.Normalize()}
	angles := []float64{0.3, 1.5, 3.0}

	for _, axis := range axes {
		for _, angle := range angles {
			want := QuatFromAxisAngle(axis, angle)
			m := want.ToMat4()
			got := QuatFromMat3([9]float64{
				m[0], m[1], m[2],
				m[4], m[5], m[6],
				m[8], m[9], m[10],
			})
			if abs(math.Abs(got.Dot(want))-1) > 1e-9 {
				t.Errorf("axis %v angle %v: got %v, want %v", axis, angle, got, want)
			}
		}
	}
}

func TestQuatFromEuler(t *testing.T) {
	q := QuatFromEuler(0, 0, math.Pi/2)
	got := q.Rotate(Vec3{X: 1})
	if abs(got.Y-1) > 1e-9 {
		t.Errorf("Euler Z=90° applied to X axis: got %v, want (0, 1, 0)", got)
	}
}
