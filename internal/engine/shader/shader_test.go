package shader

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/trifold/internal/scene"
	"github.com/Faultbox/trifold/pkg/math"
)

func vecNear(a, b math.Vec3) bool {
	return a.Distance(b) < 1e-9
}

func TestVertexStage(t *testing.T) {
	model := math.Translate(math.Vec3{X: 1})
	stage := NewVertexStage(model, math.Identity(), math.Scale(math.Vec3{X: 2, Y: 2, Z: 2}))

	out := stage.Process(InputVertex{
		Position: math.Vec3{Y: 1},
		Normal:   math.Vec3{Z: 3},
		Color:    math.Vec3{X: 0.5, Y: 1, Z: 1},
		Albedo:   math.Vec3{X: 1, Y: 0.5, Z: 0},
	})

	// projection * view * model, no divide
	if out.Position != (math.Vec4{X: 2, Y: 2, Z: 0, W: 1}) {
		t.Errorf("clip position = %v, want (2, 2, 0, 1)", out.Position)
	}
	if out.Normal != (math.Vec3{Z: 1}) {
		t.Errorf("normal = %v, want (0, 0, 1)", out.Normal)
	}
	if out.Color != (math.Vec3{X: 0.5, Y: 0.5, Z: 0}) {
		t.Errorf("color = %v, want (0.5, 0.5, 0)", out.Color)
	}
}

func TestTriangleStageLit(t *testing.T) {
	stage := NewTriangleStage(4, DefaultLight())
	if stage.Mode != Lit {
		t.Fatalf("mode = %v, want lit", stage.Mode)
	}

	v := StagingVertex{
		Position: math.Vec4{X: 2, Y: 4, Z: 6, W: 2},
		Normal:   math.Vec3{Z: 1},
		Color:    math.Vec3{X: 1, Y: 0.5},
	}
	out := stage.Process(Triangle{v, v, v})

	if out.Points[0] != (math.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("divided point = %v, want (1, 2, 3)", out.Points[0])
	}
	// Facing the light fully: color * 1 + color * 0.1
	if want := (math.Vec3{X: 1.1, Y: 0.55}); !vecNear(out.Color, want) {
		t.Errorf("lit color = %v, want %v", out.Color, want)
	}
}

func TestTriangleStageLitAngle(t *testing.T) {
	stage := NewTriangleStage(1, DefaultLight())
	n := math.Vec3{Y: 1, Z: 1}.Normalize()
	v := StagingVertex{Position: math.Vec4{W: 1}, Normal: n, Color: math.Vec3{X: 1, Y: 1, Z: 1}}

	out := stage.Process(Triangle{v, v, v})
	want := gomath.Sqrt2/2 + DefaultAmbient
	if gomath.Abs(out.Color.X-want) > 1e-9 {
		t.Errorf("color at 45° = %v, want %v", out.Color.X, want)
	}
}

func TestTriangleStageUnlit(t *testing.T) {
	stage := NewTriangleStage(0, DefaultLight())
	if stage.Mode != Unlit || stage.Mode.String() != "unlit" {
		t.Fatalf("mode = %v, want unlit", stage.Mode)
	}

	tri := Triangle{
		{Position: math.Vec4{W: 1}, Normal: math.Vec3{Z: -1}, Color: math.Vec3{X: 0.3}},
		{Position: math.Vec4{W: 1}, Normal: math.Vec3{Z: -1}, Color: math.Vec3{Y: 0.6}},
		{Position: math.Vec4{W: 1}, Normal: math.Vec3{Z: -1}, Color: math.Vec3{Z: 0.9}},
	}
	out := stage.Process(tri)
	if want := (math.Vec3{X: 0.1, Y: 0.2, Z: 0.3}); !vecNear(out.Color, want) {
		t.Errorf("unlit color = %v, want %v", out.Color, want)
	}
}

func TestShadedTriangleMetrics(t *testing.T) {
	tri := ShadedTriangle{Points: [3]math.Vec3{{Z: 0.3}, {X: 1, Z: 0.6}, {Y: 1, Z: 0.9}}}
	if gomath.Abs(tri.Depth()-0.6) > 1e-12 {
		t.Errorf("Depth = %v, want 0.6", tri.Depth())
	}
	if tri.Winding() != 1 {
		t.Errorf("counter-clockwise winding = %v, want 1", tri.Winding())
	}

	tri.Points[1], tri.Points[2] = tri.Points[2], tri.Points[1]
	if tri.Winding() != -1 {
		t.Errorf("clockwise winding = %v, want -1", tri.Winding())
	}
}

func TestLightFromScene(t *testing.T) {
	sun := &scene.Node{Name: "sun", Transform: math.QuatFromAxisAngle(math.Vec3{X: 1}, gomath.Pi/2).ToMat4()}
	root := &scene.Node{Name: "root", Transform: math.Identity(), Children: []*scene.Node{sun}}
	m := scene.NewModel(root)
	m.Lights = []scene.Light{{Name: "sun", Node: "sun", Type: scene.LightDirectional,
		Color: math.Vec3{X: 1, Y: 0.9, Z: 0.8}, Direction: math.Vec3{Z: -1}}}

	light, err := LightFromScene(m, nil)
	if err != nil {
		t.Fatalf("LightFromScene: %v", err)
	}
	if !vecNear(light.Direction, math.Vec3{Y: 1}) {
		t.Errorf("direction = %v, want (0, 1, 0)", light.Direction)
	}
	if light.Color != (math.Vec3{X: 1, Y: 0.9, Z: 0.8}) {
		t.Errorf("color = %v", light.Color)
	}
	if light.Ambient.X != DefaultAmbient {
		t.Errorf("ambient = %v, want %v", light.Ambient, DefaultAmbient)
	}
}

func TestLightFromSceneErrors(t *testing.T) {
	m := scene.NewModel(&scene.Node{Name: "root", Transform: math.Identity()})

	if _, err := LightFromScene(m, nil); !errors.Is(err, ErrMissingLight) {
		t.Errorf("no lights: got %v, want ErrMissingLight", err)
	}

	m.Lights = []scene.Light{{Name: "bulb", Node: "root", Type: scene.LightPoint}}
	if _, err := LightFromScene(m, nil); !errors.Is(err, ErrUnsupportedLightType) {
		t.Errorf("point light: got %v, want ErrUnsupportedLightType", err)
	}

	m.Lights = []scene.Light{{Name: "sun", Node: "ghost", Type: scene.LightDirectional}}
	if _, err := LightFromScene(m, nil); !errors.Is(err, scene.ErrUnknownNodeReference) {
		t.Errorf("unknown node: got %v, want ErrUnknownNodeReference", err)
	}
}

func TestSunDirection(t *testing.T) {
	tests := []struct {
		azimuth, elevation float64
		want               math.Vec3
	}{
		{0, 0, math.Vec3{Z: -1}},
		{90, 0, math.Vec3{X: -1}},
		{0, 90, math.Vec3{Y: -1}},
		{180, 45, math.Vec3{Y: -gomath.Sqrt2 / 2, Z: gomath.Sqrt2 / 2}},
	}

	for _, tt := range tests {
		got := SunDirection(tt.azimuth, tt.elevation)
		if got.Sub(tt.want).Length() > 1e-9 {
			t.Errorf("SunDirection(%g, %g) = %v, want %v", tt.azimuth, tt.elevation, got, tt.want)
		}
		if l := got.Length(); gomath.Abs(l-1) > 1e-9 {
			t.Errorf("SunDirection(%g, %g) length = %g", tt.azimuth, tt.elevation, l)
		}
	}
}
