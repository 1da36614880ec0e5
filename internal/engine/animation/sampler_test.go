package animation

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/trifold/internal/scene"
	"github.com/Faultbox/trifold/pkg/keyframe"
	"github.com/Faultbox/trifold/pkg/math"
)

func near(a, b math.Vec3) bool {
	return a.Distance(b) < 1e-9
}

func testModel() *scene.Model {
	arm := &scene.Node{Name: "arm", Transform: math.Translate(math.Vec3{X: 1})}
	root := &scene.Node{Name: "root", Transform: math.Identity(), Children: []*scene.Node{arm}}
	m := scene.NewModel(root)
	m.Clips = []scene.Clip{{
		Name:           "slide",
		DurationTicks:  10,
		TicksPerSecond: 2,
		Channels: []scene.Channel{{
			Node: "arm",
			Position: keyframe.Track[math.Vec3]{
				{Time: 0, Value: math.Vec3{}},
				{Time: 10, Value: math.Vec3{X: 10}},
			},
			Scale:    keyframe.Track[math.Vec3]{{Time: 0, Value: math.Vec3{X: 1, Y: 1, Z: 1}}},
			Rotation: keyframe.Track[math.Quat]{{Time: 0, Value: math.QuatIdentity()}},
		}},
	}}
	return m
}

func TestNewSamplerBindPose(t *testing.T) {
	want := TRS{
		Translation: math.Vec3{X: 1, Y: 2, Z: 3},
		Rotation:    math.QuatFromAxisAngle(math.Vec3{Y: 1}, 0.5),
		Scale:       math.Vec3{X: 2, Y: 3, Z: 4},
	}
	node := &scene.Node{Name: "n", Transform: want.Matrix()}
	s := NewSampler(scene.NewModel(node))

	got := s.State(node)
	if !near(got.Translation, want.Translation) || !near(got.Scale, want.Scale) {
		t.Errorf("bind TRS = %+v, want %+v", got, want)
	}
	if gomath.Abs(gomath.Abs(got.Rotation.Dot(want.Rotation))-1) > 1e-9 {
		t.Errorf("bind rotation = %v, want %v", got.Rotation, want.Rotation)
	}
}

func TestUpdate(t *testing.T) {
	m := testModel()
	s := NewSampler(m)
	clip, _ := m.Clip("slide")
	if err := s.SetClip(clip); err != nil {
		t.Fatalf("SetClip: %v", err)
	}

	arm, _ := m.FindNode("arm")
	root, _ := m.FindNode("root")

	tests := []struct {
		seconds float64
		want    float64
	}{
		{0, 0},
		{2.5, 5},
		{4.9, 9.8},
		{6, 2}, // 12 ticks wraps to 2
	}
	for _, tt := range tests {
		if err := s.Update(tt.seconds); err != nil {
			t.Fatalf("Update(%v): %v", tt.seconds, err)
		}
		got := s.State(arm).Translation
		if gomath.Abs(got.X-tt.want) > 1e-9 {
			t.Errorf("Update(%v): arm x = %v, want %v", tt.seconds, got.X, tt.want)
		}
	}

	// Nodes without a channel keep their bind state
	if s.LocalTransform(root) != math.Identity() {
		t.Errorf("root local transform changed: %v", s.LocalTransform(root))
	}
}

func TestSwitchClipKeepsLastState(t *testing.T) {
	m := testModel()
	m.Clips = append(m.Clips, scene.Clip{
		Name:           "nod",
		DurationTicks:  4,
		TicksPerSecond: 1,
		Channels: []scene.Channel{{
			Node:     "root",
			Position: keyframe.Track[math.Vec3]{{Time: 0, Value: math.Vec3{Y: 7}}},
			Scale:    keyframe.Track[math.Vec3]{{Time: 0, Value: math.Vec3{X: 1, Y: 1, Z: 1}}},
			Rotation: keyframe.Track[math.Quat]{{Time: 0, Value: math.QuatIdentity()}},
		}},
	})

	s := NewSampler(m)
	slide, _ := m.Clip("slide")
	nod, _ := m.Clip("nod")
	arm, _ := m.FindNode("arm")
	root, _ := m.FindNode("root")

	if err := s.SetClip(slide); err != nil {
		t.Fatalf("SetClip(slide): %v", err)
	}
	if err := s.Update(1.5); err != nil { // 3 ticks
		t.Fatalf("Update: %v", err)
	}
	want := s.State(arm)
	if !near(want.Translation, math.Vec3{X: 3}) {
		t.Fatalf("arm after slide = %v, want (3, 0, 0)", want.Translation)
	}

	// The second clip has no arm channel
	if err := s.SetClip(nod); err != nil {
		t.Fatalf("SetClip(nod): %v", err)
	}
	if got := s.State(arm); got != want {
		t.Errorf("arm after switching clips = %+v, want %+v", got, want)
	}
	if err := s.Update(2); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := s.State(arm); got != want {
		t.Errorf("arm after update = %+v, want last slide state %+v", got, want)
	}
	if got := s.State(root).Translation; !near(got, math.Vec3{Y: 7}) {
		t.Errorf("root after nod = %v, want (0, 7, 0)", got)
	}
}

func TestSetClipNilResets(t *testing.T) {
	m := testModel()
	s := NewSampler(m)
	clip, _ := m.Clip("slide")
	_ = s.SetClip(clip)
	_ = s.Update(2.5)

	if err := s.SetClip(nil); err != nil {
		t.Fatalf("SetClip(nil): %v", err)
	}
	arm, _ := m.FindNode("arm")
	if got := s.State(arm).Translation; !near(got, math.Vec3{X: 1}) {
		t.Errorf("arm after reset = %v, want bind (1, 0, 0)", got)
	}
	if s.Clip() != nil {
		t.Error("Clip() should be nil after reset")
	}
	if err := s.Update(3); err != nil {
		t.Errorf("Update with no clip: %v", err)
	}
}

func TestSetClipUnknownNode(t *testing.T) {
	m := testModel()
	s := NewSampler(m)
	clip := &scene.Clip{Name: "bad", DurationTicks: 1, TicksPerSecond: 1, Channels: []scene.Channel{{Node: "ghost"}}}

	if err := s.SetClip(clip); !errors.Is(err, scene.ErrUnknownNodeReference) {
		t.Errorf("SetClip: got %v, want ErrUnknownNodeReference", err)
	}
}

func TestUpdateEmptyTrack(t *testing.T) {
	m := testModel()
	s := NewSampler(m)
	clip := &scene.Clip{Name: "empty", DurationTicks: 1, TicksPerSecond: 1, Channels: []scene.Channel{{Node: "arm"}}}
	if err := s.SetClip(clip); err != nil {
		t.Fatalf("SetClip: %v", err)
	}
	if err := s.Update(0.5); !errors.Is(err, keyframe.ErrEmptyTrack) {
		t.Errorf("Update: got %v, want ErrEmptyTrack", err)
	}
}

func TestLocalTransformOrder(t *testing.T) {
	trs := TRS{
		Translation: math.Vec3{X: 1},
		Rotation:    math.QuatFromAxisAngle(math.Vec3{Z: 1}, gomath.Pi/2),
		Scale:       math.Vec3{X: 2, Y: 1, Z: 1},
	}

	// Scale to (2,0,0), rotate to (0,2,0), translate to (1,2,0)
	got := trs.Matrix().TransformPoint(math.Vec3{X: 1})
	if !near(got, math.Vec3{X: 1, Y: 2}) {
		t.Errorf("TRS applied to (1,0,0) = %v, want (1, 2, 0)", got)
	}
}
