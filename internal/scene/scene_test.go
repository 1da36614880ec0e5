package scene

import (
	"errors"
	gomath "math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/trifold/pkg/math"
)

const testDocument = `
meshes:
  - name: tri
    vertices:
      - {position: [0, 0, 0], normal: [0, 0, 1]}
      - {position: [1, 0, 0], normal: [0, 0, 1], color: [0.5, 0.5, 0.5]}
      - {position: [0, 1, 0], normal: [0, 0, 1]}
    indices: [0, 1, 2]
materials:
  - {name: red, albedo: [1, 0, 0], metallic: 0.2, roughness: 0.8}
root:
  name: root
  children:
    - name: body
      translation: [1, 2, 3]
      meshes: [{mesh: 0, material: 0}]
      children:
        - name: arm
          scale: [2, 2, 2]
    - name: eye
      rotation: [0, 0, 0, 1]
clips:
  - name: wave
    duration: 10
    ticks_per_second: 5
    channels:
      - node: arm
        position: [{time: 0, value: [0, 0, 0]}, {time: 10, value: [1, 0, 0]}]
        rotation: [{time: 0, value: [0, 0, 0, 2]}]
cameras:
  - {name: main, node: eye, fov: 90, near: 0.1, far: 100}
  - {name: top, node: eye, projection: orthographic, size: 4, near: -1, far: 1}
lights:
  - {name: sun, node: eye, direction: [0, -1, 0]}
  - {name: bulb, node: eye, type: point}
`

func decodeTestDocument(t *testing.T) *Model {
	t.Helper()
	m, err := Decode(strings.NewReader(testDocument))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return m
}

func TestDecodeTree(t *testing.T) {
	m := decodeTestDocument(t)

	// Pre-order IDs: root, body, arm, eye
	wantNames := []string{"root", "body", "arm", "eye"}
	nodes := m.Nodes()
	if len(nodes) != len(wantNames) {
		t.Fatalf("got %d nodes, want %d", len(nodes), len(wantNames))
	}
	for i, name := range wantNames {
		if nodes[i].Name != name || nodes[i].ID != i {
			t.Errorf("node %d = %q (id %d), want %q", i, nodes[i].Name, nodes[i].ID, name)
		}
	}

	body, ok := m.FindNode("body")
	if !ok {
		t.Fatal("FindNode(body) not found")
	}
	if body.Transform.Translation() != (math.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("body translation = %v", body.Transform.Translation())
	}
	if len(body.Meshes) != 1 || body.Meshes[0] != (MeshRef{Mesh: 0, Material: 0}) {
		t.Errorf("body meshes = %v", body.Meshes)
	}

	arm, _ := m.FindNode("arm")
	world := m.WorldTransform(arm)
	if got := world.TransformPoint(math.Vec3{X: 1}); got != (math.Vec3{X: 3, Y: 2, Z: 3}) {
		t.Errorf("arm world transform of (1,0,0) = %v, want (3, 2, 3)", got)
	}

	if _, ok := m.FindNode("missing"); ok {
		t.Error("FindNode(missing) should fail")
	}
}

func TestDecodeMeshesAndMaterials(t *testing.T) {
	m := decodeTestDocument(t)

	if len(m.Meshes) != 1 || len(m.Meshes[0].Vertices) != 3 {
		t.Fatalf("meshes = %+v", m.Meshes)
	}
	// Missing vertex colors default to white
	if m.Meshes[0].Vertices[0].Color != (math.Vec3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("default vertex color = %v", m.Meshes[0].Vertices[0].Color)
	}
	if m.Meshes[0].Vertices[1].Color != (math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}) {
		t.Errorf("vertex color = %v", m.Meshes[0].Vertices[1].Color)
	}
	if m.Materials[0].Albedo != (math.Vec3{X: 1}) || m.Materials[0].Roughness != 0.8 {
		t.Errorf("material = %+v", m.Materials[0])
	}
}

func TestDecodeClipsCamerasLights(t *testing.T) {
	m := decodeTestDocument(t)

	clip, ok := m.Clip("wave")
	if !ok {
		t.Fatal("Clip(wave) not found")
	}
	if clip.DurationTicks != 10 || clip.TicksPerSecond != 5 {
		t.Errorf("clip timing = %v ticks @ %v", clip.DurationTicks, clip.TicksPerSecond)
	}
	ch := clip.Channels[0]
	if ch.Node != "arm" || len(ch.Position) != 2 || len(ch.Scale) != 0 {
		t.Errorf("channel = %+v", ch)
	}
	if ch.Rotation[0].Value != math.QuatIdentity() {
		t.Errorf("rotation keys are normalized, got %v", ch.Rotation[0].Value)
	}

	if len(m.Cameras) != 2 {
		t.Fatalf("got %d cameras, want 2", len(m.Cameras))
	}
	if gomath.Abs(m.Cameras[0].FOV-gomath.Pi/2) > 1e-12 || m.Cameras[0].Orthographic {
		t.Errorf("perspective camera = %+v", m.Cameras[0])
	}
	if !m.Cameras[1].Orthographic || m.Cameras[1].Size != 4 {
		t.Errorf("orthographic camera = %+v", m.Cameras[1])
	}

	if m.Lights[0].Type != LightDirectional || m.Lights[0].Direction != (math.Vec3{Y: -1}) {
		t.Errorf("sun = %+v", m.Lights[0])
	}
	if m.Lights[1].Type != LightPoint || m.Lights[1].Type.String() != "point" {
		t.Errorf("bulb = %+v", m.Lights[1])
	}
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "root: {name: r}\nbogus: 1\n"},
		{"index out of range", "meshes: [{name: m, vertices: [{position: [0,0,0], normal: [0,0,1]}], indices: [0, 1, 2]}]\nroot: {name: r}\n"},
		{"partial triangle", "meshes: [{name: m, indices: [0, 1]}]\nroot: {name: r}\n"},
		{"bad mesh ref", "root: {name: r, meshes: [{mesh: 3, material: 0}]}\n"},
		{"bad matrix", "root: {name: r, matrix: [1, 0, 0]}\n"},
		{"bad light", "root: {name: r}\nlights: [{name: l, node: r, type: area}]\n"},
		{"bad projection", "root: {name: r}\ncameras: [{name: c, node: r, projection: fisheye}]\n"},
		{"zero duration", "root: {name: r}\nclips: [{name: c, duration: 0}]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			if !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("Decode: got %v, want ErrInvalidDocument", err)
			}
		})
	}
}

func TestDocumentImporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := os.WriteFile(path, []byte(testDocument), 0644); err != nil {
		t.Fatalf("write model: %v", err)
	}

	var imp Importer = DocumentImporter{}
	m, err := imp.Import(path)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if m.Root.Name != "root" {
		t.Errorf("root = %q", m.Root.Name)
	}

	if _, err := imp.Import(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Import of a missing file should fail")
	}
}

func TestModelClose(t *testing.T) {
	m := NewModel(&Node{Name: "root", Transform: math.Identity()})
	if err := m.CheckOpen(); err != nil {
		t.Fatalf("CheckOpen before Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !errors.Is(m.CheckOpen(), ErrModelReleased) {
		t.Error("CheckOpen after Close should return ErrModelReleased")
	}
}
