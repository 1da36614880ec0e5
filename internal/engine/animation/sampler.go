// Package animation samples animation clips into per-node local transforms.
package animation

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/trifold/internal/scene"
	"github.com/Faultbox/trifold/pkg/keyframe"
	"github.com/Faultbox/trifold/pkg/math"
)

// TRS is a decomposed local transform.
type TRS struct {
	Translation math.Vec3
	Rotation    math.Quat
	Scale       math.Vec3
}

// Matrix composes the transform: scale first, then rotate, then translate.
func (t TRS) Matrix() math.Mat4 {
	return math.Translate(t.Translation).Mul(t.Rotation.ToMat4()).Mul(math.Scale(t.Scale))
}

// Sampler holds the current TRS of every node, indexed by node ID.
type Sampler struct {
	model *scene.Model
	bind  []TRS
	state []TRS

	clip     *scene.Clip
	channels []boundChannel
}

type boundChannel struct {
	node    int
	channel *scene.Channel
}

// NewSampler decomposes every node's bind transform.
func NewSampler(model *scene.Model) *Sampler {
	nodes := model.Nodes()
	s := &Sampler{
		model: model,
		bind:  make([]TRS, len(nodes)),
		state: make([]TRS, len(nodes)),
	}
	for i, n := range nodes {
		t, sc, r := n.Transform.Decompose()
		s.bind[i] = TRS{Translation: t, Rotation: r, Scale: sc}
	}
	copy(s.state, s.bind)
	return s
}

// SetClip activates a clip. A nil clip restores every node to its bind pose.
// Every channel must name a node in the model.
func (s *Sampler) SetClip(clip *scene.Clip) error {
	if clip == nil {
		s.clip = nil
		s.channels = nil
		copy(s.state, s.bind)
		return nil
	}

	channels := make([]boundChannel, 0, len(clip.Channels))
	for i := range clip.Channels {
		ch := &clip.Channels[i]
		n, ok := s.model.FindNode(ch.Node)
		if !ok {
			return fmt.Errorf("clip %q channel %q: %w", clip.Name, ch.Node, scene.ErrUnknownNodeReference)
		}
		channels = append(channels, boundChannel{node: n.ID, channel: ch})
	}

	s.clip = clip
	s.channels = channels
	return nil
}

// Clip returns the active clip, or nil.
func (s *Sampler) Clip() *scene.Clip {
	return s.clip
}

// Update samples the active clip at seconds. The clip loops over its
// duration. Nodes without a channel keep their last state.
func (s *Sampler) Update(seconds float64) error {
	if s.clip == nil {
		return nil
	}

	t := gomath.Mod(seconds*s.clip.TicksPerSecond, s.clip.DurationTicks)

	for _, bc := range s.channels {
		pos, err := keyframe.Interpolate(t, bc.channel.Position, keyframe.Linear)
		if err != nil {
			return fmt.Errorf("node %q position: %w", bc.channel.Node, err)
		}
		scale, err := keyframe.Interpolate(t, bc.channel.Scale, keyframe.Linear)
		if err != nil {
			return fmt.Errorf("node %q scale: %w", bc.channel.Node, err)
		}
		rot, err := keyframe.Interpolate(t, bc.channel.Rotation, keyframe.Spherical)
		if err != nil {
			return fmt.Errorf("node %q rotation: %w", bc.channel.Node, err)
		}
		s.state[bc.node] = TRS{Translation: pos, Rotation: rot, Scale: scale}
	}
	return nil
}

// State returns the current TRS of a node.
func (s *Sampler) State(n *scene.Node) TRS {
	return s.state[n.ID]
}

// LocalTransform returns the node's current local matrix.
func (s *Sampler) LocalTransform(n *scene.Node) math.Mat4 {
	return s.state[n.ID].Matrix()
}
