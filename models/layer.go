package models

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/sliceview/geom"
	"github.com/go-gl/mathgl/mgl32"
)

// Absolute tolerance under which two finest-level voxel sizes count as
// equal, so float noise in upstream metadata does not reject a layer.
const finestVoxelSizeTolerance = 1e-6

// TransformedSource is a source as seen through its layer's current
// coordinate transform: the interned chunk layout it lands on and its
// effective voxel size in global units. Derived, never persisted; valid only
// for the transform generation it was computed under.
type TransformedSource struct {
	Source             *Source
	Layout             *ChunkLayout
	EffectiveVoxelSize mgl32.Vec3
}

// RenderLayer owns a multiscale source list ordered from finest (index 0) to
// coarsest, a coordinate transform, and the user's resolution-level
// constraints. Each scale index may hold several geometrically equivalent
// alternatives; exactly one is picked per recomputation.
type RenderLayer struct {
	Name        string
	Transform   *CoordinateTransform
	Constraints MIPLevelConstraints

	// OnFinestVisibleScale, when set, receives the finest scale index picked
	// by the last visible-source recomputation. Used by resolution
	// indicators.
	OnFinestVisibleScale func(scaleIndex int)

	scales [][]*Source

	cachedGeneration uint64
	transformed      [][]TransformedSource
}

// NewRenderLayer validates the multiscale source list. An empty list, an
// empty alternative set, or finest-level alternatives with differing voxel
// sizes indicate a misconfigured layer upstream and are reported immediately.
func NewRenderLayer(name string, scales [][]*Source, transform *CoordinateTransform, constraints MIPLevelConstraints) (*RenderLayer, error) {
	if len(scales) == 0 {
		return nil, errors.New("render layer has no sources").
			WithTag("layer", name)
	}
	for i, alternatives := range scales {
		if len(alternatives) == 0 {
			return nil, errors.New("render layer scale has no alternatives").
				WithTag("layer", name).
				WithTag("scale_index", i)
		}
	}

	// The resolution-selection walk compares every level against the finest
	// level's voxel size, which is only meaningful when all finest-level
	// alternatives agree on it.
	base := scales[0][0].Spec.VoxelSize
	for i, s := range scales[0] {
		for d := 0; d < 3; d++ {
			if !geom.EqualWithTolerance(s.Spec.VoxelSize[d], base[d], finestVoxelSizeTolerance) {
				return nil, errors.New("finest scale alternatives have differing voxel sizes").
					WithTag("layer", name).
					WithTag("alternative", i)
			}
		}
	}

	if transform == nil {
		transform = NewCoordinateTransform()
	}

	return &RenderLayer{
		Name:        name,
		Transform:   transform,
		Constraints: constraints,
		scales:      scales,
	}, nil
}

func (l *RenderLayer) NumScales() int {
	return len(l.scales)
}

// Scales returns the multiscale source list, finest first.
func (l *RenderLayer) Scales() [][]*Source {
	return l.scales
}

// TransformedSources returns the per-scale transformed sources under the
// layer's current transform, interning chunk layouts through registry. The
// result is cached and recomputed only when the transform generation moved.
func (l *RenderLayer) TransformedSources(registry *LayoutRegistry) [][]TransformedSource {
	gen := l.Transform.Generation()
	if l.transformed != nil && gen == l.cachedGeneration {
		return l.transformed
	}

	matrix := l.Transform.Matrix()
	transformed := make([][]TransformedSource, len(l.scales))
	for i, alternatives := range l.scales {
		ts := make([]TransformedSource, len(alternatives))
		for j, s := range alternatives {
			ts[j] = TransformedSource{
				Source:             s,
				Layout:             registry.Get(s.Spec.ChunkSize(), matrix),
				EffectiveVoxelSize: effectiveVoxelSize(matrix, s.Spec.VoxelSize),
			}
		}
		transformed[i] = ts
	}

	l.transformed = transformed
	l.cachedGeneration = gen
	return transformed
}

// BaseVoxelSize returns the effective voxel size of the finest scale under
// the current transform.
func (l *RenderLayer) BaseVoxelSize(registry *LayoutRegistry) mgl32.Vec3 {
	return l.TransformedSources(registry)[0][0].EffectiveVoxelSize
}

// effectiveVoxelSize is the length of each voxel axis after the linear part
// of the transform.
func effectiveVoxelSize(m mgl32.Mat4, voxelSize mgl32.Vec3) mgl32.Vec3 {
	var result mgl32.Vec3
	for i := 0; i < 3; i++ {
		result[i] = m.Col(i).Vec3().Len() * voxelSize[i]
	}
	return result
}
