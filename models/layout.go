package models

import (
	"github.com/aukilabs/sliceview/geom"
	"github.com/go-gl/mathgl/mgl32"
)

// ChunkLayout is the shared identity of a regular chunk grid: the spatial
// size of one chunk along each local axis and the transform from local
// spatial coordinates to global data coordinates. Layouts are interned by a
// LayoutRegistry, so two sources on the same grid hold the same *ChunkLayout
// and can be compared by pointer.
type ChunkLayout struct {
	Size      mgl32.Vec3
	Transform mgl32.Mat4

	inverse mgl32.Mat4
}

func newChunkLayout(size mgl32.Vec3, transform mgl32.Mat4) *ChunkLayout {
	return &ChunkLayout{
		Size:      size,
		Transform: transform,
		inverse:   transform.Inv(),
	}
}

// GlobalToLocalGrid maps a global spatial point into this layout's grid
// units, where one unit spans one chunk.
func (l *ChunkLayout) GlobalToLocalGrid(p mgl32.Vec3) mgl32.Vec3 {
	q := geom.TransformPoint(l.inverse, p)
	return mgl32.Vec3{q[0] / l.Size[0], q[1] / l.Size[1], q[2] / l.Size[2]}
}

// LocalGridToGlobal maps a point in grid units back to global spatial
// coordinates.
func (l *ChunkLayout) LocalGridToGlobal(g mgl32.Vec3) mgl32.Vec3 {
	return geom.TransformPoint(l.Transform, mgl32.Vec3{
		g[0] * l.Size[0],
		g[1] * l.Size[1],
		g[2] * l.Size[2],
	})
}

// GlobalToLocalNormal converts a global plane normal into grid units: the
// dot product of the result with a grid-unit point equals the dot product of
// the global normal with the corresponding global point, up to the constant
// translation term.
func (l *ChunkLayout) GlobalToLocalNormal(n mgl32.Vec3) mgl32.Vec3 {
	var local mgl32.Vec3
	for i := 0; i < 3; i++ {
		local[i] = n.Dot(geom.Column(l.Transform, i)) * l.Size[i]
	}
	return local
}

type layoutKey struct {
	size      mgl32.Vec3
	transform mgl32.Mat4
}

// LayoutRegistry interns (size, transform) pairs into shared ChunkLayout
// values. It is owned by a single viewer and is not safe for concurrent use,
// like every other piece of per-viewport state.
type LayoutRegistry struct {
	layouts map[layoutKey]*ChunkLayout
}

func NewLayoutRegistry() *LayoutRegistry {
	return &LayoutRegistry{
		layouts: make(map[layoutKey]*ChunkLayout),
	}
}

// Get returns the interned layout for the given size and transform, creating
// it on first use. Equality is structural on both fields.
func (r *LayoutRegistry) Get(size mgl32.Vec3, transform mgl32.Mat4) *ChunkLayout {
	key := layoutKey{size: size, transform: transform}
	if l, ok := r.layouts[key]; ok {
		return l
	}
	l := newChunkLayout(size, transform)
	r.layouts[key] = l
	return l
}

// Len returns the number of interned layouts.
func (r *LayoutRegistry) Len() int {
	return len(r.layouts)
}
