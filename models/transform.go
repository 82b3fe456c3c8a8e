package models

import "github.com/go-gl/mathgl/mgl32"

// CoordinateTransform holds a layer's data transform together with a
// monotonic generation counter. Derived per-layer caches compare the counter
// instead of the matrix, so a cache is recomputed only when the transform
// actually changed.
type CoordinateTransform struct {
	matrix     mgl32.Mat4
	generation uint64
}

func NewCoordinateTransform() *CoordinateTransform {
	return &CoordinateTransform{
		matrix:     mgl32.Ident4(),
		generation: 1,
	}
}

// Set replaces the transform. Setting an identical matrix does not bump the
// generation.
func (t *CoordinateTransform) Set(m mgl32.Mat4) bool {
	if m == t.matrix {
		return false
	}
	t.matrix = m
	t.generation++
	return true
}

func (t *CoordinateTransform) Matrix() mgl32.Mat4 {
	return t.matrix
}

func (t *CoordinateTransform) Generation() uint64 {
	return t.generation
}
