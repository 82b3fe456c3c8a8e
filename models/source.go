package models

import (
	"github.com/aukilabs/sliceview/geom"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// ChunkSpecification is the static description of one source's chunk grid:
// how many voxels a chunk spans per axis, the spatial extent of one voxel in
// source-local units, and the half-open chunk-grid bounds beyond which no
// chunks exist. Immutable once the source is registered.
type ChunkSpecification struct {
	ChunkDataSize [3]int32
	VoxelSize     mgl32.Vec3
	Bounds        geom.Bounds
}

// ChunkSize returns the spatial size of one chunk in source-local units.
func (s ChunkSpecification) ChunkSize() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(s.ChunkDataSize[0]) * s.VoxelSize[0],
		float32(s.ChunkDataSize[1]) * s.VoxelSize[1],
		float32(s.ChunkDataSize[2]) * s.VoxelSize[2],
	}
}

// Source is an opaque identity owning exactly one chunk specification. The
// engine never reads chunk data; sources exist so that visibility results can
// be grouped and handed to the fetch pipeline.
type Source struct {
	SourceUUID string
	Spec       ChunkSpecification
}

func NewSource(spec ChunkSpecification) *Source {
	return &Source{
		SourceUUID: uuid.NewString(),
		Spec:       spec,
	}
}
