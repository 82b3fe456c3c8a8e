package sliceview

import (
	"math"

	"github.com/aukilabs/sliceview/geom"
	"github.com/aukilabs/sliceview/models"
	"github.com/go-gl/mathgl/mgl32"
)

// Margin applied to the viewport pixel size before comparing against voxel
// sizes, so a level one step too fine is not selected right at a zoom
// boundary.
const resolutionTargetMargin = 1.1

// Tolerance for treating a level's voxel size as already equal to the finest
// level's in one dimension.
const baseVoxelSizeTolerance = 1e-6

// ScaleSelection is one resolution level picked for rendering: the scale
// index, which geometric alternative was chosen at that index, and the
// normalized render priority (finer levels closer to 1). Forced marks a
// level emitted outside the user-constrained range because no permitted
// level could still improve resolution.
type ScaleSelection struct {
	ScaleIndex  int
	Alternative int
	Source      models.TransformedSource
	Priority    float32
	Forced      bool
}

// SelectVisibleScales walks the multiscale source list from the coarsest
// level toward minLevel and returns the levels to render, ordered finest
// first.
//
// At each level the alternative with the largest estimated slice area is
// chosen. The walk descends while some dimension's voxel size still exceeds
// targetPixelSize without already matching the finest level's voxel size in
// that dimension. Levels coarser than maxLevel are skipped, except that the
// coarsest level at which no further improvement is possible is emitted
// regardless, so a constrained range can never yield an empty selection.
func SelectVisibleScales(scales [][]models.TransformedSource, targetPixelSize float32, minLevel int, maxLevel int, viewNormal mgl32.Vec3) []ScaleSelection {
	numScales := len(scales)
	baseVoxelSize := scales[0][0].EffectiveVoxelSize

	var selected []ScaleSelection
	for index := numScales - 1; ; index-- {
		alternative := bestAlternative(scales[index], viewNormal)
		source := scales[index][alternative]

		canImprove := false
		if index > minLevel {
			for d := 0; d < 3; d++ {
				voxelSize := source.EffectiveVoxelSize[d]
				if voxelSize > targetPixelSize &&
					geom.RelativeDiff(voxelSize, baseVoxelSize[d]) > baseVoxelSizeTolerance {
					canImprove = true
					break
				}
			}
		}

		inRange := index >= minLevel && index <= maxLevel
		if inRange || !canImprove {
			selected = append(selected, ScaleSelection{
				ScaleIndex:  index,
				Alternative: alternative,
				Source:      source,
				Priority:    float32(numScales-index) / float32(numScales),
				Forced:      !inRange,
			})
		}

		if !canImprove || index == minLevel {
			break
		}
	}

	// Appended coarse to fine; reverse so finer levels come first and get
	// earlier render priority.
	for i, j := 0, len(selected)-1; i < j; i, j = i+1, j-1 {
		selected[i], selected[j] = selected[j], selected[i]
	}
	return selected
}

// bestAlternative picks the alternative whose chunks expose the largest
// estimated cross-sectional area to the cutting plane. Larger slice area
// means fewer chunk boundaries crossed per rendered pixel.
func bestAlternative(alternatives []models.TransformedSource, viewNormal mgl32.Vec3) int {
	best := 0
	bestArea := estimatedSliceArea(alternatives[0].Layout, viewNormal)
	for i := 1; i < len(alternatives); i++ {
		if area := estimatedSliceArea(alternatives[i].Layout, viewNormal); area > bestArea {
			best = i
			bestArea = area
		}
	}
	return best
}

// estimatedSliceArea approximates the average area of the plane/chunk
// intersection as the chunk volume divided by the projected extent of the
// chunk's axes onto the plane normal.
func estimatedSliceArea(layout *models.ChunkLayout, viewNormal mgl32.Vec3) float64 {
	volume := 1.0
	projected := 0.0
	for i := 0; i < 3; i++ {
		axis := geom.Column(layout.Transform, i).Mul(layout.Size[i])
		volume *= float64(axis.Len())
		projected += math.Abs(float64(viewNormal.Dot(axis)))
	}
	if projected == 0 {
		// Degenerate view normal; every alternative is equally good.
		return math.Inf(1)
	}
	return volume / projected
}
