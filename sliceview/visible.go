package sliceview

import (
	"math"

	"github.com/aukilabs/sliceview/geom"
	"github.com/aukilabs/sliceview/models"
	"github.com/go-gl/mathgl/mgl32"
)

// LayoutContextFunc is invoked once per distinct chunk layout during an
// enumeration, letting the caller attach a layout-scoped object such as a
// GPU resource bundle. Its result is handed back on every chunk emitted for
// that layout.
type LayoutContextFunc func(layout *models.ChunkLayout) any

// OnChunkFunc receives one intersecting grid cell. fullyVisible lists the
// sources whose valid bounds fully contain the cell; the slice is reused
// across calls and must not be retained.
type OnChunkFunc func(layout *models.ChunkLayout, layoutContext any, cell [3]int32, fullyVisible []*models.Source)

// BoundsHook may replace the grid-space bounding box derived from the
// viewport rectangle before it is clipped to the sources' valid bounds.
// Returning inverted bounds makes the layout contribute nothing for this
// enumeration; prefetch requests outside the dataset use this as an escape
// hatch, it is not an error.
type BoundsHook func(layout *models.ChunkLayout, bounds geom.Bounds) geom.Bounds

// ComputeVisibleChunks enumerates, per distinct chunk layout, every grid
// cell intersecting the current viewport plane, together with the sources
// fully covering each cell. Output size is proportional to the number of
// intersecting cells, not the grid size. boundsHook is optional.
func (v *SliceView) ComputeVisibleChunks(getLayoutContext LayoutContextFunc, onChunk OnChunkFunc, boundsHook BoundsHook) {
	v.computeChunks(mgl32.Vec3{}, getLayoutContext, onChunk, boundsHook)
}

// ComputePrefetchChunks enumerates the chunks that would be visible after
// moving the viewport offset spatial units along the viewing direction,
// without touching the viewport state. Chunks already visible are reported
// again; deduplication belongs to the fetch scheduler.
func (v *SliceView) ComputePrefetchChunks(offset float32, getLayoutContext LayoutContextFunc, onChunk OnChunkFunc, boundsHook BoundsHook) {
	v.computeChunks(v.axes[2].Mul(offset), getLayoutContext, onChunk, boundsHook)
}

func (v *SliceView) computeChunks(offset mgl32.Vec3, getLayoutContext LayoutContextFunc, onChunk OnChunkFunc, boundsHook BoundsHook) {
	if !v.Valid() {
		return
	}
	v.UpdateVisibleSources()

	corners := v.rectangleCorners()
	for i := range corners {
		corners[i] = corners[i].Add(offset)
	}
	center := v.center.Add(offset)

	for _, vl := range v.visibleLayouts {
		layout := vl.Layout

		bounds := cornerBounds(layout, corners)
		if boundsHook != nil {
			bounds = boundsHook(layout, bounds)
			if !bounds.Valid() {
				continue
			}
		}
		bounds = geom.Intersect(bounds, sourceBoundsUnion(vl.Sources))
		if bounds.Volume() == 0 {
			continue
		}

		normal := layout.GlobalToLocalNormal(v.axes[2])
		centerGrid := layout.GlobalToLocalGrid(center)

		e := chunkEnumerator{
			layout:        layout,
			layoutContext: getLayoutContext(layout),
			plane:         geom.Plane{Normal: normal, Distance: -normal.Dot(centerGrid)},
			onChunk:       onChunk,
		}
		for i := range vl.Sources {
			source := vl.Sources[i].Source
			switch sourceBounds := source.Spec.Bounds; {
			case sourceBounds.Contains(bounds):
				e.fully = append(e.fully, source)
			case sourceBounds.Disjoint(bounds):
			default:
				e.partially = append(e.partially, source)
			}
		}
		e.check(bounds, 0)

		visibleChunksEmitted.Add(float64(e.emitted))
	}
}

// cornerBounds maps the four global rectangle corners into layout grid units
// and returns the integer cell box covering them.
func cornerBounds(layout *models.ChunkLayout, corners [4]mgl32.Vec3) geom.Bounds {
	var lower, upper [3]float32
	for i, corner := range corners {
		g := layout.GlobalToLocalGrid(corner)
		for d := 0; d < 3; d++ {
			if i == 0 || g[d] < lower[d] {
				lower[d] = g[d]
			}
			if i == 0 || g[d] > upper[d] {
				upper[d] = g[d]
			}
		}
	}

	var b geom.Bounds
	for d := 0; d < 3; d++ {
		b.Lower[d] = int32(math.Floor(float64(lower[d])))
		b.Upper[d] = int32(math.Floor(float64(upper[d]))) + 1
	}
	return b
}

func sourceBoundsUnion(sources []VisibleSource) geom.Bounds {
	union := sources[0].Source.Spec.Bounds
	for i := 1; i < len(sources); i++ {
		union = geom.Union(union, sources[i].Source.Spec.Bounds)
	}
	return union
}

// chunkEnumerator is the scratch state of one recursive subdivision: the
// current fully and partially covering source lists are mutated on descent
// and restored on return, so a full walk allocates only when a partial list
// grows.
type chunkEnumerator struct {
	layout        *models.ChunkLayout
	layoutContext any
	plane         geom.Plane
	onChunk       OnChunkFunc

	fully     []*models.Source
	partially []*models.Source

	emitted int64
}

// check walks the box by binary subdivision. axis is the round-robin split
// cursor; axes already reduced to extent 1 are skipped.
func (e *chunkEnumerator) check(b geom.Bounds, axis int) {
	if len(e.fully) == 0 && len(e.partially) == 0 {
		return
	}

	volume := b.Volume()
	if volume == 0 {
		return
	}
	if !e.plane.IntersectsBounds(b) {
		return
	}
	if volume == 1 {
		e.onChunk(e.layout, e.layoutContext, b.Lower, e.fully)
		e.emitted++
		return
	}

	for b.Upper[axis]-b.Lower[axis] == 1 {
		axis = (axis + 1) % 3
	}
	// Arithmetic shift keeps the midpoint floored for negative coordinates.
	mid := (b.Lower[axis] + b.Upper[axis]) >> 1

	lowerHalf := b
	lowerHalf.Upper[axis] = mid
	upperHalf := b
	upperHalf.Lower[axis] = mid

	nextAxis := (axis + 1) % 3
	e.descend(lowerHalf, nextAxis)
	e.descend(upperHalf, nextAxis)
}

// descend repartitions the partially covering sources against the sub-box:
// sources now fully covering it are promoted, sources now disjoint are
// dropped, the rest stay partial. Both lists are restored before returning.
func (e *chunkEnumerator) descend(b geom.Bounds, axis int) {
	savedFully := e.fully
	savedPartially := e.partially

	fully := savedFully
	var partially []*models.Source
	for _, source := range savedPartially {
		switch sourceBounds := source.Spec.Bounds; {
		case sourceBounds.Contains(b):
			fully = append(fully, source)
		case sourceBounds.Disjoint(b):
		default:
			partially = append(partially, source)
		}
	}

	e.fully = fully
	e.partially = partially
	e.check(b, axis)
	e.fully = savedFully
	e.partially = savedPartially
}

