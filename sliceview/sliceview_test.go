package sliceview

import (
	"testing"

	"github.com/aukilabs/sliceview/geom"
	"github.com/aukilabs/sliceview/models"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func testSource(chunkDataSize int32, voxelSize float32, bounds geom.Bounds) *models.Source {
	return models.NewSource(models.ChunkSpecification{
		ChunkDataSize: [3]int32{chunkDataSize, chunkDataSize, chunkDataSize},
		VoxelSize:     mgl32.Vec3{voxelSize, voxelSize, voxelSize},
		Bounds:        bounds,
	})
}

func testBounds(n int32) geom.Bounds {
	return geom.Bounds{Upper: [3]int32{n, n, n}}
}

func testLayer(t *testing.T, constraints models.MIPLevelConstraints, scales ...[]*models.Source) *models.RenderLayer {
	t.Helper()
	layer, err := models.NewRenderLayer("test", scales, nil, constraints)
	require.NoError(t, err)
	return layer
}

func TestSetViewportSize(t *testing.T) {
	view := New(nil)

	require.True(t, view.SetViewportSize(800, 600))
	require.False(t, view.SetViewportSize(800, 600))
	require.True(t, view.SetViewportSize(1024, 768))
}

func TestSetViewportToDataTransform(t *testing.T) {
	view := New(nil)

	require.True(t, view.SetViewportToDataTransform(mgl32.Ident4()))
	require.False(t, view.SetViewportToDataTransform(mgl32.Ident4()))

	// A near-axis-aligned matrix snaps to the same exact matrix.
	noisy := mgl32.Ident4()
	noisy.Set(1, 0, 1e-8)
	require.False(t, view.SetViewportToDataTransform(noisy))

	require.True(t, view.SetViewportToDataTransform(mgl32.Translate3D(1, 0, 0)))
}

func TestViewportAxesAndPixelSize(t *testing.T) {
	view := New(nil)
	view.SetViewportToDataTransform(mgl32.Scale3D(3, 3, 3))

	require.InDelta(t, 3, view.PixelSize(), 1e-6)
	axes := view.Axes()
	require.InDelta(t, 1, axes[0].Len(), 1e-6)
	require.Equal(t, mgl32.Vec3{1, 0, 0}, axes[0])
	require.Equal(t, mgl32.Vec3{0, 1, 0}, axes[1])
	require.Equal(t, mgl32.Vec3{0, 0, 1}, axes[2])
}

func TestViewportValidHookFiresOnce(t *testing.T) {
	view := New(nil)

	var validCount int
	view.OnViewportValid(func() { validCount++ })

	view.SetViewportSize(100, 100)
	require.Equal(t, 0, validCount)

	view.SetViewportToDataTransform(mgl32.Ident4())
	require.Equal(t, 1, validCount)

	view.SetViewportToDataTransform(mgl32.Translate3D(5, 0, 0))
	view.SetViewportSize(200, 200)
	require.Equal(t, 1, validCount)
}

func TestTransformChangedHook(t *testing.T) {
	view := New(nil)

	var changed int
	view.OnTransformChanged(func() { changed++ })

	view.SetViewportToDataTransform(mgl32.Ident4())
	view.SetViewportToDataTransform(mgl32.Ident4()) // unchanged, no fire
	view.SetViewportToDataTransform(mgl32.Translate3D(1, 0, 0))
	require.Equal(t, 2, changed)
}

func TestStaleHysteresisPixelSize(t *testing.T) {
	view := New(nil)
	view.SetViewportSize(100, 100)
	view.SetViewportToDataTransform(mgl32.Ident4())
	view.UpdateVisibleSources()
	require.False(t, view.Stale())

	// Sub-threshold jitter around the baseline never marks the view stale.
	for _, s := range []float32{1.00005, 0.99995, 1.00008, 1} {
		view.SetViewportToDataTransform(mgl32.Scale3D(s, s, s))
		require.False(t, view.Stale(), "scale %v", s)
	}

	// A change beyond the relative tolerance does.
	view.SetViewportToDataTransform(mgl32.Scale3D(1.01, 1.01, 1.01))
	require.True(t, view.Stale())
}

func TestStaleHysteresisAxisRotation(t *testing.T) {
	view := New(nil)
	view.SetViewportSize(100, 100)
	view.SetViewportToDataTransform(mgl32.Ident4())
	view.UpdateVisibleSources()
	require.False(t, view.Stale())

	// ~10 degrees: dot with the baseline axis stays above 0.95.
	view.SetViewportToDataTransform(mgl32.HomogRotate3D(0.17, mgl32.Vec3{0, 0, 1}))
	require.False(t, view.Stale())

	// ~20 degrees from the baseline crosses the threshold, even though each
	// individual step stayed under it.
	view.SetViewportToDataTransform(mgl32.HomogRotate3D(0.35, mgl32.Vec3{0, 0, 1}))
	require.True(t, view.Stale())
}

func TestUpdateVisibleSourcesIdempotent(t *testing.T) {
	view := New(nil)
	view.AddRenderLayer(testLayer(t, models.UnconstrainedMIPLevels(),
		[]*models.Source{testSource(64, 1, testBounds(4))},
	))
	view.SetViewportSize(512, 512)
	view.SetViewportToDataTransform(mgl32.Translate3D(128, 128, 128))

	layouts := view.VisibleLayouts()
	require.Len(t, layouts, 1)
	require.Len(t, layouts[0].Sources, 1)

	again := view.VisibleLayouts()
	require.Equal(t, layouts, again)
}

func TestRemoveRenderLayer(t *testing.T) {
	view := New(nil)
	layer := testLayer(t, models.UnconstrainedMIPLevels(),
		[]*models.Source{testSource(64, 1, testBounds(4))},
	)
	view.AddRenderLayer(layer)
	view.SetViewportSize(512, 512)
	view.SetViewportToDataTransform(mgl32.Translate3D(128, 128, 128))
	require.Len(t, view.VisibleLayouts(), 1)

	view.RemoveRenderLayer(layer)
	require.True(t, view.Stale())
	require.Empty(t, view.VisibleLayouts())
}

func TestLayerTransformChangeInvalidatesVisibleSources(t *testing.T) {
	layer := testLayer(t, models.UnconstrainedMIPLevels(),
		[]*models.Source{testSource(256, 1, testBounds(4))},
	)
	view := New(nil)
	view.AddRenderLayer(layer)
	view.SetViewportSize(2048, 2048)
	view.SetViewportToDataTransform(mgl32.Translate3D(512, 512, 640))

	require.Len(t, collectChunks(view, nil), 16)
	require.False(t, view.Stale())

	// Moving the layer far away relocates its chunk grid; the next
	// enumeration must rebuild against the new layout instead of emitting
	// the old cells.
	layer.Transform.Set(mgl32.Translate3D(10000, 10000, 10000))
	require.True(t, view.Stale())
	require.Empty(t, collectChunks(view, nil))
	require.False(t, view.Stale())

	// Back to the original transform, the old cells reappear.
	layer.Transform.Set(mgl32.Ident4())
	require.True(t, view.Stale())
	require.Len(t, collectChunks(view, nil), 16)
}

func TestFinestVisibleScaleHook(t *testing.T) {
	layer := testLayer(t, models.UnconstrainedMIPLevels(),
		[]*models.Source{testSource(64, 1, testBounds(8))},
		[]*models.Source{testSource(64, 2, testBounds(4))},
		[]*models.Source{testSource(64, 4, testBounds(2))},
	)

	var finest int
	layer.OnFinestVisibleScale = func(scaleIndex int) { finest = scaleIndex }

	view := New(nil)
	view.AddRenderLayer(layer)
	view.SetViewportSize(512, 512)

	// Zoomed out: only the coarsest level renders.
	view.SetViewportToDataTransform(mgl32.Scale3D(8, 8, 8).Mul4(mgl32.Translate3D(32, 32, 32)))
	view.UpdateVisibleSources()
	require.Equal(t, 2, finest)

	// Zoomed in: the walk descends to the finest level.
	view.SetViewportToDataTransform(mgl32.Translate3D(256, 256, 256))
	view.UpdateVisibleSources()
	require.Equal(t, 0, finest)
}
