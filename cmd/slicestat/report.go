package main

import (
	"github.com/aukilabs/sliceview/models"
	"github.com/aukilabs/sliceview/sliceview"
)

type report struct {
	PixelSize float32        `json:"pixel_size"`
	Layouts   []layoutReport `json:"layouts"`
	Prefetch  []layoutReport `json:"prefetch,omitempty"`
}

type layoutReport struct {
	Size       [3]float32     `json:"size"`
	Transform  [16]float32    `json:"transform"`
	Sources    []sourceReport `json:"sources"`
	ChunkCount int            `json:"chunk_count"`
	Chunks     []chunkReport  `json:"chunks"`
}

type sourceReport struct {
	UUID       string  `json:"uuid"`
	ScaleIndex int     `json:"scale_index"`
	Priority   float32 `json:"priority"`
	Forced     bool    `json:"forced,omitempty"`
}

type chunkReport struct {
	Cell         [3]int32 `json:"cell"`
	FullyVisible []string `json:"fully_visible"`
}

func buildReport(view *sliceview.SliceView, dumpLayouts bool, prefetchOffset float32) report {
	rep := report{
		PixelSize: view.PixelSize(),
	}

	rep.Layouts = collectLayouts(view, dumpLayouts,
		func(getContext sliceview.LayoutContextFunc, onChunk sliceview.OnChunkFunc) {
			view.ComputeVisibleChunks(getContext, onChunk, nil)
		})

	if prefetchOffset > 0 {
		rep.Prefetch = collectLayouts(view, dumpLayouts,
			func(getContext sliceview.LayoutContextFunc, onChunk sliceview.OnChunkFunc) {
				view.ComputePrefetchChunks(prefetchOffset, getContext, onChunk, nil)
			})
	}
	return rep
}

func collectLayouts(view *sliceview.SliceView, dumpLayouts bool, compute func(sliceview.LayoutContextFunc, sliceview.OnChunkFunc)) []layoutReport {
	var layouts []layoutReport
	index := make(map[*models.ChunkLayout]int)

	compute(
		func(layout *models.ChunkLayout) any {
			lr := layoutReport{}
			if dumpLayouts {
				lr.Size = [3]float32(layout.Size)
				lr.Transform = [16]float32(layout.Transform)
			}
			for _, vl := range view.VisibleLayouts() {
				if vl.Layout != layout {
					continue
				}
				for _, vs := range vl.Sources {
					lr.Sources = append(lr.Sources, sourceReport{
						UUID:       vs.Source.SourceUUID,
						ScaleIndex: vs.ScaleIndex,
						Priority:   vs.Priority,
						Forced:     vs.Forced,
					})
				}
			}
			index[layout] = len(layouts)
			layouts = append(layouts, lr)
			return nil
		},
		func(layout *models.ChunkLayout, layoutContext any, cell [3]int32, fullyVisible []*models.Source) {
			lr := &layouts[index[layout]]
			uuids := make([]string, len(fullyVisible))
			for i, s := range fullyVisible {
				uuids[i] = s.SourceUUID
			}
			lr.Chunks = append(lr.Chunks, chunkReport{
				Cell:         cell,
				FullyVisible: uuids,
			})
			lr.ChunkCount++
		},
	)
	return layouts
}
