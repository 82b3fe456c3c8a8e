package main

import (
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/sliceview/geom"
	"github.com/aukilabs/sliceview/models"
	"github.com/aukilabs/sliceview/sliceview"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

type datasetConfig struct {
	Viewport viewportConfig `yaml:"viewport"`
	Layers   []layerConfig  `yaml:"layers"`
}

type viewportConfig struct {
	Width     int           `yaml:"width"`
	Height    int           `yaml:"height"`
	Transform [][4]float32  `yaml:"transform"`
}

type layerConfig struct {
	Name      string        `yaml:"name"`
	MinLevel  *int          `yaml:"min_level"`
	MaxLevel  *int          `yaml:"max_level"`
	Transform [][4]float32  `yaml:"transform"`
	Scales    []scaleConfig `yaml:"scales"`
}

type scaleConfig struct {
	Alternatives []alternativeConfig `yaml:"alternatives"`
}

type alternativeConfig struct {
	ChunkDataSize [3]int32   `yaml:"chunk_data_size"`
	VoxelSize     [3]float32 `yaml:"voxel_size"`
	LowerBound    [3]int32   `yaml:"lower_bound"`
	UpperBound    [3]int32   `yaml:"upper_bound"`
}

func loadDataset(path string) (datasetConfig, error) {
	var dataset datasetConfig

	body, err := os.ReadFile(path)
	if err != nil {
		return dataset, errors.New("reading dataset file failed").Wrap(err)
	}
	if err := yaml.Unmarshal(body, &dataset); err != nil {
		return dataset, errors.New("parsing dataset file failed").Wrap(err)
	}

	if dataset.Viewport.Width <= 0 || dataset.Viewport.Height <= 0 {
		return dataset, errors.New("viewport size is not set")
	}
	if len(dataset.Layers) == 0 {
		return dataset, errors.New("dataset has no layers")
	}
	return dataset, nil
}

// matrixFromRows builds a transform from row-major YAML rows, defaulting to
// identity when no rows are given.
func matrixFromRows(rows [][4]float32) (mgl32.Mat4, error) {
	if len(rows) == 0 {
		return mgl32.Ident4(), nil
	}
	if len(rows) != 4 {
		return mgl32.Mat4{}, errors.New("transform must have 4 rows").
			WithTag("rows", len(rows))
	}

	var m mgl32.Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			m[col*4+row] = rows[row][col]
		}
	}
	return m, nil
}

func (c datasetConfig) buildView(registry *models.LayoutRegistry) (*sliceview.SliceView, error) {
	view := sliceview.New(registry)

	for _, layerConf := range c.Layers {
		layer, err := layerConf.buildLayer()
		if err != nil {
			return nil, err
		}
		view.AddRenderLayer(layer)
	}

	view.SetViewportSize(c.Viewport.Width, c.Viewport.Height)

	viewportToData, err := matrixFromRows(c.Viewport.Transform)
	if err != nil {
		return nil, errors.New("invalid viewport transform").Wrap(err)
	}
	view.SetViewportToDataTransform(viewportToData)

	return view, nil
}

func (c layerConfig) buildLayer() (*models.RenderLayer, error) {
	scales := make([][]*models.Source, len(c.Scales))
	for i, scale := range c.Scales {
		alternatives := make([]*models.Source, len(scale.Alternatives))
		for j, alt := range scale.Alternatives {
			alternatives[j] = models.NewSource(models.ChunkSpecification{
				ChunkDataSize: alt.ChunkDataSize,
				VoxelSize:     mgl32.Vec3(alt.VoxelSize),
				Bounds: geom.Bounds{
					Lower: alt.LowerBound,
					Upper: alt.UpperBound,
				},
			})
		}
		scales[i] = alternatives
	}

	matrix, err := matrixFromRows(c.Transform)
	if err != nil {
		return nil, errors.New("invalid layer transform").
			WithTag("layer", c.Name).
			Wrap(err)
	}
	transform := models.NewCoordinateTransform()
	transform.Set(matrix)

	constraints := models.UnconstrainedMIPLevels()
	if c.MinLevel != nil {
		constraints.MinLevel = *c.MinLevel
	}
	if c.MaxLevel != nil {
		constraints.MaxLevel = *c.MaxLevel
	}

	return models.NewRenderLayer(c.Name, scales, transform, constraints)
}
