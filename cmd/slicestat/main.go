package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"reflect"
	"syscall"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/sliceview/featureflag"
	"github.com/aukilabs/sliceview/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
)

var (
	// The slicestat version number. Set at build.
	version = "v0.1.0"
)

// Keeps the cli package from generating garbled command-line options when the
// binary is built with obfuscation.
var _ = reflect.TypeOf(config{})

type config struct {
	Dataset          string   `cli:""        env:"SLICESTAT_DATASET"           help:"Path to the YAML dataset description."`
	LogLevel         string   `cli:""        env:"SLICESTAT_LOG_LEVEL"         help:"Log level (debug|info|warning|error)."`
	LogIndent        bool     `cli:""        env:"SLICESTAT_LOG_INDENT"        help:"Indent logs."`
	MetricsAddr      string   `cli:",hidden" env:"SLICESTAT_METRICS_ADDR"      help:"Listening address for the Prometheus metrics endpoint. Keeps the process alive after the report."`
	PrefetchDistance int32    `cli:",hidden" env:"SLICESTAT_PREFETCH_DISTANCE" help:"How many pixels to look ahead along the viewing direction when prefetch is enabled."`
	FeatureFlags     []string `cli:",hidden" env:"SLICESTAT_FEATURE_FLAGS"     help:"Comma separated feature flags."`
	Version          bool     `cli:""        env:"-"                           help:"Show version."`
}

func main() {
	conf := config{
		Dataset:          "dataset.yml",
		LogLevel:         logs.InfoLevel.String(),
		PrefetchDistance: 1,
	}

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Computes the visible chunk set for a dataset and viewport.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}
	errors.Encoder = json.Marshal

	flags := featureflag.New(conf.FeatureFlags)

	dataset, err := loadDataset(conf.Dataset)
	if err != nil {
		logs.Fatal(errors.New("loading dataset description failed").
			WithTag("dataset", conf.Dataset).
			Wrap(err))
	}

	registry := models.NewLayoutRegistry()
	view, err := dataset.buildView(registry)
	if err != nil {
		logs.Fatal(errors.New("building viewport failed").
			WithTag("dataset", conf.Dataset).
			Wrap(err))
	}

	var prefetchOffset float32
	flags.IfSet(featureflag.FlagPrefetch, func() {
		prefetchOffset = float32(conf.PrefetchDistance) * view.PixelSize()
	})

	rep := buildReport(view, flags.Enabled(featureflag.FlagDumpLayouts), prefetchOffset)

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		logs.Fatal(errors.New("encoding report failed").Wrap(err))
	}
	fmt.Println(string(out))

	if conf.MetricsAddr == "" {
		return
	}

	var mux http.ServeMux
	mux.Handle("/metrics", promhttp.Handler())
	server := http.Server{
		Addr:    conf.MetricsAddr,
		Handler: &mux,
	}
	go func() {
		<-ctx.Done()
		server.Close()
	}()
	logs.WithTag("addr", conf.MetricsAddr).Info("serving metrics")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logs.Error(errors.New("metrics server stopped").Wrap(err))
	}
}
