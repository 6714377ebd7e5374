package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"planmark/internal/analysis"
	"planmark/internal/config"
	"planmark/internal/dispatcher"
	"planmark/internal/geo"
	"planmark/internal/influx"
	"planmark/internal/logging"
	"planmark/internal/monitor"
	intOtel "planmark/internal/otel"
	"planmark/internal/plan"
	"planmark/internal/review"
	"planmark/internal/sketch"
	"planmark/internal/store"
)

var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"
)

var (
	logManager    *logging.SlogManager
	otelProvider  *intOtel.Provider
	influxManager *influx.Manager
	events        *dispatcher.Dispatcher
	sessionStart  = time.Now()
)

// slogLogger adapts the slog manager to the dispatcher's logger.
type slogLogger struct{ l *slog.Logger }

func (s slogLogger) Debug(msg string, keysAndValues ...any) { s.l.Debug(msg, keysAndValues...) }
func (s slogLogger) Info(msg string, keysAndValues ...any)  { s.l.Info(msg, keysAndValues...) }
func (s slogLogger) Error(msg string, keysAndValues ...any) { s.l.Error(msg, keysAndValues...) }

func setup() (store.Store, error) {
	if err := config.Load("."); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs dir: %w", err)
	}
	logFile, err := os.Create(logging.LogFilePath(logsDir, "planmark", sessionStart))
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	var provider *sdklog.LoggerProvider
	otelProvider, err = intOtel.New(intOtel.Config{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  "planmark",
		BatchTimeout: 5 * time.Second,
		LogWriter:    logFile,
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init otel: %w", err)
	}
	provider = otelProvider.LoggerProvider()

	logManager = logging.NewSlogManager()
	logManager.Setup(logFile, viper.GetString("logLevel"), provider)

	zlog := zerolog.New(os.Stderr).With().Timestamp().Logger()
	records, err := store.NewStore(config.Storage(), zlog)
	if err != nil {
		return nil, err
	}
	if err := records.Init(); err != nil {
		return nil, fmt.Errorf("failed to init marker store: %w", err)
	}

	if viper.GetBool("influx.enabled") {
		influxManager = influx.NewManager(zlog, filepath.Join(logsDir, "influx_backup.gz"))
		if err := influxManager.Connect(); err != nil {
			return nil, fmt.Errorf("failed to init influx: %w", err)
		}
		events, err = dispatcher.New(slogLogger{logManager.Logger()})
		if err != nil {
			return nil, fmt.Errorf("failed to init event dispatcher: %w", err)
		}
		influx.RegisterHandlers(events, influxManager)
	}

	return records, nil
}

func main() {
	records, err := setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() {
		records.Close()
		if otelProvider != nil {
			otelProvider.Shutdown(context.Background())
		}
	}()

	log := logManager.Logger()
	log.Info("Starting up", "version", CurrentVersion, "buildDate", BuildDate)

	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Println("usage: planmark <export|healthcheck|hittest|render|status> [args]")
		return
	}

	switch strings.ToLower(args[0]) {
	case "export":
		err = exportMarkers(records, args[1:])
	case "healthcheck":
		err = healthcheck()
	case "status":
		err = status(records)
	case "hittest":
		if len(args) < 2 {
			err = fmt.Errorf("usage: planmark hittest <x,y>")
		} else {
			err = hittest(args[1])
		}
	case "render":
		if len(args) < 3 {
			err = fmt.Errorf("usage: planmark render <markerId> <out.png>")
		} else {
			err = renderSketch(records, args[1], args[2])
		}
	default:
		err = fmt.Errorf("unknown command %q", args[0])
	}

	if err != nil {
		log.Error("Command failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exportMarkers writes all saved markers as a gzipped JSON document.
func exportMarkers(records store.Store, args []string) error {
	outPath := fmt.Sprintf("planmark_export_%s.json.gz", sessionStart.Format("20060102_150405"))
	if len(args) > 0 {
		outPath = args[0]
	}

	markers := records.Records()
	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	defer gz.Close()

	doc := map[string]any{"markers": markers}
	if err := json.NewEncoder(gz).Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	fmt.Printf("Exported %d markers to %s\n", len(markers), outPath)
	return nil
}

// healthcheck verifies the analysis service and plan endpoints respond.
func healthcheck() error {
	client := analysis.New(viper.GetString("analysis.serverUrl"), config.AnalysisTimeout())
	if err := client.Healthcheck(); err != nil {
		return fmt.Errorf("analysis service: %w", err)
	}
	fmt.Println("analysis service: ok")

	loader := plan.NewLoader(viper.GetString("plan.svgUrl"), viper.GetString("plan.elementsUrl"))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := loader.Load(ctx); err != nil {
		return fmt.Errorf("plan endpoints: %w", err)
	}
	fmt.Printf("plan endpoints: ok (%d elements)\n", len(loader.Elements()))
	return nil
}

// status prints one application status snapshot. When influx is
// enabled the snapshot is also exported as a point.
func status(records store.Store) error {
	client := analysis.New(viper.GetString("analysis.serverUrl"), config.AnalysisTimeout())

	var sink monitor.MetricsSink
	if influxManager != nil {
		sink = influxManager
	}
	svc := monitor.NewService(records, client, sink, logManager.Logger())

	out, err := svc.SnapshotJSON()
	if err != nil {
		return fmt.Errorf("failed to build status snapshot: %w", err)
	}
	fmt.Println(out)

	if sink != nil {
		svc.Export()
	}
	return nil
}

// hittest resolves a plan coordinate against the element index.
func hittest(coords string) error {
	pt, err := geo.ParsePosition(coords)
	if err != nil {
		return err
	}

	loader := plan.NewLoader(viper.GetString("plan.svgUrl"), viper.GetString("plan.elementsUrl"))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := loader.Load(ctx); err != nil {
		return err
	}

	idx, err := plan.NewIndex(loader.Elements())
	if err != nil {
		return err
	}

	hits := idx.Query(pt)
	if len(hits) == 0 {
		fmt.Printf("(%g, %g): no element\n", pt.X, pt.Y)
		return nil
	}
	for _, el := range hits {
		fmt.Printf("(%g, %g): %s %s [%s] material=%s\n",
			pt.X, pt.Y, el.Category, el.ElementID, el.Name, el.Material())
	}
	return nil
}

// renderSketch rasterizes a saved marker's drawing to a PNG file.
func renderSketch(records store.Store, idArg, outPath string) error {
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid marker id %q", idArg)
	}

	m, ok := records.Record(id)
	if !ok {
		return fmt.Errorf("marker %d not found", id)
	}
	if m.DrawingData == "" {
		return review.ErrNoSketch
	}

	d, err := sketch.Parse(m.DrawingData)
	if err != nil {
		return err
	}
	png, err := sketch.RenderPNG(d, fmt.Sprintf("marker %d", m.ID))
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, png, 0644); err != nil {
		return fmt.Errorf("failed to write PNG: %w", err)
	}
	fmt.Printf("Rendered sketch of marker %d to %s\n", id, outPath)
	return nil
}
