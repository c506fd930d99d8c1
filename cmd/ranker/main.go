// Command ranker fetches boarding rows, ranks destinations per hour window,
// and serves the latest report over HTTP.
//
// Usage:
//
//	ranker                      # serve until SIGINT/SIGTERM
//	ranker -once                # one refresh, text report on stdout
//	ranker -once -format json   # one refresh, JSON report on stdout
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/transit-ranking-etl/internal/adapter/credentials"
	"github.com/couchcryptid/transit-ranking-etl/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/transit-ranking-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/transit-ranking-etl/internal/adapter/kafka"
	"github.com/couchcryptid/transit-ranking-etl/internal/adapter/sheets"
	"github.com/couchcryptid/transit-ranking-etl/internal/adapter/trigger"
	"github.com/couchcryptid/transit-ranking-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/transit-ranking-etl/internal/config"
	"github.com/couchcryptid/transit-ranking-etl/internal/domain"
	"github.com/couchcryptid/transit-ranking-etl/internal/observability"
	"github.com/couchcryptid/transit-ranking-etl/internal/pipeline"
	"github.com/couchcryptid/transit-ranking-etl/internal/render"
)

func main() {
	once := flag.Bool("once", false, "run a single refresh, print the report, and exit")
	format := flag.String("format", "text", "report format for -once: text or json")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *once {
		logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
		p := newPipeline(cfg, logger, observability.NewMetrics())
		if err := runOnce(context.Background(), p, *format, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := serve(cfg); err != nil {
		slog.Error("ranker stopped with error", "error", err)
		os.Exit(1)
	}
}

// runOnce performs one refresh and writes the report to w.
func runOnce(ctx context.Context, p *pipeline.Pipeline, format string, w io.Writer) error {
	write := render.Text
	switch format {
	case "text":
	case "json":
		write = render.JSON
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	run, err := p.Refresh(ctx)
	if err != nil {
		return err
	}
	return write(w, run)
}

func serve(cfg *config.Config) error {
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	var publishers []pipeline.Publisher
	var kafkaPub *kafkaadapter.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub = kafkaadapter.NewPublisher(cfg)
		publishers = append(publishers, kafkaPub)
		logger.Info("kafka report publishing enabled", "topic", cfg.KafkaReportTopic)
	}

	p := newPipeline(cfg, logger, metrics, publishers...)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, cfg.FetchTimeout+cfg.ShutdownTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Initial refresh so /report and /readyz have something to serve.
	g.Go(func() error {
		if _, err := p.Refresh(gctx); err != nil && !errors.Is(err, pipeline.ErrRefreshInProgress) {
			logger.Error("initial refresh failed", "error", err)
		}
		return nil
	})

	if cfg.RefreshSchedule != "" {
		sched, err := trigger.NewSchedule(cfg.RefreshSchedule, p, logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return sched.Run(gctx) })
	}

	if cfg.WatchSource {
		watch := trigger.NewWatch(cfg.SourcePath, trigger.DefaultDebounce, p, logger)
		g.Go(func() error { return watch.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	err := g.Wait()

	if kafkaPub != nil {
		if cerr := kafkaPub.Close(); cerr != nil {
			logger.Error("kafka publisher close error", "error", cerr)
		}
	}
	logger.Info("shutdown complete")
	return err
}

func newPipeline(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, publishers ...pipeline.Publisher) *pipeline.Pipeline {
	settings := pipeline.Settings{
		RangeID:      cfg.SourceRange,
		FetchTimeout: cfg.FetchTimeout,
		Windows:      cfg.Windows,
		Options:      cfg.AggregateOptions(),
		Normalizer:   domain.NewNormalizer(cfg.Location, cfg.Cleaning),
	}
	creds := credentials.Select(cfg.CredentialsFile, cfg.CredentialsEnv)
	return pipeline.New(creds, newSource(cfg), settings, logger, metrics, publishers...)
}

func newSource(cfg *config.Config) pipeline.Source {
	switch cfg.SourceKind {
	case config.SourceSheets:
		return sheets.NewSource(cfg.SpreadsheetID)
	case config.SourceCSV:
		return csvfile.Source{Path: cfg.SourcePath}
	default:
		return xlsx.Source{Path: cfg.SourcePath}
	}
}
