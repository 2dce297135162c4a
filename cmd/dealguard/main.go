package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"dealguard/internal/alert"
	"dealguard/internal/batch"
	"dealguard/internal/config"
	"dealguard/internal/index"
	"dealguard/internal/logger"
	"dealguard/internal/metrics"
	"dealguard/internal/report"
	"dealguard/internal/snapshot"
	"dealguard/internal/source"
)

func main() {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if err := logger.Init(cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, os.Stdin, os.Stdout)
	stop()
	if err != nil {
		logger.Get().Error("dealguard failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, stdin io.Reader, stdout io.Writer) error {
	log := logger.Get()

	if cfg.LastReport {
		if cfg.ReportDir == "" {
			return errors.New("last-report needs -report-dir")
		}
		r, err := report.NewFilesystemReport(cfg.ReportDir).ReadLatest()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(&r)
	}

	src, closeSrc, err := openSource(cfg, stdin)
	if err != nil {
		return err
	}
	defer closeSrc()

	alerts, err := openAlerts(cfg)
	if err != nil {
		return err
	}

	mreg := metrics.NewRegistry()
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", mreg.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
		})
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	log.Info("starting dealguard",
		zap.String("input", cfg.InputSource),
		zap.String("index", cfg.IndexBackend),
		zap.String("order", cfg.OutputOrder),
	)

	runner := &batch.Runner{
		Source:      src,
		Alerts:      alerts,
		Reports:     openReports(cfg),
		Metrics:     mreg,
		Logger:      log,
		OutputOrder: cfg.OutputOrder,
		Snapshots:   openSnapshots(cfg),
		OpenIndex: func() (index.Store, error) {
			return index.Open(cfg.IndexBackend, cfg.IndexDir)
		},
	}
	out, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, batch.FormatIDs(out.Flagged))
	return err
}

func openSource(cfg config.Config, stdin io.Reader) (source.Source, func(), error) {
	switch cfg.InputSource {
	case "", "stdin":
		return source.NewLineSource(stdin), func() {}, nil
	case "file":
		f, err := os.Open(cfg.InputFile)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open input")
		}
		return source.NewLineSource(f), func() { _ = f.Close() }, nil
	case "kafka":
		if cfg.KafkaBootstrap == "" {
			return nil, nil, errors.New("kafka input needs -kafka-bootstrap")
		}
		ks, err := source.NewKafkaSource(source.KafkaConfig{
			Bootstrap: cfg.KafkaBootstrap,
			GroupID:   cfg.GroupID,
			Topic:     cfg.TopicOrders,
			Max:       cfg.KafkaMax,
			Idle:      cfg.KafkaIdle,
		})
		if err != nil {
			return nil, nil, errors.Wrap(err, "kafka source")
		}
		return ks, ks.Close, nil
	default:
		return nil, nil, errors.Newf("unknown input source %q", cfg.InputSource)
	}
}

func openAlerts(cfg config.Config) (alert.Writer, error) {
	var ws []alert.Writer
	if cfg.AlertFile != "" {
		fw, err := alert.NewFileWriter(cfg.AlertFile)
		if err != nil {
			return nil, errors.Wrap(err, "init alert file")
		}
		ws = append(ws, fw)
	}
	if cfg.TopicAlerts != "" && cfg.KafkaBootstrap != "" {
		ws = append(ws, alert.NewKafkaWriter(cfg.Brokers(), cfg.TopicAlerts))
	}
	switch len(ws) {
	case 0:
		return alert.NopWriter{}, nil
	case 1:
		return ws[0], nil
	default:
		return alert.NewMultiWriter(ws...), nil
	}
}

func openReports(cfg config.Config) report.Publisher {
	var pubs []report.Publisher
	if cfg.ReportDir != "" {
		pubs = append(pubs, report.NewFilesystemReport(cfg.ReportDir))
	}
	if cfg.TopicReports != "" && cfg.KafkaBootstrap != "" {
		pubs = append(pubs, report.NewKafkaReport(cfg.Brokers(), cfg.TopicReports, report.DefaultKey))
	}
	switch len(pubs) {
	case 0:
		return report.NopPublisher{}
	case 1:
		return pubs[0]
	default:
		return report.MultiPublisher(pubs...)
	}
}

func openSnapshots(cfg config.Config) snapshot.Snapshotter {
	if cfg.SnapshotDir == "" {
		return nil
	}
	return snapshot.NewFilesystemSnapshotter(cfg.SnapshotDir)
}
