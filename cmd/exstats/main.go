package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"exstats/internal/feed"
	"exstats/internal/ingest"
	"exstats/internal/obs"
	"exstats/internal/ops"
	"exstats/internal/stats"

	"github.com/grafana/pyroscope-go"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

const (
	defaultSocket   = "/tmp/exstats/feed.sock"
	bootstrapWait   = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		logs.Errorf("exstats: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "JSON config file (optional)")
	envFileFlag := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	socketFlag := flag.String("socket", "", "feed socket path (overrides config)")
	opsFlag := flag.String("ops-addr", "", "ops HTTP listen address (overrides config)")
	flag.Parse()

	if envFile := strings.TrimSpace(*envFileFlag); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "load env file").With("path", envFile)
		}
	}

	cfg, err := ops.Load(strings.TrimSpace(*configFlag))
	if err != nil {
		return err
	}
	if s := strings.TrimSpace(*socketFlag); s != "" {
		cfg.FeedSocket = s
	}
	if cfg.FeedSocket == "" {
		cfg.FeedSocket = defaultSocket
	}
	if s := strings.TrimSpace(*opsFlag); s != "" {
		cfg.OpsAddr = s
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.PyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "exstats",
			ServerAddress:   cfg.PyroscopeAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return errors.Wrap(err, "start pyroscope")
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	store, client, err := stats.Open(cfg.Backend)
	if err != nil {
		return err
	}
	defer client.Close()

	bootCtx, cancel := context.WithTimeout(ctx, bootstrapWait)
	err = store.EnsureSchema(bootCtx)
	cancel()
	if err != nil {
		return errors.Wrap(err, "bootstrap schema").With("table", store.Table())
	}
	logs.Infof("stats table ready: %s (%s)", store.Table(), client.Driver())

	metrics := obs.NewMetrics()
	pipeline, err := ingest.NewPipeline(store, cfg.Pipeline, metrics)
	if err != nil {
		return err
	}
	pipeline.Start(ctx)

	var server *ops.Server
	if cfg.OpsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			obs.NewCollector(metrics),
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		server = ops.NewServer(cfg.OpsAddr, ops.NewRouter(reg, store))
		server.Start()
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FeedSocket), 0o755); err != nil {
		return errors.Wrap(err, "create socket dir").With("path", cfg.FeedSocket)
	}
	listener, err := feed.NewListener(cfg.FeedSocket)
	if err != nil {
		return err
	}
	if err := pipeline.Attach(ctx, listener); err != nil {
		_ = pipeline.Close(context.Background())
		return errors.Wrap(err, "attach feed").With("socket", cfg.FeedSocket)
	}

	<-ctx.Done()
	logs.Info("shutting down")

	closeCtx, cancelClose := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelClose()

	if server != nil {
		if err := server.Shutdown(closeCtx); err != nil {
			logs.Errorf("ops shutdown, err: %+v", err)
		}
	}
	if err := pipeline.Close(closeCtx); err != nil {
		logs.Errorf("pipeline close, err: %+v", err)
	}
	return nil
}
