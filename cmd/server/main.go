package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"tradebook/api/grpcserver"
	"tradebook/domain/market"
	"tradebook/infra/catalog"
	"tradebook/infra/config"
	"tradebook/infra/kafka"
	"tradebook/infra/logging"
	"tradebook/infra/metrics"
	"tradebook/jobs/broadcaster"
	"tradebook/service"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "YAML config file")
		grpcAddr = flag.String("grpc", "", "gRPC listen address (overrides config)")
		logLevel = flag.String("log-level", "", "log level (overrides config)")
		verify   = flag.Bool("verify", false, "check every book after each mutation")
	)
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *grpcAddr != "" {
		cfg.GRPC.Addr = *grpcAddr
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *verify {
		cfg.Engine.Verify = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	// ---------------- Engine ----------------

	eng := service.New(engineConfig(cfg.Engine), logger)
	engineDone := make(chan error, 1)
	go func() { engineDone <- eng.Run(context.Background()) }()
	defer func() {
		eng.Close()
		<-engineDone
	}()

	// ---------------- Catalog ----------------

	if cfg.Catalog.Dir != "" {
		n, err := loadCatalog(ctx, cfg.Catalog.Dir, eng, logger)
		if err != nil {
			return err
		}
		logger.Info("catalog loaded", zap.String("dir", cfg.Catalog.Dir), zap.Int("symbols", n))
	}

	var (
		wg   sync.WaitGroup
		errc = make(chan error, 4)
	)

	// ---------------- Metrics ----------------

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		if err := metrics.Register(reg, eng); err != nil {
			return errors.Wrap(err, "register metrics")
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- errors.Wrap(err, "metrics server")
			}
		}()
	}

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", cfg.GRPC.Addr)
	}
	grpcSrv, health := grpcserver.New(grpcserver.NewServer(eng, logger), logger)

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("grpc listening", zap.String("addr", lis.Addr().String()))
		if err := grpcSrv.Serve(lis); err != nil {
			errc <- errors.Wrap(err, "grpc server")
		}
	}()

	// ---------------- Kafka ----------------

	kctx, kcancel := context.WithCancel(ctx)
	defer kcancel()

	var (
		reader kafka.Reader
		bc     *broadcaster.Broadcaster
		kwg    sync.WaitGroup
	)
	if cfg.Kafka.Enabled {
		producer, err := broadcaster.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ProducerRetries)
		if err != nil {
			return err
		}
		bc = broadcaster.New(producer, cfg.Kafka.AckTopic, cfg.Engine.CommandBuffer, logger)
		reader = kafka.NewReader(cfg.Kafka)
		consumer := kafka.NewConsumer(reader, eng, bc, logger)

		kwg.Add(2)
		go func() {
			defer kwg.Done()
			bc.Run(kctx)
		}()
		go func() {
			defer kwg.Done()
			if err := consumer.Run(kctx); err != nil {
				errc <- err
			}
		}()
	}

	logger.Info("tradebook running")

	// ---------------- Shutdown ----------------

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errc:
		logger.Error("component failed, shutting down", zap.Error(err))
	}

	health.Shutdown()
	grpcSrv.GracefulStop()

	kcancel()
	kwg.Wait()
	if reader != nil {
		if cerr := reader.Close(); cerr != nil {
			logger.Warn("close kafka reader", zap.Error(cerr))
		}
	}
	if bc != nil {
		if cerr := bc.Close(); cerr != nil {
			logger.Warn("close ack producer", zap.Error(cerr))
		}
	}

	if metricsSrv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(sctx)
	}
	wg.Wait()
	return err
}

func engineConfig(c config.EngineConfig) service.Config {
	return service.Config{
		CommandBuffer: c.CommandBuffer,
		Verify:        c.Verify,
		Market: market.Config{
			OrderChunk:  c.OrderChunk,
			LevelChunk:  c.LevelChunk,
			BookChunk:   c.BookChunk,
			IndexHint:   c.IndexHint,
			MaxSymbolID: c.MaxSymbolID,
		},
	}
}

// loadCatalog registers every catalog symbol with the engine. The catalog
// is closed again so lobctl can edit it while the server runs.
func loadCatalog(ctx context.Context, dir string, eng *service.Engine, logger *zap.Logger) (int, error) {
	cat, err := catalog.Open(dir, catalog.WithLogger(logger))
	if err != nil {
		return 0, err
	}
	defer cat.Close()

	n := 0
	err = cat.Scan(func(e catalog.Entry) error {
		if _, err := eng.Submit(ctx, service.AddSymbol(e.Symbol)); err != nil {
			return errors.Wrapf(err, "register symbol %d", e.Symbol.ID)
		}
		n++
		return nil
	})
	return n, err
}
