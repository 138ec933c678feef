// Command server runs the sandbox verification backend the embed client
// talks to. Business logic lives in internal/backend; main only wires
// dependencies and owns the process lifecycle.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"veriflow/internal/backend/auth"
	"veriflow/internal/backend/events"
	"veriflow/internal/backend/handler"
	"veriflow/internal/backend/partners"
	backendService "veriflow/internal/backend/service"
	"veriflow/internal/backend/store"
	"veriflow/internal/backend/token"
	"veriflow/internal/platform/config"
	"veriflow/internal/platform/httpserver"
	"veriflow/internal/platform/logger"
	platformRedis "veriflow/internal/platform/redis"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	sealer, err := token.NewSealer([]byte(cfg.LinkTokenKey))
	if err != nil {
		return err
	}

	var sessions store.SessionStore = store.NewMemory()
	redisClient, err := platformRedis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessions = store.NewRedis(redisClient.Client)
		log.Info("using redis session store")
	} else {
		log.Info("using in-memory session store")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Kafka.Brokers != "" {
		kp, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return err
		}
		defer kp.Close()
		publisher = kp
		log.Info("publishing events to kafka", slog.String("topic", cfg.Kafka.Topic))
	}

	registry := partners.NewRegistry()
	partner, apiKey, err := registry.Register("Veriflow Sandbox", "", 0)
	if err != nil {
		return err
	}
	// The sandbox partner key is ephemeral; it is logged once at boot so
	// local clients can pick it up.
	log.Info("sandbox partner registered",
		slog.String("partner_id", partner.ID),
		slog.String("api_key", apiKey))

	svc := backendService.New(sessions, sealer, registry,
		backendService.WithPublisher(publisher),
		backendService.WithLogger(log))
	jwtSvc := auth.NewJWTService(cfg.JWTSigningKey)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	handler.New(svc, registry, jwtSvc, log).Register(router)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	apiServer := httpserver.New(cfg.Addr, router)
	metricsServer := httpserver.New(cfg.MetricsAddr, metricsMux)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("api server listening", slog.String("addr", cfg.Addr))
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("metrics server listening", slog.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("api shutdown", slog.String("error", err.Error()))
		}
		return metricsServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
