package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	httpadapter "github.com/vmoroz/petition-assistant/internal/adapters/http"
	"github.com/vmoroz/petition-assistant/internal/bootstrap"
	"github.com/vmoroz/petition-assistant/internal/config"
	"github.com/vmoroz/petition-assistant/internal/core/tracker"
	"github.com/vmoroz/petition-assistant/internal/observability/logging"
	"github.com/vmoroz/petition-assistant/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	m := metrics.NewHTTPServerMetrics("api")
	app.SubmitUC.WithJoinObserver(func() { m.RecordSubmissionJoin("api") })

	statusSource := bootstrap.WithPollMetrics(app.CaseRepo, m, "api")
	statusTracker := tracker.New(statusSource, nil, logger, app.TrackerConfig())

	validator, err := httpadapter.NewRequestValidator()
	if err != nil {
		log.Fatalf("request validator error: %v", err)
	}

	router := httpadapter.NewRouter(
		app.CaseUC,
		app.IngestUC,
		app.DocUC,
		bootstrap.WithSubmitMetrics(app.SubmitUC, m, "api"),
		app.Sessions,
		app.Matcher,
		statusSource,
		statusTracker,
		validator,
		logger,
		httpadapter.Config{
			ServiceName:    "api",
			APIToken:       cfg.APIToken,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		},
	).WithMetrics(m)

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/", m.Middleware("api", router.Handler()))

	server := &http.Server{
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
		// Status streams stay open up to the tracker's duration bound;
		// the write timeout has to outlast it.
		WriteTimeout: time.Duration(cfg.TrackerMaxDurationMs)*time.Millisecond + time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		log.Fatalf("listen error: %v", err)
	}
	listener = netutil.LimitListener(listener, cfg.MaxConns)

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort, "max_conns", cfg.MaxConns)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_error", "error", err)
	}
}
