// Command walkthroughd runs the session coordinator as a standalone
// process: one HTTP surface serving the command channel and dashboard
// gateway, one Redis-backed session store, one navigation watcher.
//
// Wiring shape (construct dependencies, start background loops, serve,
// wait for a termination signal, shut down with a bounded grace period) is
// grounded on cmd/dev-console/main_connection_mcp.go's
// startHTTPServer/awaitShutdownSignal pair.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/bridge"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/config"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/coordinator"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/healer"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/logging"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/machine"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/navigation"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/page"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/router"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/store"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

func main() {
	configPath := flag.String("config", "", "path to a walkthroughd config YAML; defaults compiled in if empty")
	flag.Parse()

	log, err := logging.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "walkthroughd: logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal("load config", zap.Error(err))
		}
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("walkthroughd exited with error", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	machine.SetSessionIDFactory(uuid.NewString)

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	sessionStore := store.New(redisClient)

	metrics, err := coordinator.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	sendCh := make(chan tabSend, 256)
	broadcaster := bridge.NewTabBroadcaster(func(ctx context.Context, tabID int, msg wtypes.StateChanged) error {
		// Real delivery happens over the extension's native-messaging
		// host; here it is queued for that binding to drain. Swapped
		// out entirely in tests, which supply their own TabSender.
		select {
		case sendCh <- tabSend{tabID: tabID, msg: msg}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}, cfg, log)

	coord := coordinator.New(cfg, sessionStore, broadcaster, log, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := coord.Start(ctx); err != nil {
		return fmt.Errorf("start coordinator: %w", err)
	}
	defer coord.Close()

	alarms := navigation.NewTimerAlarmService()
	watcher := navigation.New(coord, alarms, cfg, log)
	watcher.Initialize(ctx)

	navSendCh := make(chan navSend, 64)
	navigator := bridge.NewTabNavigator(func(ctx context.Context, tabID int, url string) error {
		// Same queue-and-drain shape as sendCh above: the native-messaging
		// binding is what actually tells the browser to navigate.
		select {
		case navSendCh <- navSend{tabID: tabID, url: url}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	r := router.New(coord, navigator)
	cmdDispatcher := bridge.NewCommandDispatcher(coord, r)
	gateway := bridge.NewGateway(cmdDispatcher, coord, cfg, log)

	healerSvc := healer.New(nil, healer.NewFragileTracker())
	pageCtrl := page.New(coord, referenceFinder{}, healerSvc, &referenceUI{log: log}, cfg, log)
	pageCtrl.Start()
	defer pageCtrl.Stop()

	unsubscribe := coord.Subscribe(func(state wtypes.WalkthroughState) {
		if state.MachineState == wtypes.StateShowingStep && state.CurrentStepIndex >= 0 && state.CurrentStepIndex < len(state.Steps) {
			// Subscribers run on the coordinator's actor goroutine, and
			// OnStepShown dispatches back into the coordinator, so it runs
			// on its own goroutine.
			go pageCtrl.OnStepShown(context.Background(), state.Steps[state.CurrentStepIndex], "")
		}
	})
	defer unsubscribe()

	srv, httpDone, err := startHTTPServer(gateway.Router(), cfg.HTTPAddr)
	if err != nil {
		return err
	}

	awaitShutdownSignal(log, srv, httpDone)
	return nil
}

type tabSend struct {
	tabID int
	msg   wtypes.StateChanged
}

type navSend struct {
	tabID int
	url   string
}

func startHTTPServer(handler http.Handler, addr string) (*http.Server, <-chan struct{}, error) {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	done := make(chan struct{})
	ready := make(chan error, 1)

	go func() {
		defer close(done)
		ready <- nil
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "walkthroughd: http server error: %v\n", err)
		}
	}()

	if err := <-ready; err != nil {
		return nil, nil, err
	}
	return srv, done, nil
}

// awaitShutdownSignal blocks until SIGINT/SIGTERM or the listener dying
// unexpectedly, then shuts the server down with a bounded grace period.
func awaitShutdownSignal(log *zap.Logger, srv *http.Server, httpDone <-chan struct{}) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-sigCh:
		log.Info("shutting down", zap.String("signal", s.String()))
	case <-httpDone:
		log.Warn("http listener exited unexpectedly, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", zap.Error(err))
	}
}
