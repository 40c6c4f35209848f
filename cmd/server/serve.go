package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"

	"liyu1981.xyz/glucose-watch-service/pkg/auth"
	"liyu1981.xyz/glucose-watch-service/pkg/cgm"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/events"
	glucoseGrpc "liyu1981.xyz/glucose-watch-service/pkg/grpc"
	glucoseHttp "liyu1981.xyz/glucose-watch-service/pkg/http"
	"liyu1981.xyz/glucose-watch-service/pkg/monitor"
	"liyu1981.xyz/glucose-watch-service/pkg/notify"
)

const (
	shutdownTimeout     = 10 * time.Second
	limiterPruneEvery   = 10 * time.Minute
	limiterIdleDuration = 30 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the optional gRPC server and the CGM poller",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("http", ":1080", "HTTP listen address")
	serveCmd.Flags().String("grpc", "", "gRPC listen address, empty disables gRPC")
	bindFlag(v, common.EnvKeyHttpHostPort, serveCmd, "http")
	bindFlag(v, common.EnvKeyGrpcHostPort, serveCmd, "grpc")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := common.GetLogger()

	dbInstance, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer dbInstance.Close()

	bus := events.NewBus(events.Options{MaxSubscribers: cfg.Stream.MaxSubscribers, Buffer: cfg.Stream.Buffer})
	defer bus.Close()

	m := newMonitor(cfg, dbInstance, bus)
	signer := auth.NewSigner(cfg.JWTSecret, cfg.JWTExpiry)

	var poller *cgm.Poller
	stopPoller := func() {}
	if cfg.CGMEnabled() {
		var cleanup func()
		poller, cleanup, err = newPoller(ctx, cfg, dbInstance, m)
		if err != nil {
			return err
		}
		defer cleanup()
		// a cycle may still be writing, so the poller is joined before the
		// redis client and the database close
		stopPoller = goWithCancel(ctx, poller.Run)
		defer stopPoller()
	} else {
		logger.Warn("CGM provider credentials not set, polling disabled")
	}

	if cfg.Telegram.Token != "" && len(cfg.Telegram.ChatIDs) > 0 {
		notifier, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatIDs, cfg.Telegram.MaxAlertAge)
		if err != nil {
			return err
		}
		if err := notifier.Start(bus); err != nil {
			return err
		}
		defer notifier.Stop()
	}

	authLimiter := monitor.NewRateLimiterStore(rate.Limit(cfg.AuthRate), cfg.AuthBurst)
	grpcLimiter := monitor.NewRateLimiterStore(rate.Limit(cfg.AuthRate*10), cfg.AuthBurst*10)
	stopPruning := goWithCancel(ctx, func(ctx context.Context) { pruneLimiters(ctx, authLimiter, grpcLimiter) })
	defer stopPruning()

	errCh := make(chan error, 2)

	var grpcServer *grpc.Server
	if cfg.GRPCHostPort != "" {
		listener, err := net.Listen("tcp", cfg.GRPCHostPort)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCHostPort, err)
		}

		glucoseServer := &glucoseGrpc.GlucoseServer{
			Monitor:          m,
			Signer:           signer,
			RateLimiterStore: grpcLimiter,
			BaseContext:      ctx,
		}
		grpcServer = glucoseServer.NewServer()

		go func() {
			logger.Info("Starting gRPC server on: " + cfg.GRPCHostPort)
			if err := grpcServer.Serve(listener); err != nil {
				errCh <- fmt.Errorf("grpc server failed to serve: %w", err)
			}
		}()
	}

	if common.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	rs := &glucoseHttp.RestfulServer{
		Server:           gin.Default(),
		Monitor:          m,
		Signer:           signer,
		Poller:           poller,
		RateLimiterStore: authLimiter,
		KeepAlive:        cfg.Stream.KeepAlive,
		SecureCookie:     common.IsProduction(),
	}
	rs.Setup()

	logger.Info("http server created with:",
		zap.String("auth_limiter", fmt.Sprintf("{\"rate\": %v, \"burst\": %v}", cfg.AuthRate, cfg.AuthBurst)),
		zap.Int("stream_max_subscribers", cfg.Stream.MaxSubscribers),
		zap.Duration("stream_keepalive", cfg.Stream.KeepAlive),
	)

	httpServer := &http.Server{
		Addr:              cfg.HTTPHostPort,
		Handler:           rs.Server,
		ReadHeaderTimeout: 10 * time.Second,
		// open streams watch this context and return when it is cancelled
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info("Starting HTTP server on: " + cfg.HTTPHostPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server failed to serve: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	stopPoller()

	logger.Info("Server stopped")
	return nil
}

func pruneLimiters(ctx context.Context, stores ...*monitor.RateLimiterStore) {
	ticker := time.NewTicker(limiterPruneEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, store := range stores {
				store.Prune(limiterIdleDuration)
			}
		}
	}
}
