package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/andriarta/payrecon/internal/db"
	"github.com/andriarta/payrecon/internal/handlers"
	"github.com/andriarta/payrecon/internal/logger"
	"github.com/andriarta/payrecon/internal/repository/postgres"
	"github.com/andriarta/payrecon/internal/service/expiry"
	"github.com/andriarta/payrecon/internal/service/matching"
	"github.com/andriarta/payrecon/internal/service/report"
	"github.com/andriarta/payrecon/internal/service/settlement"
	"github.com/andriarta/payrecon/internal/service/verification"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger  logger.Logger
	monitor *expiry.Monitor
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	reportService := report.NewService(storage, l)
	matchingService := matching.NewService(storage, c.MatchingConfig(), l)
	settlementService := settlement.NewService(storage, c.TopupTTL, l)
	verificationService := verification.NewService(storage, settlementService, l)

	mux := handlers.NewRouter(
		storage,
		reportService,
		matchingService,
		verificationService,
		settlementService,
		l,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		logger:     l,
		monitor:    expiry.NewMonitor(settlementService, c.SweepInterval, l),
	}, nil
}

// Run starts the http server and the expiry monitor, closing both gracefully
// on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	monitorStopped := s.monitor.Run(srvCtx)

	idleConnsClosed := make(chan struct{})
	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-monitorStopped

	return err
}
