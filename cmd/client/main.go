package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/projectdesk/internal/client/cli"
	"github.com/dmitrijs2005/projectdesk/internal/client/client"
	"github.com/dmitrijs2005/projectdesk/internal/client/config"
	"github.com/dmitrijs2005/projectdesk/internal/client/profile"
	"github.com/dmitrijs2005/projectdesk/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/projectdesk/internal/client/router"
	"github.com/dmitrijs2005/projectdesk/internal/client/session"
	"github.com/dmitrijs2005/projectdesk/internal/logging"
)

const watchRetryDelay = 5 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logging.NewFromLevel(os.Stderr, cfg.LogLevel)

	db, err := client.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	apiClient, err := client.NewGRPCClient(cfg.ServerEndpointAddr,
		client.WithCallTimeout(cfg.CallTimeout),
		client.WithSessionCache(sessions.NewSQLiteRepository(db)),
		client.WithLogger(logger.With("component", "client")),
	)
	if err != nil {
		return err
	}
	defer apiClient.Close()

	provisioner := profile.NewProvisioner(apiClient, profile.WithLogger(logger.With("component", "profile")))
	store := session.New(apiClient, provisioner, session.WithLogger(logger.With("component", "session")))
	if err := store.Init(ctx); err != nil {
		logger.Warn(ctx, "initial session check failed", "error", err)
	}
	defer store.Dispose()

	table, err := router.NewTable(router.DefaultRoutes())
	if err != nil {
		return err
	}
	guard := router.NewGuard(table, store, router.WithLogger(logger.With("component", "router")))

	stopWatch := startWatch(ctx, apiClient, logger)
	defer stopWatch()

	app := cli.NewApp(store, guard,
		cli.WithLogger(logger),
		cli.WithLandingPath(table.LandingPath()),
	)
	app.Run(ctx)
	return nil
}

type sessionWatcher interface {
	Watch(ctx context.Context) error
}

// startWatch runs watchSession in the background. The returned stop cancels
// it and waits until it has returned.
func startWatch(ctx context.Context, c sessionWatcher, logger logging.Logger) (stop func()) {
	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		watchSession(watchCtx, c, logger)
	}()
	return func() {
		cancel()
		<-done
	}
}

// watchSession follows the provider's session stream, reconnecting after
// failures until ctx is done.
func watchSession(ctx context.Context, c sessionWatcher, logger logging.Logger) {
	for {
		err := c.Watch(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, client.ErrNetwork) {
			logger.Warn(ctx, "session stream failed", "error", err)
		} else {
			logger.Debug(ctx, "session stream closed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(watchRetryDelay):
		}
	}
}
