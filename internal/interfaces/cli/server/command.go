package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blink-inc/blink/internal/infrastructure/cache"
	"github.com/blink-inc/blink/internal/infrastructure/database"
	"github.com/blink-inc/blink/internal/interfaces/cli"
	httpRouter "github.com/blink-inc/blink/internal/interfaces/http"
	"github.com/blink-inc/blink/internal/shared/version"
)

const shutdownTimeout = 30 * time.Second

func NewCommand() *cobra.Command {
	var (
		flags       cli.Flags
		autoMigrate bool
	)

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), &flags, autoMigrate)
		},
	}
	flags.Bind(cmd)
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database migrations on startup")

	return cmd
}

func run(parent context.Context, flags *cli.Flags, autoMigrate bool) error {
	cfg, log, err := cli.Bootstrap(flags)
	if err != nil {
		return err
	}

	log.Infow("starting server",
		"version", version.String(),
		"mode", cfg.Server.Mode,
		"rp_id", cfg.WebAuthn.RPID,
		"auto_migrate", autoMigrate)

	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {
		log.Debugw("route registered", "method", httpMethod, "path", absolutePath)
	}

	gdb, err := database.Open(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(gdb); err != nil {
			log.Errorw("failed to close database", "error", err)
		}
	}()

	if autoMigrate {
		if err := database.Migrate(gdb); err != nil {
			return err
		}
		log.Infow("auto-migration completed")
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	metadataRedis, err := cache.NewRedisClient(ctx, cfg.Redis, cfg.Redis.MetadataDB)
	if err != nil {
		return err
	}
	defer metadataRedis.Close()
	log.Infow("redis connection established", "addr", cfg.Redis.GetAddr())

	container, err := httpRouter.NewContainer(cfg, gdb, redisClient, metadataRedis, log)
	if err != nil {
		return fmt.Errorf("failed to wire server: %w", err)
	}

	router := httpRouter.NewRouter(container)
	router.SetupRoutes()

	srv := &http.Server{
		Addr:              cfg.Server.GetAddr(),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Infow("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Infow("server exited gracefully")
	return nil
}
