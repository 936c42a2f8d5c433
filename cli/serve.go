package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leetryscode/matchmakr-vg0-sub001/config"
	"github.com/leetryscode/matchmakr-vg0-sub001/helpers"
	"github.com/leetryscode/matchmakr-vg0-sub001/routes"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Serve the HTTP API and run the sneak peek sweeper",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func newHandler(cfg config.Config, svc routes.Services) http.Handler {
	r := routes.NewRouter(svc)
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", helpers.CallerIDHeader, helpers.CallerRoleHeader},
		AllowCredentials: true,
	}).Handler(r)
}

func serve(ctx context.Context, cfg config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	snapshotter, err := snapshotterFor(ctx, cfg)
	if err != nil {
		return err
	}
	svc := buildServices(store, snapshotter, policyFrom(cfg))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newHandler(cfg, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting server on port %s...", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return svc.SneakPeeks.RunSweeper(gctx, cfg.SweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("🔄 Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
