package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/stwalsh4118/estate/internal/handlers"
	"github.com/stwalsh4118/estate/internal/middleware"
	"github.com/stwalsh4118/estate/internal/seed"
	"github.com/stwalsh4118/estate/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

type serveOptions struct {
	migrate  bool
	seed     bool
	seedFile string
}

func newServeCommand() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.migrate, "migrate", true, "apply pending schema migrations before serving")
	cmd.Flags().BoolVar(&opts.seed, "seed", false, "create the default property types and tags before serving")
	cmd.Flags().StringVar(&opts.seedFile, "seed-file", "", "seed the catalog from this YAML file (implies --seed)")

	return cmd
}

func runServe(opts *serveOptions) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	log := a.log

	log.Info("Starting Estate API", map[string]interface{}{
		"version":     version,
		"environment": a.cfg.Server.Env,
		"port":        a.cfg.Server.Port,
		"store":       a.cfg.Database.Driver,
	})

	ctx := context.Background()
	if err := a.open(ctx, opts.migrate); err != nil {
		log.Fatal("Failed to initialize backends", err, map[string]interface{}{
			"host": a.cfg.Database.Host,
			"port": a.cfg.Database.Port,
			"name": a.cfg.Database.Name,
		})
	}
	defer a.close()

	deps := a.deps()
	propertyService := services.NewPropertyService(deps)
	offerService := services.NewOfferService(deps)
	catalogService := services.NewCatalogService(deps)

	if opts.seed || opts.seedFile != "" {
		catalog := seed.Default()
		if opts.seedFile != "" {
			if catalog, err = seed.Load(opts.seedFile); err != nil {
				return err
			}
		}
		res, err := seed.Apply(ctx, catalogService, catalog)
		if err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		log.Info("Catalog seeded", map[string]interface{}{
			"types_created": res.TypesCreated,
			"tags_created":  res.TagsCreated,
		})
	}

	// Setup Gin router
	if a.cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS -> Auth
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(a.cfg.CORS))

	// Register health check routes
	healthHandler := newHealthHandler(a)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(a.cfg.Auth.JWTSecret, a.cfg.Auth.Required))
	handlers.RegisterRoutes(v1,
		handlers.NewPropertyHandler(propertyService),
		handlers.NewOfferHandler(offerService),
		handlers.NewCatalogHandler(catalogService),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", a.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": a.cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
	return nil
}

// newHealthHandler passes only configured backends, so a nil pool never
// hides inside a non-nil interface.
func newHealthHandler(a *app) *handlers.HealthHandler {
	var db, cache handlers.Pinger
	if a.db != nil {
		db = a.db
	}
	if a.redis != nil {
		cache = a.redis
	}
	return handlers.NewHealthHandler(db, cache, a.cfg.Database.Driver, a.cfg.Server.Env)
}
