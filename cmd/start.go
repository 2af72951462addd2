package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-manager/core/cache"
	"catalog-manager/core/config"
	"catalog-manager/core/database"
	"catalog-manager/core/labels"
	"catalog-manager/core/loader"
	"catalog-manager/core/logger"
	"catalog-manager/core/metacache"
	"catalog-manager/core/middleware/auth"
	"catalog-manager/core/middleware/rayid"
	"catalog-manager/core/storage"
	"catalog-manager/core/upstream"

	"catalog-manager/feature/artists"
	"catalog-manager/feature/integrity"
	"catalog-manager/feature/releases"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// @title Catalog Manager API
// @version 1.0
// @description API for label-scoped music release metadata.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the catalog manager server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database (Optional)
		// Without a database the service still serves cached and
		// upstream metadata; reconciliation falls back to cached
		// projections and the static label table.
		var repo *database.Repository
		if conn, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("Optional database connection failed", zap.Error(err))
		} else {
			repo = database.NewRepository(conn)
			logg.Info("Connected to catalog database")
		}

		// 4. Build Label Table
		table := loadLabelTable(cfg, repo, logg)
		engine := labels.NewEngine(table, cfg.Labels.Default)

		// 5. Initialize Cache Store
		store, err := cache.New(cfg.Cache)
		if err != nil {
			logg.Fatal("Failed to create cache store", zap.Error(err))
		}
		manager := metacache.NewManager(store, logg)
		index := metacache.NewLabelIndex(store)

		// 6. Initialize Upstream Client
		client := upstream.NewClient(cfg.Upstream, logg)

		// 7. Initialize Object Storage (Optional, artwork only)
		var objects storage.Client
		if c, err := storage.NewClient(cfg.Storage); err != nil {
			logg.Warn("Optional object storage connection failed", zap.Error(err))
		} else {
			objects = c
		}

		// 8. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// 9. Initialize Feature Loader
		mgr := loader.NewManager()

		// Register Features
		mgr.Register(artists.NewFeature(manager, index, client, repo, table, engine, logg))
		mgr.Register(releases.NewFeature(manager, index, client, repo, objects, cfg.Storage.Bucket, table, engine, logg))
		mgr.Register(integrity.NewFeature(objects, cfg.Storage.Bucket, repo, table, engine, logg))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Custom to use Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 10. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 11. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 12. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

// loadLabelTable builds the label table from the configured source,
// falling back to the built-in definitions when the database is not
// available or holds no labels.
func loadLabelTable(cfg *config.Config, repo *database.Repository, logg *zap.Logger) labels.Table {
	if cfg.Labels.Source == labels.SourceDatabase && repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		defs, err := repo.LoadLabels(ctx)
		if err != nil {
			logg.Warn("Failed to load labels from database, using built-in definitions", zap.Error(err))
		} else if len(defs) > 0 {
			logg.Info("Loaded label definitions from database", zap.Int("count", len(defs)))
			return labels.NewTable(defs)
		}
	}
	return labels.NewTable(labels.BuiltinDefinitions())
}

func init() {
	RootCmd.AddCommand(startCmd)
}
