package cmd

import (
	"context"
	"fmt"

	"catalog-manager/core/cache"
	"catalog-manager/core/config"
	"catalog-manager/core/database"
	"catalog-manager/core/labels"
	"catalog-manager/core/logger"
	"catalog-manager/core/metacache"
	"catalog-manager/core/upstream"

	"catalog-manager/feature/artists"
	"catalog-manager/feature/releases"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for warmup command
	flushCache  bool
	warmupLabel string
)

// warmupCmd pre-populates the cache from the upstream provider.
var warmupCmd = &cobra.Command{
	Use:   "warmup",
	Short: "Pre-populate the metadata cache from the upstream provider",
	Long: `Drains the upstream release search for every configured label and
writes the results through the cache and the per-label indexes.

Examples:
  # Warm all labels
  warmup

  # Flush the cache first, then warm all labels
  warmup --flush

  # Warm a single label (ID, slug, or display name)
  warmup --label buildit-deep`,
	RunE: runWarmup,
}

func init() {
	warmupCmd.Flags().BoolVar(&flushCache, "flush", false, "Clear all cached entries before warming")
	warmupCmd.Flags().StringVar(&warmupLabel, "label", "", "Warm only this label (ID, slug, or display name)")

	RootCmd.AddCommand(warmupCmd)
}

func runWarmup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	l.Info("Starting cache warmup")

	// Connect to database (optional, only used for label definitions)
	var repo *database.Repository
	if db, err := database.Connect(cfg.Database); err != nil {
		l.Warn("Optional database connection failed", zap.Error(err))
	} else {
		repo = database.NewRepository(db)
	}

	// Build label table and engine
	table := labels.NewTable(labels.BuiltinDefinitions())
	if cfg.Labels.Source == labels.SourceDatabase && repo != nil {
		if t, err := buildLabelTable(ctx, cfg, repo); err != nil {
			l.Warn("Failed to load labels from database, using built-in definitions", zap.Error(err))
		} else {
			table = t
		}
	}
	engine := labels.NewEngine(table, cfg.Labels.Default)

	// Initialize cache store
	store, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to create cache store: %w", err)
	}

	if flushCache {
		if err := store.ClearAll(ctx); err != nil {
			return fmt.Errorf("failed to flush cache: %w", err)
		}
		l.Info("Cache flushed")
	}

	manager := metacache.NewManager(store, l)
	index := metacache.NewLabelIndex(store)
	client := upstream.NewClient(cfg.Upstream, l)

	// Artwork storage is not needed for warming metadata.
	svc := releases.NewService(manager, index, client, repo, nil, "", table, engine, l)
	artistSvc := artists.NewService(manager, index, client, repo, table, engine, l)

	// Select the labels to warm.
	targets := table.Labels()
	if warmupLabel != "" {
		id, ok := table.Resolve(warmupLabel)
		if !ok {
			return fmt.Errorf("unknown label %q", warmupLabel)
		}
		label, _ := table.Lookup(id)
		targets = []labels.Label{label}
	}

	// Warm each label sequentially. The upstream rate limit makes
	// parallel draining counterproductive here.
	failed := 0
	for _, label := range targets {
		listing, err := svc.RefreshFromUpstream(ctx, label.ID)
		if err != nil {
			ingested := 0
			if listing != nil {
				ingested = len(listing.ReleaseIDs)
			}
			l.Error("Label warmup incomplete",
				zap.String("label_id", label.ID),
				zap.Int("ingested", ingested),
				zap.Error(err),
			)
			failed++
			continue
		}
		// Rebuild the artist roster index from the relational store.
		rosterSize := 0
		if repo != nil {
			roster, err := artistSvc.ListByLabel(ctx, label.ID)
			if err != nil {
				l.Warn("Artist index rebuild failed", zap.String("label_id", label.ID), zap.Error(err))
			} else {
				rosterSize = len(roster.ArtistIDs)
			}
		}

		l.Info("Label warmed",
			zap.String("label_id", label.ID),
			zap.String("label", label.Name),
			zap.Int("releases", len(listing.ReleaseIDs)),
			zap.Int("artists", rosterSize),
			zap.Bool("complete", listing.Complete),
		)
	}

	if failed > 0 {
		return fmt.Errorf("warmup finished with %d failed labels", failed)
	}
	l.Info("Warmup finished", zap.Int("labels", len(targets)))
	return nil
}
