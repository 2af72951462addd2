package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"catalog-manager/core/config"
	"catalog-manager/core/database"
	"catalog-manager/core/labels"
	"catalog-manager/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for reconcile artists command
	applyReconcile bool
	yesConfirm     bool
	reconcileBatch int
)

// reconcileCmd is the parent command for all reconcile operations.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile artists against the label catalog",
	Long: `Reconcile artists to labels using direct assignments, join-table
links, and biography keyword matching. Reports the strategy distribution
and optionally persists the resolved assignments.`,
}

// artistsReconcileCmd reconciles every artist in the database.
var artistsReconcileCmd = &cobra.Command{
	Use:   "artists",
	Short: "Reconcile all artists to labels (report + optionally apply)",
	Long: `Reconcile every artist in the database against the label catalog.

Reports how many artists resolved through each strategy and which
assignments would change. Without --apply nothing is written.

Examples:
  # Report only (dry-run)
  reconcile artists

  # Persist changed assignments (with interactive confirmation)
  reconcile artists --apply

  # Persist with auto-confirm (non-interactive)
  reconcile artists --apply --yes`,
	RunE: runArtistsReconcile,
}

func init() {
	// Add artists command to reconcile
	reconcileCmd.AddCommand(artistsReconcileCmd)

	// Add flags
	artistsReconcileCmd.Flags().BoolVar(&applyReconcile, "apply", false, "Persist changed label assignments to the database")
	artistsReconcileCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")
	artistsReconcileCmd.Flags().IntVar(&reconcileBatch, "batch-size", 200, "Number of artists loaded per database page")

	// Add reconcile to root
	RootCmd.AddCommand(reconcileCmd)
}

// pendingAssignment is a reconciliation result whose label differs
// from the artist's stored assignment.
type pendingAssignment struct {
	result  labels.Result
	current string
}

func runArtistsReconcile(cmd *cobra.Command, args []string) error {
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

	l.Info("Starting artist reconciliation")

	// Connect to database (required for batch reconciliation)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	repo := database.NewRepository(db)

	// Build label table and engine
	table, err := buildLabelTable(ctx, cfg, repo)
	if err != nil {
		return fmt.Errorf("failed to build label table: %w", err)
	}
	engine := labels.NewEngine(table, cfg.Labels.Default)

	// Walk the artist table page by page and reconcile each entity.
	counts := map[labels.Strategy]int{}
	var pending []pendingAssignment
	total := 0

	for offset := 0; ; offset += reconcileBatch {
		entities, err := repo.ListArtistEntities(ctx, offset, reconcileBatch)
		if err != nil {
			return fmt.Errorf("failed to list artists at offset %d: %w", offset, err)
		}
		if len(entities) == 0 {
			break
		}

		for _, ent := range entities {
			res := engine.Reconcile(ent)
			counts[res.Strategy]++
			total++

			canonical, _ := table.Resolve(ent.DirectLabelID)
			if res.LabelID != canonical {
				pending = append(pending, pendingAssignment{result: res, current: ent.DirectLabelID})
			}
		}

		if len(entities) < reconcileBatch {
			break
		}
	}

	printReconcileReport(l, total, counts, pending)

	if !applyReconcile {
		l.Info("Dry-run mode: use --apply to persist changed assignments.")
		return nil
	}

	if len(pending) == 0 {
		l.Info("All artists already carry their resolved label. Nothing to apply.")
		return nil
	}

	// Check confirmation
	if !confirmDestructiveAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	// Persist changed assignments
	applied := 0
	for _, p := range pending {
		if err := repo.UpdateArtistLabel(ctx, p.result.EntityID, p.result.LabelID); err != nil {
			l.Error("Failed to update artist label",
				zap.String("artist_id", p.result.EntityID),
				zap.Error(err),
			)
			continue
		}
		applied++
	}

	l.Info("Successfully applied assignments", zap.Int("count", applied), zap.Int("failed", len(pending)-applied))
	return nil
}

// buildLabelTable loads label definitions from the configured source.
func buildLabelTable(ctx context.Context, cfg *config.Config, repo *database.Repository) (labels.Table, error) {
	if cfg.Labels.Source == labels.SourceDatabase {
		defs, err := repo.LoadLabels(ctx)
		if err != nil {
			return labels.Table{}, err
		}
		if len(defs) > 0 {
			return labels.NewTable(defs), nil
		}
	}
	return labels.NewTable(labels.BuiltinDefinitions()), nil
}

// printReconcileReport prints a formatted reconciliation report using logger.
func printReconcileReport(l *zap.Logger, total int, counts map[labels.Strategy]int, pending []pendingAssignment) {
	l.Info("Reconciliation report",
		zap.Int("total_artists", total),
		zap.Int("direct", counts[labels.StrategyDirect]),
		zap.Int("indirect", counts[labels.StrategyIndirect]),
		zap.Int("heuristic", counts[labels.StrategyHeuristic]),
		zap.Int("default", counts[labels.StrategyDefault]),
		zap.Int("changed", len(pending)),
	)

	for _, p := range pending {
		l.Info("Assignment change",
			zap.String("artist_id", p.result.EntityID),
			zap.String("current", p.current),
			zap.String("resolved", p.result.LabelID),
			zap.String("strategy", string(p.result.Strategy)),
		)
	}
}

// confirmDestructiveAction asks the operator to confirm before writing.
func confirmDestructiveAction() bool {
	if yesConfirm {
		return true
	}

	fmt.Print("This will update artist label assignments. Continue? [y/N]: ")
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
