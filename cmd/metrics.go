package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/A-Akhil/BluePrint/config"
	"github.com/A-Akhil/BluePrint/logger"
	"github.com/A-Akhil/BluePrint/pkg/db"
	"github.com/A-Akhil/BluePrint/pkg/diversity"
)

var metricsFlags struct {
	sampleID string
	dbPath   string
}

// metricsCmd recomputes a stored sample's metrics from its assignments. The
// metrics record is a cache, so recomputing is always safe.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Recompute and print biodiversity metrics for a classified sample",
	RunE:  runMetrics,
}

func init() {
	metricsCmd.Flags().StringVarP(&metricsFlags.sampleID, "sample", "s", "", "sample identifier")
	metricsCmd.Flags().StringVarP(&metricsFlags.dbPath, "db", "d", "blueprint.db", "sqlite database file")

	_ = metricsCmd.MarkFlagRequired("sample")

	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	store, err := db.OpenSQLite(metricsFlags.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	assignments, err := store.GetAssignments(ctx, metricsFlags.sampleID)
	if err != nil {
		return err
	}
	logger.Debug("assignments loaded",
		zap.String("sample_id", metricsFlags.sampleID),
		zap.Int("count", len(assignments)))

	metrics, err := diversity.NewCalculator(cfg.Groups).Compute(assignments)
	if err != nil {
		return fmt.Errorf("compute metrics for %s: %w", metricsFlags.sampleID, err)
	}
	if err := store.UpsertMetrics(ctx, metricsFlags.sampleID, metrics); err != nil {
		return err
	}

	out, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
