package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/motorefacciones/import-service/internal/database"
	"github.com/motorefacciones/import-service/internal/jobs"
	"github.com/motorefacciones/import-service/internal/storage"
)

var (
	pruneOlderThan time.Duration
	pruneStale     bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old failed batches and release stale commit claims",
	Long: `Delete batches in the retention statuses (failed and uploaded by default) that are
older than --older-than, together with their items, image mappings and archived files.

With --stale-claims, commit claims older than the configured TTL are released as well.`,
	Example: `  import-service prune --older-than 720h
  import-service prune --stale-claims`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"db": "true"},
	RunE:        runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "Minimum batch age (defaults to maintenance.retention.max_age)")
	pruneCmd.Flags().BoolVar(&pruneStale, "stale-claims", false, "Also release commit claims older than maintenance.commit_claim_ttl")
}

func runPrune(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	repo := database.NewDefaultRepository()

	retention := cfg.Maintenance.Retention
	if pruneOlderThan > 0 {
		retention.MaxAge = pruneOlderThan
	}

	var archive storage.Storage
	if s, err := storage.New(ctx, cfg.Storage); err != nil {
		logger.Warn().Err(err).Msg("Archive unavailable, archived files are kept")
	} else {
		archive = s
	}

	result, err := jobs.NewRetentionManager(retention, repo, archive, logger).RunOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d batches and %d archived files\n", result.Batches, result.Files)

	if pruneStale {
		ids, err := repo.ReleaseStaleCommits(ctx, time.Now().Add(-cfg.Maintenance.CommitClaimTTL))
		if err != nil {
			return err
		}
		fmt.Printf("Released %d stale commit claims\n", len(ids))
	}
	return nil
}
