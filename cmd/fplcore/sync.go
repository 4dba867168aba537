package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gojankovic/fpl-insights/internal/database"
	"github.com/gojankovic/fpl-insights/internal/datasource"
	"github.com/gojankovic/fpl-insights/internal/repository"
	"github.com/gojankovic/fpl-insights/internal/service"
)

var (
	syncTarget string
	syncPath   string
)

func init() {
	syncCmd.Flags().StringVar(&syncTarget, "target", "file", "Where to write the snapshot: file or postgres")
	syncCmd.Flags().StringVar(&syncPath, "path", "", "Snapshot file path (default: provider.snapshot_path)")
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull the FPL API into a snapshot file or the database",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, finish := tracer.Start(cmd.Context(), "sync")
		defer func() { finish(err) }()

		client := datasource.NewFactory(cfg, log).NewFPLClient()
		defer client.Close()

		svc := service.NewSyncService(client, service.NewDataValidator(log), log)

		var stats *service.SyncStats
		switch syncTarget {
		case "file":
			path := syncPath
			if path == "" {
				path = cfg.Provider.SnapshotPath
			}
			if path == "" {
				return fmt.Errorf("no snapshot path: set --path or provider.snapshot_path")
			}
			stats, err = svc.SyncToFile(ctx, path)
		case "postgres":
			db, dbErr := database.Initialize(ctx, cfg, log)
			if dbErr != nil {
				return dbErr
			}
			defer db.Close()
			repos, repoErr := repository.NewRepositories(db)
			if repoErr != nil {
				return repoErr
			}
			stats, err = svc.SyncToStore(ctx, repos.Players)
		default:
			return fmt.Errorf("unknown sync target %q", syncTarget)
		}
		if err != nil {
			return err
		}

		fmt.Println(stats.String())
		return nil
	},
}
