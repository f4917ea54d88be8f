package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noob2628/Inventory-App/internal/db"
	"github.com/noob2628/Inventory-App/internal/logger"
	"github.com/noob2628/Inventory-App/internal/services"
	"github.com/noob2628/Inventory-App/internal/storage"
	"github.com/noob2628/Inventory-App/internal/store"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Upload a CSV snapshot of the inventory to object storage now",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := setup()
		defer func() { _ = log.Sync() }()

		objects, err := storage.NewFromConfig(cmd.Context(), cfg.Storage)
		if err != nil {
			return err
		}
		if objects == nil {
			return errors.New("STORAGE_BACKEND is not configured")
		}
		defer objects.Close()

		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		exports := services.NewExportService(store.NewInventoryRepository(conn), objects, cfg.Snapshot.Prefix, logger.Named(log, "svc.export"))
		key, err := exports.Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "snapshot written to %s/%s\n", objects.Bucket(), key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}
