// Command admin is the operator CLI for maintenance tasks that run
// out-of-band from the API server: schema migration and the idempotent
// invoice number repair batch.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"kertas/internal/config"
	"kertas/internal/database"
	"kertas/internal/logger"
	"kertas/internal/repository"
	"kertas/internal/service"
)

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "kertas admin - maintenance CLI for the invoicing backend",
	Long: `kertas admin runs administrative tasks against the invoicing
database: applying schema migrations and repairing historical invoice
number duplicates.

Repair must be run inside a maintenance window; it snapshots the current
numbering state and must not race live invoice creation.`,
}

var dryRun bool

var repairCmd = &cobra.Command{
	Use:   "repair-numbers",
	Short: "Merge or renumber invoices that share a base invoice number",
	Long: `repair-numbers groups all invoices by their base number (duplicate
suffixes like "-2" stripped) and resolves every group with more than one
member: same-customer duplicates are merged into one invoice, duplicates
across different customers are renumbered past the current maximum.

The batch is idempotent; a second run reports no changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("admin")

		db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		repo := repository.NewPostgresInvoiceRepository(db.GetPool())
		repair := service.NewRepairService(repo)

		report, err := repair.RepairDuplicates(cmd.Context(), dryRun)
		if err != nil {
			log.Error().Err(err).Msg("repair failed")
			return err
		}

		fmt.Print(report.Summary())
		return nil
	},
}

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQL migrations in order",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("admin")

		db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := os.ReadDir(migrationsDir)
		if err != nil {
			return fmt.Errorf("unable to read migrations directory: %w", err)
		}

		var files []string
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
				files = append(files, entry.Name())
			}
		}
		sort.Strings(files)

		for _, name := range files {
			sqlBytes, err := os.ReadFile(filepath.Join(migrationsDir, name))
			if err != nil {
				return fmt.Errorf("unable to read migration %s: %w", name, err)
			}

			if _, err := db.GetPool().Exec(cmd.Context(), string(sqlBytes)); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", name, err)
			}
			log.Info().Str("migration", name).Msg("migration applied")
		}

		fmt.Printf("%d migration(s) applied\n", len(files))
		return nil
	},
}

func connect(ctx context.Context) (*database.PostgresDB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	if err := logger.Setup(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		return nil, err
	}

	return database.NewPostgresDB(ctx, cfg.DatabaseURL)
}

func init() {
	repairCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing anything")
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "scripts/migrations", "Directory holding the SQL migrations")

	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
