package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mkoval/tablestore-migrate/internal/manager"
	"github.com/mkoval/tablestore-migrate/internal/registry"
	"github.com/mkoval/tablestore-migrate/migrations"
)

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "status",
	Short: "Show each table's recorded migration version",
	RunE:  runStatus,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	statusCmd.Flags().String("format", "", "output format (text, json)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig
	out := cmd.OutOrStdout()

	format := cfg.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	reg, err := registry.New(migrations.Catalog()...)
	if err != nil {
		return fmt.Errorf("building migration catalog: %w", err)
	}

	h, err := openStore(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer h.close()

	mgr := manager.New(h.store, reg, manager.WithLogger(newLogger(cmd)))

	status, err := mgr.Status(ctx)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		return enc.Encode(status)
	}

	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(out, "%-24s v%d (latest v%d)\n", name, status[name], reg.LatestVersion(name))
	}

	return nil
}
