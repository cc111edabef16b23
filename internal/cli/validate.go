package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkoval/tablestore-migrate/internal/manager"
	"github.com/mkoval/tablestore-migrate/internal/registry"
	"github.com/mkoval/tablestore-migrate/migrations"
)

var validateCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "validate",
	Short: "Check that every table is at its latest catalog version",
	RunE:  runValidate,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig
	out := cmd.OutOrStdout()

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

	validation, err := mgr.Validate(ctx)
	if err != nil {
		return fmt.Errorf("validating table store: %w", err)
	}

	if !validation.Valid {
		for _, e := range validation.Errors {
			fmt.Fprintf(out, "  mismatch: %s\n", e)
		}

		return errValidationFailed
	}

	fmt.Fprintf(out, "Validation OK: %d table(s) at their latest version.\n", len(reg.TableNames()))

	return nil
}
