package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgo/worship/api/internal/app"
	"github.com/forgo/worship/api/internal/config"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "worshipctl",
		Short:        "Operator tools for the worship scheduling API",
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newKeysCmd(),
		newTokenCmd(),
		newRotationCmd(),
		newImportCmd(),
		newExportCmd(),
	)
	return cmd
}

// openApp loads configuration the same way the server does and connects to
// the database. JWT keys are not needed for data commands.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	return app.New(ctx, cfg, app.Options{SkipTokens: true, Logger: logger})
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
