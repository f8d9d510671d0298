package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/forgo/worship/api/internal/model"
)

func newRotationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rotation",
		Short: "Leader rotation maintenance",
	}
	cmd.AddCommand(newRotationRecalcCmd())
	return cmd
}

func newRotationRecalcCmd() *cobra.Command {
	var serviceTypeID string

	cmd := &cobra.Command{
		Use:   "recalc",
		Short: "Reassign rotation leaders for every upcoming service of a type",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := uuid.Parse(serviceTypeID); err != nil {
				return fmt.Errorf("invalid --service-type: %w", err)
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			result, err := a.Services.Rotation.Recalculate(cmd.Context(), serviceTypeID)
			if err != nil {
				return err
			}
			return writeJSON(result)
		},
	}

	cmd.Flags().StringVar(&serviceTypeID, "service-type", "", "Service type id (required)")
	_ = cmd.MarkFlagRequired("service-type")
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load data from files",
	}
	cmd.AddCommand(newImportSongsCmd())
	return cmd
}

func newImportSongsCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "songs",
		Short: "Import a YAML song library",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			result, err := a.Services.Imports.Import(cmd.Context(), bufio.NewReader(f))
			if err != nil {
				return err
			}
			return writeJSON(result)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Library file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export data to files",
	}
	cmd.AddCommand(newExportScheduleCmd())
	return cmd
}

func newExportScheduleCmd() *cobra.Command {
	var from, to, out string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Write the service schedule to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range []string{from, to} {
				if _, err := time.Parse(model.DateLayout, d); err != nil {
					return fmt.Errorf("invalid date %q: want YYYY-MM-DD", d)
				}
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := a.Services.Export.Schedule(cmd.Context(), from, to, f); err != nil {
				_ = f.Close()
				_ = os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}

	today := time.Now().UTC()
	cmd.Flags().StringVar(&from, "from", today.Format(model.DateLayout), "First date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", today.AddDate(0, 0, 90).Format(model.DateLayout), "Last date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&out, "out", "schedule.xlsx", "Output file")
	return cmd
}
