package cli

import (
	"errors"
	"fmt"

	"gcp-marker/internal/export"
	"gcp-marker/internal/imageset"

	"github.com/spf13/cobra"
)

func newExportCmd(configPath *string) *cobra.Command {
	flags := &sessionFlags{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the pixel coordinate table from a saved session",
		Long: `Exports the marks of a saved session without opening a window.

Every marked label must appear on at least two photos; otherwise nothing is
written and the under-marked labels are listed. With a catalog the table is
merged against it (pixel_coordinates_merged.*), otherwise one row per mark is
written (pixel_coordinates.*).`,
		Example: `  gcpmark export --session flight1.gcpsession --catalog gcps.csv -o out/
  gcpmark export --session flight1.gcpsession --format parquet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load(cmd, *configPath)
			if err != nil {
				return err
			}
			if cfg.SessionPath == "" {
				return errors.New("export needs a session file: pass --session or set GCPMARK_SESSION")
			}
			saved, err := loadSessionFile(cfg)
			if err != nil {
				return err
			}
			if saved == nil {
				return fmt.Errorf("session file %s not found", cfg.SessionPath)
			}
			fillFromSession(cfg, saved)
			if err := requireImageDir(cfg); err != nil {
				return err
			}

			set, err := imageset.Discover(cfg.ImageDir)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg, cfg.Catalog.Path, logger)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: exporting without catalog: %v\n", err)
			}
			logger.Debug("exporting", "session", sessionSummary(saved))

			res, err := export.Run(saved.Store(), set.Names(), cat, export.Options{
				Dir:    cfg.Export.Dir,
				Format: cfg.ExportFormat(),
			})
			if err != nil {
				return err
			}

			s := res.Summary
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\n", res.Path)
			fmt.Fprintf(out, "  rows:                    %d\n", s.Rows)
			fmt.Fprintf(out, "  marks:                   %d\n", s.Marks)
			fmt.Fprintf(out, "  labels:                  %d\n", s.Labels)
			fmt.Fprintf(out, "  mean images per label:   %.2f\n", s.MeanImagesPerLabel)
			fmt.Fprintf(out, "  fewest images per label: %d\n", s.MinImagesPerLabel)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
