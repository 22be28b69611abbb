// Package cli wires the gcpmark commands.
package cli

import (
	"log/slog"

	"gcp-marker/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the gcpmark command tree. Running it without a
// subcommand starts a marking session.
func NewRootCmd() *cobra.Command {
	var configPath string
	flags := &sessionFlags{}

	cmd := &cobra.Command{
		Use:   "gcpmark",
		Short: "Mark ground control points on UAV photos and export their pixel coordinates",
		Long: `gcpmark shows each photo of a flight, lets you click the position of named
ground control points, and exports the marks as a table for photogrammetry
tools such as OpenDroneMap.

Settings come from built-in defaults, an optional YAML file (gcpmark.yaml or
--config), GCPMARK_* environment variables (a .env file is read first) and
finally command-line flags.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMark(cmd, configPath, flags, args)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default ./"+config.DefaultFile+" if present)")
	flags.register(cmd)

	cmd.AddCommand(newMarkCmd(&configPath))
	cmd.AddCommand(newExportCmd(&configPath))
	cmd.AddCommand(newImagesCmd(&configPath))

	return cmd
}

// sessionFlags are the flags shared by the commands that open a session.
type sessionFlags struct {
	images         string
	catalog        string
	labelColumn    string
	filenameColumn string
	session        string
	exportDir      string
	format         string
	scale          float64
	maxWidth       int
	maxHeight      int
	resampler      string
	logLevel       string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.images, "images", "i", "", "Folder of photos to mark")
	fs.StringVarP(&f.catalog, "catalog", "c", "", "GCP catalog (comma-separated, with a label column)")
	fs.StringVar(&f.labelColumn, "label-column", "", "Catalog column holding labels (default: auto-detect)")
	fs.StringVar(&f.filenameColumn, "filename-column", "", "Catalog column binding labels to photos (default: auto-detect)")
	fs.StringVarP(&f.session, "session", "s", "", "Session file to restore and autosave")
	fs.StringVarP(&f.exportDir, "export-dir", "o", "", "Directory for the exported table")
	fs.StringVar(&f.format, "format", "", "Export format: csv or parquet")
	fs.Float64Var(&f.scale, "scale", 0, "Display scale at zoom 1")
	fs.IntVar(&f.maxWidth, "max-width", 0, "Maximum display width in pixels")
	fs.IntVar(&f.maxHeight, "max-height", 0, "Maximum display height in pixels")
	fs.StringVar(&f.resampler, "resampler", "", "Display resampler: area, bilinear or nearest")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

// load reads the layered configuration and applies any flags set on cmd.
func (f *sessionFlags) load(cmd *cobra.Command, configPath string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	changed := cmd.Flags().Changed
	strs := []struct {
		name string
		src  string
		dst  *string
	}{
		{"images", f.images, &cfg.ImageDir},
		{"catalog", f.catalog, &cfg.Catalog.Path},
		{"label-column", f.labelColumn, &cfg.Catalog.LabelColumn},
		{"filename-column", f.filenameColumn, &cfg.Catalog.FilenameColumn},
		{"session", f.session, &cfg.SessionPath},
		{"export-dir", f.exportDir, &cfg.Export.Dir},
		{"format", f.format, &cfg.Export.Format},
		{"resampler", f.resampler, &cfg.Display.Resampler},
		{"log-level", f.logLevel, &cfg.LogLevel},
	}
	for _, s := range strs {
		if changed(s.name) {
			*s.dst = s.src
		}
	}
	if changed("scale") {
		cfg.Display.Scale = f.scale
	}
	if changed("max-width") {
		cfg.Display.MaxWidth = f.maxWidth
	}
	if changed("max-height") {
		cfg.Display.MaxHeight = f.maxHeight
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)
	return cfg, logger, nil
}
