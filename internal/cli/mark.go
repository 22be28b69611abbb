package cli

import (
	"fmt"

	"gcp-marker/internal/app"
	"gcp-marker/internal/project"
	"gcp-marker/internal/render"
	"gcp-marker/internal/render/cvresize"
	"gcp-marker/internal/version"
	"gcp-marker/ui/mainwindow"
	"gcp-marker/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
)

func newMarkCmd(configPath *string) *cobra.Command {
	flags := &sessionFlags{}
	cmd := &cobra.Command{
		Use:   "mark [image-folder]",
		Short: "Open the marking window",
		Long: `Opens the marking window on a folder of photos.

Keys: f select label, n/p next/previous photo, s go to photo, e export,
r reset zoom, l reload catalog, q quit. Click marks the active label;
Ctrl+click zooms in (up to 8x) around the clicked point.

Without a folder the window asks for one, then for an optional catalog.`,
		Example: `  # Mark photos with a catalog, autosaving progress
  gcpmark mark ./flight1 --catalog gcps.csv --session flight1.gcpsession

  # Pick the folder in the window
  gcpmark mark`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMark(cmd, *configPath, flags, args)
		},
	}
	flags.register(cmd)
	return cmd
}

func runMark(cmd *cobra.Command, configPath string, flags *sessionFlags, args []string) error {
	cfg, logger, err := flags.load(cmd, configPath)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.ImageDir = args[0]
	}
	logger.Info(fmt.Sprintf("Starting GCP Marker v%s", version.Version), "commit", version.GitCommit)

	saved, err := loadSessionFile(cfg)
	if err != nil {
		return err
	}
	fillFromSession(cfg, saved)

	p := prefs.Load()
	catalogPath := cfg.Catalog.Path
	// Reuse the label column chosen last time for the same catalog file.
	if cfg.Catalog.LabelColumn == "" && catalogPath != "" && catalogPath == p.String(prefs.KeyLastCatalog) {
		cfg.Catalog.LabelColumn = p.String(prefs.KeyLastLabelColumn)
	}
	open := func(dir, picked string) (*app.Controller, error) {
		if picked == "" {
			picked = catalogPath
		}
		return openSession(cfg, saved, dir, picked, logger)
	}

	// A folder given up front must be usable before any window opens.
	var ctrl *app.Controller
	if cfg.ImageDir != "" {
		ctrl, err = open(cfg.ImageDir, catalogPath)
		if err != nil {
			return err
		}
		p.SetString(prefs.KeyLastImageDir, cfg.ImageDir)
		if catalogPath != "" {
			p.SetString(prefs.KeyLastCatalog, catalogPath)
			p.SetString(prefs.KeyLastLabelColumn, cfg.Catalog.LabelColumn)
		}
	}

	var scaler render.Scaler
	switch cfg.Display.Resampler {
	case "area":
		scaler = cvresize.Scaler{}
	case "nearest":
		scaler = render.Nearest
	default:
		scaler = render.Bilinear
	}

	fyneApp := fyneapp.NewWithID("io.github.gcpmarker")
	fyneApp.Settings().SetTheme(&app.MarkerTheme{})

	win := mainwindow.New(fyneApp, ctrl, open, p, render.New(scaler), logger)
	win.ShowAndRun()

	if cfg.SessionPath != "" {
		logger.Info("session saved", "path", cfg.SessionPath)
	}
	return nil
}

// sessionSummary formats a saved session for the terminal.
func sessionSummary(f *project.File) string {
	return fmt.Sprintf("%d marks in %s (last photo %s, label %q)",
		len(f.Marks), f.ImageDir, f.CurrentImage, f.ActiveLabel)
}
