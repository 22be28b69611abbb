package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gcp-marker/internal/app"
	"gcp-marker/internal/catalog"
	"gcp-marker/internal/config"
	"gcp-marker/internal/imageset"
	"gcp-marker/internal/project"
	"gcp-marker/pkg/geometry"
)

// loadSessionFile reads cfg's session file. A missing file is not an error.
func loadSessionFile(cfg *config.Config) (*project.File, error) {
	if cfg.SessionPath == "" {
		return nil, nil
	}
	f, err := project.Load(cfg.SessionPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// fillFromSession takes the image folder and catalog from a saved session
// when the configuration does not name them.
func fillFromSession(cfg *config.Config, f *project.File) {
	if f == nil {
		return
	}
	if cfg.ImageDir == "" {
		cfg.ImageDir = f.ImageDir
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = f.CatalogPath
		if cfg.Catalog.LabelColumn == "" {
			cfg.Catalog.LabelColumn = f.LabelColumn
		}
		if cfg.Catalog.FilenameColumn == "" {
			cfg.Catalog.FilenameColumn = f.FilenameColumn
		}
	}
}

// loadCatalog loads the configured catalog. Callers run without a catalog
// when it fails; the error says why.
func loadCatalog(cfg *config.Config, path string, logger *slog.Logger) (*catalog.Catalog, error) {
	if path == "" {
		return nil, nil
	}
	cat, err := catalog.Load(path, cfg.Catalog.LabelColumn, cfg.Catalog.FilenameColumn)
	if err != nil {
		logger.Warn("continuing without catalog", "path", path, "error", err)
		return nil, err
	}
	logger.Info("catalog loaded", "path", path, "rows", cat.Len(), "labels", len(cat.Labels()),
		"label_column", cat.LabelColumn, "filename_column", cat.FilenameColumn)
	return cat, nil
}

// openSession discovers the images in dir and builds a controller with the
// catalog and any saved marks.
func openSession(cfg *config.Config, saved *project.File, dir, catalogPath string, logger *slog.Logger) (*app.Controller, error) {
	set, err := imageset.Discover(dir)
	if err != nil {
		return nil, err
	}
	logger.Info("images found", "dir", dir, "count", set.Len())

	ctrl := app.NewController(set, app.Options{
		Scale:       cfg.Display.Scale,
		MaxDisplay:  geometry.Size{Width: cfg.Display.MaxWidth, Height: cfg.Display.MaxHeight},
		ExportDir:   cfg.Export.Dir,
		Format:      cfg.ExportFormat(),
		SessionPath: cfg.SessionPath,
		Logger:      logger,
	})
	cat, err := loadCatalog(cfg, catalogPath, logger)
	if err != nil {
		// The window asks for a label column or reports the failure.
		ctrl.ReportCatalogError(catalogPath, err)
	}
	ctrl.SetCatalog(cat)

	if saved != nil {
		if !sameDir(saved.ImageDir, dir) {
			logger.Warn("session was recorded for another folder", "session_dir", saved.ImageDir, "dir", dir)
		}
		ctrl.Restore(saved)
	}
	return ctrl, nil
}

func sameDir(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}

// requireImageDir reports a usable error when no folder is configured.
func requireImageDir(cfg *config.Config) error {
	if cfg.ImageDir == "" {
		return fmt.Errorf("no image folder: pass --images, set GCPMARK_IMAGE_DIR or use a session file")
	}
	return nil
}
