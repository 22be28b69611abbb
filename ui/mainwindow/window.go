// Package mainwindow provides the main application window.
package mainwindow

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"gcp-marker/internal/app"
	"gcp-marker/internal/catalog"
	"gcp-marker/internal/render"
	"gcp-marker/internal/version"
	"gcp-marker/ui/canvas"
	"gcp-marker/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const appTitle = "GCP Marker"

// searchHintCount is how many file names the search prompt lists.
const searchHintCount = 10

// Opener starts a session for a folder picked in the UI. catalogPath may be "".
type Opener func(imageDir, catalogPath string) (*app.Controller, error)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	ctrl      *app.Controller
	prefs     *prefs.Prefs
	renderer  *render.Renderer
	logger    *slog.Logger
	canvas    *canvas.MarkCanvas
	statusBar *widget.Label

	// promptOpen suppresses key bindings while a dialog has focus.
	promptOpen bool
}

// New creates the main window. When ctrl is nil the window asks for an image
// folder and optional catalog, then starts the session through open.
func New(fyneApp fyne.App, ctrl *app.Controller, open Opener, p *prefs.Prefs,
	renderer *render.Renderer, logger *slog.Logger) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window:    win,
		app:       fyneApp,
		prefs:     p,
		renderer:  renderer,
		logger:    logger,
		statusBar: widget.NewLabel("Ready"),
	}
	win.Resize(fyne.NewSize(
		float32(p.FloatWithFallback(prefs.KeyWindowWidth, 1280)),
		float32(p.FloatWithFallback(prefs.KeyWindowHeight, 860)),
	))
	win.SetCloseIntercept(mw.quit)

	if ctrl != nil {
		mw.attach(ctrl)
	} else {
		mw.SetContent(container.NewCenter(widget.NewLabel("Choose an image folder to start")))
		mw.pickFolder(open)
	}
	return mw
}

// attach builds the marking UI around a session.
func (mw *MainWindow) attach(ctrl *app.Controller) {
	mw.ctrl = ctrl
	mw.canvas = canvas.NewMarkCanvas(ctrl, mw.renderer, mw.logger)
	mw.canvas.OnClick(func(dx, dy float64, ctrlHeld bool) { _ = ctrl.Click(dx, dy, ctrlHeld) })
	mw.canvas.OnMove(ctrl.Move)
	mw.canvas.OnLeave(ctrl.Leave)

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		mw.canvas,                         // center
	)
	mw.SetContent(content)
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.Canvas().SetOnTypedRune(mw.onRune)
	mw.Canvas().SetOnTypedKey(mw.onKey)

	ctrl.SetDisplay(mw)
	mw.SetTitle(fmt.Sprintf("%s - %s", appTitle, filepath.Base(ctrl.Images().Dir)))
	mw.updateStatus(fmt.Sprintf("%d images; press f to choose a label", ctrl.Images().Len()))
	if pending := ctrl.PendingCatalog(); pending != nil {
		mw.askLabelColumn(pending)
	}
}

// askLabelColumn lets the operator pick the label column of a catalog that
// has none of the recognised column names. Cancelling drops the catalog.
func (mw *MainWindow) askLabelColumn(pending *catalog.ColumnError) {
	choice := widget.NewSelect(pending.Table.Columns, nil)
	choice.PlaceHolder = "Column holding GCP labels"
	items := []*widget.FormItem{
		widget.NewFormItem("Catalog", widget.NewLabel(filepath.Base(pending.Path))),
		widget.NewFormItem("Label column", choice),
	}

	mw.promptOpen = true
	d := dialog.NewForm("Choose label column", "Use Column", "No Catalog", items, func(ok bool) {
		mw.promptOpen = false
		if !ok || choice.Selected == "" {
			mw.ctrl.DropCatalog()
			return
		}
		if err := mw.ctrl.ResolveCatalog(choice.Selected); err != nil {
			mw.askLabelColumn(pending)
			return
		}
		mw.prefs.SetString(prefs.KeyLastLabelColumn, choice.Selected)
	}, mw.Window)
	d.Resize(fyne.NewSize(420, 0))
	d.Show()
}

// RequestRedraw implements app.Display.
func (mw *MainWindow) RequestRedraw() {
	if mw.canvas != nil {
		mw.canvas.Refresh()
	}
}

// Notify implements app.Display.
func (mw *MainWindow) Notify(n app.Notice) {
	switch n.Level {
	case app.NoticeWarning:
		mw.updateStatus("Warning: " + n.Message)
	case app.NoticeError:
		mw.updateStatus("Error: " + n.Message)
	default:
		mw.updateStatus(n.Message)
	}
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Export (e)", mw.onExport),
		fyne.NewMenuItem("Reload Catalog (l)", mw.onReloadCatalog),
		fyne.NewMenuItem("Save Session", mw.onSaveSession),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit (q)", mw.quit),
	)
	markMenu := fyne.NewMenu("Mark",
		fyne.NewMenuItem("Select Label... (f)", mw.onSelectLabel),
		fyne.NewMenuItem("Progress...", mw.onProgress),
	)
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Next Image (n)", func() { _ = mw.ctrl.NextImage() }),
		fyne.NewMenuItem("Previous Image (p)", func() { _ = mw.ctrl.PrevImage() }),
		fyne.NewMenuItem("Go to Image... (s)", mw.onSearch),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Reset Zoom (r)", mw.ctrl.ResetZoom),
	)
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)
	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, markMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for session events.
func (mw *MainWindow) setupEventHandlers() {
	mw.ctrl.On(app.EventImageChanged, func(data interface{}) {
		if name, ok := data.(string); ok {
			mw.SetTitle(fmt.Sprintf("%s - %s", appTitle, name))
		}
	})
	mw.ctrl.On(app.EventCatalogReloaded, func(interface{}) {
		mw.logger.Debug("catalog labels refreshed", "labels", len(mw.ctrl.Labels()))
	})
}

func (mw *MainWindow) onRune(r rune) {
	if mw.promptOpen {
		return
	}
	switch r {
	case 'f':
		mw.onSelectLabel()
	case 'n':
		_ = mw.ctrl.NextImage()
	case 'p':
		_ = mw.ctrl.PrevImage()
	case 's':
		mw.onSearch()
	case 'e':
		mw.onExport()
	case 'r':
		mw.ctrl.ResetZoom()
	case 'l':
		mw.onReloadCatalog()
	case 'q':
		mw.quit()
	}
}

func (mw *MainWindow) onKey(ev *fyne.KeyEvent) {
	if mw.promptOpen {
		return
	}
	switch ev.Name {
	case fyne.KeyRight, fyne.KeyPageDown:
		_ = mw.ctrl.NextImage()
	case fyne.KeyLeft, fyne.KeyPageUp:
		_ = mw.ctrl.PrevImage()
	case fyne.KeyEscape:
		mw.ctrl.ResetZoom()
	}
}

// prompt shows a one-field form and calls submit with the trimmed answer.
func (mw *MainWindow) prompt(title, hint string, options []string, submit func(string)) {
	entry := widget.NewSelectEntry(options)
	entry.SetPlaceHolder(hint)
	items := []*widget.FormItem{widget.NewFormItem(title, entry)}
	if len(options) > 0 {
		help := widget.NewLabel(strings.Join(options, ", "))
		help.Wrapping = fyne.TextWrapWord
		items = append(items, widget.NewFormItem("", help))
	}

	mw.promptOpen = true
	d := dialog.NewForm(title, "OK", "Cancel", items, func(ok bool) {
		mw.promptOpen = false
		if ok {
			submit(strings.TrimSpace(entry.Text))
		}
	}, mw.Window)
	d.Resize(fyne.NewSize(480, 0))
	d.Show()
	mw.Canvas().Focus(entry)
}

func (mw *MainWindow) onSelectLabel() {
	labels := mw.ctrl.Labels()
	hint := "Label of the point to mark"
	if len(labels) > 0 {
		hint = "One of the catalog labels"
	}
	mw.prompt("Label", hint, labels, func(label string) {
		_ = mw.ctrl.SelectLabel(label)
	})
}

func (mw *MainWindow) onSearch() {
	mw.prompt("Image", "File name, e.g. "+strings.Join(mw.ctrl.SearchHints(1), ""),
		mw.ctrl.SearchHints(searchHintCount), func(name string) {
			_ = mw.ctrl.Search(name)
		})
}

func (mw *MainWindow) onExport() {
	mw.promptOpen = true
	dialog.ShowConfirm("Export", "Write the pixel coordinate table now?", func(ok bool) {
		mw.promptOpen = false
		if !ok {
			return
		}
		res, err := mw.ctrl.Export()
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		dialog.ShowInformation("Export complete", fmt.Sprintf(
			"Wrote %d rows to %s\n\nLabels: %d\nMean images per label: %.1f\nFewest images per label: %d",
			res.Summary.Rows, res.Path, res.Summary.Labels,
			res.Summary.MeanImagesPerLabel, res.Summary.MinImagesPerLabel), mw.Window)
	}, mw.Window)
}

func (mw *MainWindow) onReloadCatalog() {
	if err := mw.ctrl.ReloadCatalog(); err != nil && !errors.Is(err, app.ErrCatalogIntact) {
		mw.logger.Warn("catalog reload", "error", err)
	}
}

func (mw *MainWindow) onSaveSession() {
	if err := mw.ctrl.Save(); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.updateStatus("Session saved")
}

func (mw *MainWindow) onProgress() {
	var b strings.Builder
	for _, p := range mw.ctrl.Summary() {
		mark := ""
		if p.Images < 2 {
			mark = "  (needs more)"
		}
		fmt.Fprintf(&b, "%s: %d images%s\n", p.Label, p.Images, mark)
	}
	if b.Len() == 0 {
		b.WriteString("Nothing marked yet.")
	}
	dialog.ShowInformation("Marking progress", b.String(), mw.Window)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Marks ground control points on UAV photos and exports\n"+
			"their pixel coordinates for photogrammetry.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

// quit saves the session and preferences, then closes the app.
func (mw *MainWindow) quit() {
	if mw.ctrl != nil {
		if err := mw.ctrl.Quit(); err != nil {
			mw.logger.Error("session not saved", "error", err)
		}
	}
	size := mw.Canvas().Size()
	mw.prefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
	mw.prefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	if err := mw.prefs.Save(); err != nil {
		mw.logger.Warn("failed to save preferences", "error", err)
	}
	mw.app.Quit()
}

// pickFolder asks for the image folder, then an optional catalog.
func (mw *MainWindow) pickFolder(open Opener) {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			mw.app.Quit()
			return
		}
		dir := uri.Path()
		mw.prefs.SetString(prefs.KeyLastImageDir, dir)
		mw.pickCatalog(func(catalogPath string) {
			ctrl, err := open(dir, catalogPath)
			if err != nil {
				mw.logger.Error("failed to open image folder", "dir", dir, "error", err)
				dialog.ShowError(err, mw.Window)
				mw.pickFolder(open)
				return
			}
			mw.attach(ctrl)
		})
	}, mw.Window)
	if loc := lister(mw.prefs.String(prefs.KeyLastImageDir)); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// pickCatalog offers an optional catalog file; cancelling continues without one.
func (mw *MainWindow) pickCatalog(done func(path string)) {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			done("")
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.prefs.SetString(prefs.KeyLastCatalog, path)
		done(path)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".csv", ".txt"}))
	if last := mw.prefs.String(prefs.KeyLastCatalog); last != "" {
		if loc := lister(filepath.Dir(last)); loc != nil {
			fd.SetLocation(loc)
		}
	}
	fd.SetConfirmText("Use Catalog")
	fd.SetDismissText("No Catalog")
	fd.Show()
}

// lister returns path as a ListableURI, or nil.
func lister(path string) fyne.ListableURI {
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}
