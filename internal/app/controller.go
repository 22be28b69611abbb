// Package app holds the marking session: view state, the mark store and the
// handlers that turn operator input into state changes.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"gcp-marker/internal/catalog"
	"gcp-marker/internal/export"
	"gcp-marker/internal/imageset"
	"gcp-marker/internal/marks"
	"gcp-marker/internal/project"
	"gcp-marker/internal/render"
	"gcp-marker/internal/viewport"
	"gcp-marker/pkg/geometry"
)

// Input errors. Handlers return them after notifying the display; state is
// left unchanged.
var (
	ErrNoLabel       = errors.New("no active label")
	ErrEmptyLabel    = errors.New("label is empty")
	ErrUnknownLabel  = errors.New("label not in catalog")
	ErrNotFound      = errors.New("image not found")
	ErrEndOfList     = errors.New("end of image list")
	ErrStartOfList   = errors.New("start of image list")
	ErrNoCatalog     = errors.New("no catalog configured")
	ErrUnmarkable    = errors.New("image cannot be displayed")
	ErrCatalogIntact = errors.New("catalog unchanged on disk")
)

// DefaultDisplay is used for frames of images whose size cannot be read.
var DefaultDisplay = geometry.Size{Width: 800, Height: 600}

// NoticeLevel grades operator-facing messages.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

// Notice is a short message for the operator.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Display is what the controller needs from the window.
type Display interface {
	RequestRedraw()
	Notify(Notice)
}

type nopDisplay struct{}

func (nopDisplay) RequestRedraw() {}
func (nopDisplay) Notify(Notice)  {}

// Options configures a controller.
type Options struct {
	Scale       float64       // Display pixels per image pixel at zoom 1
	MaxDisplay  geometry.Size // Upper bound on the display; zero = unbounded
	ExportDir   string
	Format      export.Format
	SessionPath string // "" disables session saving
	Logger      *slog.Logger
}

// ViewState is the navigable part of the session.
type ViewState struct {
	Index  int
	Label  string
	View   viewport.View
	Cursor *geometry.PointInt // Pointer position in display pixels
}

// Controller owns the session. All handlers serialize on one mutex so a
// frame always sees a consistent snapshot.
type Controller struct {
	events

	mu      sync.Mutex
	images  *imageset.Set
	store   *marks.Store
	catalog *catalog.Catalog
	pending *catalog.ColumnError
	stamp   fileStamp
	session *project.File
	opts    Options
	state   ViewState
	notice  string
	display Display
	logger  *slog.Logger
}

// NewController starts a session on the first image with no label and no zoom.
func NewController(images *imageset.Set, opts Options) *Controller {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		images:  images,
		store:   marks.NewStore(),
		opts:    opts,
		state:   ViewState{View: viewport.View{Zoom: 1}},
		display: nopDisplay{},
		logger:  opts.Logger,
	}
}

// SetDisplay attaches the window. A nil display discards notices.
func (c *Controller) SetDisplay(d Display) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d == nil {
		d = nopDisplay{}
	}
	c.display = d
}

// SetCatalog installs the label catalog; nil removes it.
func (c *Controller) SetCatalog(cat *catalog.Catalog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog = cat
	if cat != nil && cat.Path != "" {
		c.stamp = newFileStamp(cat.Path)
	}
}

// SetMaxDisplay bounds the display size, e.g. to the window's canvas area.
func (c *Controller) SetMaxDisplay(size geometry.Size) {
	c.apply(func(o *outcome) error {
		o.redraw = c.opts.MaxDisplay != size
		c.opts.MaxDisplay = size
		return nil
	})
}

// Restore loads marks and position from a saved session. A saved active
// label that the loaded catalog does not list is dropped.
func (c *Controller) Restore(f *project.File) {
	c.apply(func(o *outcome) error {
		c.session = f
		c.store = f.Store()
		if i, ok := c.images.Index(f.CurrentImage); ok {
			c.state.Index = i
		}
		c.state.Label = f.ActiveLabel
		c.checkLabelLocked(o)
		c.logger.Info("session restored", "marks", c.store.Len(), "image", c.images.Name(c.state.Index))
		o.redraw = true
		return nil
	})
}

// checkLabelLocked clears an active label the catalog does not list.
func (c *Controller) checkLabelLocked(o *outcome) {
	if c.state.Label == "" || c.catalog == nil || c.catalog.HasLabel(c.state.Label) {
		return
	}
	c.logger.Warn("active label not in catalog", "label", c.state.Label, "catalog", c.catalog.Path)
	o.notify(NoticeWarning, "Label %q is not in the catalog; select a label (press f)", c.state.Label)
	c.state.Label = ""
	o.emit(EventLabelChanged, "")
}

// ReportCatalogError records why the configured catalog could not be used.
// When only the label column is missing the table is kept until the operator
// picks a column with ResolveCatalog or gives up with DropCatalog.
func (c *Controller) ReportCatalogError(path string, err error) {
	c.apply(func(o *outcome) error {
		var ce *catalog.ColumnError
		if errors.As(err, &ce) && ce.Kind == "label" {
			c.pending = ce
			o.notify(NoticeWarning, "Catalog %s has no label column; choose one of: %s",
				path, strings.Join(ce.Table.Columns, ", "))
			return nil
		}
		o.notify(NoticeWarning, "Continuing without catalog %s: %v", path, err)
		return nil
	})
}

// PendingCatalog returns the catalog waiting for a label column, or nil.
func (c *Controller) PendingCatalog() *catalog.ColumnError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// ResolveCatalog retries the pending catalog with column as its label column.
// On failure the catalog stays pending.
func (c *Controller) ResolveCatalog(column string) error {
	return c.apply(func(o *outcome) error {
		p := c.pending
		if p == nil {
			o.notify(NoticeWarning, "No catalog is waiting for a label column")
			return ErrNoCatalog
		}
		cat, err := catalog.New(p.Table, strings.TrimSpace(column), p.Filename)
		if err != nil {
			o.notify(NoticeWarning, "Cannot use column %q: %v", column, err)
			return err
		}
		cat.Path = p.Path
		c.pending = nil
		c.catalog = cat
		c.stamp = newFileStamp(cat.Path)
		c.logger.Info("catalog loaded", "path", cat.Path, "labels", len(cat.Labels()), "label_column", cat.LabelColumn)
		o.notify(NoticeInfo, "Catalog loaded: %d labels from column %s", len(cat.Labels()), cat.LabelColumn)
		c.checkLabelLocked(o)
		o.emit(EventCatalogReloaded, cat)
		return nil
	})
}

// DropCatalog abandons the pending catalog; the session runs without one.
func (c *Controller) DropCatalog() {
	c.apply(func(o *outcome) error {
		if c.pending == nil {
			return nil
		}
		c.logger.Warn("continuing without catalog", "path", c.pending.Path)
		o.notify(NoticeWarning, "No label column chosen; continuing without catalog %s", c.pending.Path)
		c.pending = nil
		return nil
	})
}

// State returns a copy of the view state.
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	if s.Cursor != nil {
		cur := *s.Cursor
		s.Cursor = &cur
	}
	if s.View.Center != nil {
		ctr := *s.View.Center
		s.View.Center = &ctr
	}
	return s
}

// Marks returns every recorded mark.
func (c *Controller) Marks() []marks.Mark {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.All()
}

// Images returns the session's image set.
func (c *Controller) Images() *imageset.Set {
	return c.images
}

// Labels returns the catalog labels sorted, or nil without a catalog.
func (c *Controller) Labels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.catalog == nil {
		return nil
	}
	return c.catalog.SortedLabels()
}

// SearchHints returns up to n image names to show in the search prompt.
func (c *Controller) SearchHints(n int) []string {
	names := c.images.Names()
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// outcome collects the side effects of a handler so they run after the lock
// is released; displays may call Frame from RequestRedraw.
type outcome struct {
	redraw  bool
	notices []Notice
	events  []emitted
}

type emitted struct {
	event EventType
	data  interface{}
}

func (o *outcome) notify(level NoticeLevel, format string, args ...interface{}) {
	o.notices = append(o.notices, Notice{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (o *outcome) emit(event EventType, data interface{}) {
	o.events = append(o.events, emitted{event, data})
}

func (c *Controller) apply(fn func(o *outcome) error) error {
	var o outcome
	c.mu.Lock()
	err := fn(&o)
	if len(o.notices) > 0 {
		c.notice = o.notices[len(o.notices)-1].Message
		o.redraw = true
	}
	display := c.display
	c.mu.Unlock()

	for _, n := range o.notices {
		display.Notify(n)
	}
	if o.redraw {
		display.RequestRedraw()
	}
	for _, e := range o.events {
		c.Emit(e.event, e.data)
	}
	return err
}

// mapperLocked builds the coordinate mapper for the current image.
func (c *Controller) mapperLocked() (viewport.Mapper, error) {
	dims, err := c.images.Dimensions(c.images.Name(c.state.Index))
	if err != nil {
		return viewport.Mapper{}, err
	}
	return viewport.Fit(dims, c.opts.Scale, c.opts.MaxDisplay.Width, c.opts.MaxDisplay.Height), nil
}

// Click handles a mouse click at display coordinates. With ctrl held it
// zooms toward the clicked point; otherwise it marks the active label there.
func (c *Controller) Click(dx, dy float64, ctrl bool) error {
	if ctrl {
		return c.zoomAt(dx, dy)
	}
	return c.markAt(dx, dy)
}

func (c *Controller) markAt(dx, dy float64) error {
	return c.apply(func(o *outcome) error {
		label := c.state.Label
		if label == "" {
			o.notify(NoticeWarning, "Select a label first (press f)")
			return ErrNoLabel
		}
		name := c.images.Name(c.state.Index)
		if _, err := c.images.Load(name); err != nil {
			o.notify(NoticeWarning, "Cannot mark %s: %v", name, err)
			return fmt.Errorf("%w: %v", ErrUnmarkable, err)
		}
		m, err := c.mapperLocked()
		if err != nil {
			o.notify(NoticeWarning, "Cannot mark %s: %v", name, err)
			return fmt.Errorf("%w: %v", ErrUnmarkable, err)
		}

		p := m.ToImage(dx, dy, c.state.View)
		replaced := c.store.Set(label, name, p)
		c.logger.Info("mark recorded", "label", label, "image", name, "x", p.X, "y", p.Y, "replaced", replaced)

		verb := "Marked"
		if replaced {
			verb = "Moved"
		}
		o.notify(NoticeInfo, "%s %s on %s at (%d, %d)", verb, label, name, p.X, p.Y)
		o.emit(EventMarked, marks.Mark{Label: label, Image: name, Position: p})

		if err := c.saveLocked(o); err != nil {
			c.logger.Error("autosave failed", "path", c.opts.SessionPath, "error", err)
			o.notify(NoticeError, "Session autosave failed: %v", err)
		}
		return nil
	})
}

func (c *Controller) zoomAt(dx, dy float64) error {
	return c.apply(func(o *outcome) error {
		m, err := c.mapperLocked()
		if err != nil {
			o.notify(NoticeWarning, "Cannot zoom: %v", err)
			return fmt.Errorf("%w: %v", ErrUnmarkable, err)
		}
		p := m.ToImage(dx, dy, c.state.View)
		v := &c.state.View
		v.Center = &p
		if v.Zoom >= viewport.MaxZoom {
			o.notify(NoticeInfo, "Maximum zoom (%dx), re-centred", viewport.MaxZoom)
		} else {
			v.Zoom *= 2
		}
		c.logger.Debug("zoom", "factor", v.Zoom, "x", p.X, "y", p.Y)
		o.redraw = true
		o.emit(EventZoomChanged, v.Zoom)
		return nil
	})
}

// Move updates the cursor marker.
func (c *Controller) Move(dx, dy float64) {
	c.apply(func(o *outcome) error {
		p := geometry.Point2D{X: dx, Y: dy}.Floor()
		c.state.Cursor = &p
		o.redraw = true
		return nil
	})
}

// Leave hides the cursor marker.
func (c *Controller) Leave() {
	c.apply(func(o *outcome) error {
		if c.state.Cursor != nil {
			c.state.Cursor = nil
			o.redraw = true
		}
		return nil
	})
}

// ResetZoom returns to the whole-image view.
func (c *Controller) ResetZoom() {
	c.apply(func(o *outcome) error {
		c.state.View = viewport.View{Zoom: 1}
		o.redraw = true
		o.emit(EventZoomChanged, 1)
		return nil
	})
}

// SelectLabel makes label active. With a catalog loaded only catalog labels
// are accepted.
func (c *Controller) SelectLabel(label string) error {
	return c.apply(func(o *outcome) error {
		label = strings.TrimSpace(label)
		if label == "" {
			o.notify(NoticeWarning, "Label cannot be empty")
			return ErrEmptyLabel
		}
		if c.catalog != nil && !c.catalog.HasLabel(label) {
			o.notify(NoticeWarning, "Unknown label %q; valid labels: %s",
				label, strings.Join(c.catalog.SortedLabels(), ", "))
			return fmt.Errorf("%w: %s", ErrUnknownLabel, label)
		}
		c.state.Label = label
		o.notify(NoticeInfo, "Active label: %s", label)
		o.emit(EventLabelChanged, label)
		return nil
	})
}

// NextImage advances to the next image, keeping the zoom.
func (c *Controller) NextImage() error {
	return c.apply(func(o *outcome) error {
		if c.state.Index >= c.images.Len()-1 {
			o.notify(NoticeInfo, "End of image list")
			return ErrEndOfList
		}
		c.state.Index++
		c.imageChangedLocked(o)
		return nil
	})
}

// PrevImage goes back one image, keeping the zoom.
func (c *Controller) PrevImage() error {
	return c.apply(func(o *outcome) error {
		if c.state.Index == 0 {
			o.notify(NoticeInfo, "Start of image list")
			return ErrStartOfList
		}
		c.state.Index--
		c.imageChangedLocked(o)
		return nil
	})
}

// Search jumps to the named image. An exact name wins; otherwise a unique
// case-insensitive match is accepted.
func (c *Controller) Search(name string) error {
	return c.apply(func(o *outcome) error {
		name = strings.TrimSpace(name)
		i, ok := c.images.Index(name)
		if !ok {
			i, ok = c.foldedIndex(name)
		}
		if !ok {
			o.notify(NoticeWarning, "Image %q not found", name)
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		c.state.Index = i
		c.imageChangedLocked(o)
		return nil
	})
}

func (c *Controller) foldedIndex(name string) (int, bool) {
	found := -1
	for i, n := range c.images.Names() {
		if strings.EqualFold(n, name) {
			if found >= 0 {
				return 0, false
			}
			found = i
		}
	}
	return found, found >= 0
}

func (c *Controller) imageChangedLocked(o *outcome) {
	name := c.images.Name(c.state.Index)
	c.notice = ""
	c.logger.Debug("image changed", "index", c.state.Index, "image", name)
	o.redraw = true
	o.emit(EventImageChanged, name)
}

// Export validates the marks and writes the output table.
func (c *Controller) Export() (*export.Result, error) {
	var res *export.Result
	err := c.apply(func(o *outcome) error {
		var err error
		res, err = export.Run(c.store, c.images.Names(), c.catalog,
			export.Options{Dir: c.opts.ExportDir, Format: c.opts.Format})
		var inc *export.IncompleteError
		switch {
		case errors.As(err, &inc):
			c.logger.Warn("export refused", "labels", inc.Labels)
			o.notify(NoticeWarning, "Export refused: labels marked on fewer than %d images: %s",
				export.MinImagesPerLabel, strings.Join(inc.Labels, ", "))
			return err
		case err != nil:
			c.logger.Error("export failed", "error", err)
			o.notify(NoticeError, "Export failed: %v", err)
			return err
		}
		s := res.Summary
		c.logger.Info("export written", "path", res.Path, "rows", s.Rows, "labels", s.Labels,
			"mean_images_per_label", s.MeanImagesPerLabel, "min_images_per_label", s.MinImagesPerLabel)
		o.notify(NoticeInfo, "Exported %d rows (%d labels, %.1f images/label) to %s",
			s.Rows, s.Labels, s.MeanImagesPerLabel, res.Path)
		o.emit(EventExported, res)
		return nil
	})
	return res, err
}

// ReloadCatalog re-reads the catalog file. On failure the loaded catalog is kept.
func (c *Controller) ReloadCatalog() error {
	return c.apply(func(o *outcome) error {
		if c.catalog == nil || c.catalog.Path == "" {
			o.notify(NoticeWarning, "No catalog file to reload")
			return ErrNoCatalog
		}
		old := c.catalog
		if !c.stamp.Changed() {
			o.notify(NoticeInfo, "Catalog %s unchanged", old.Path)
			return ErrCatalogIntact
		}
		cat, err := catalog.Load(old.Path, old.LabelColumn, old.FilenameColumn)
		if err != nil {
			c.logger.Warn("catalog reload failed", "path", old.Path, "error", err)
			o.notify(NoticeWarning, "Catalog reload failed, keeping previous: %v", err)
			return err
		}
		c.catalog = cat
		c.stamp = newFileStamp(cat.Path)
		c.logger.Info("catalog reloaded", "path", cat.Path, "labels", len(cat.Labels()))
		o.notify(NoticeInfo, "Catalog reloaded: %d labels", len(cat.Labels()))
		if c.state.Label != "" && !cat.HasLabel(c.state.Label) {
			o.notify(NoticeWarning, "Active label %q is no longer in the catalog", c.state.Label)
		}
		o.emit(EventCatalogReloaded, cat)
		return nil
	})
}

// Save writes the session file, if one is configured.
func (c *Controller) Save() error {
	return c.apply(func(o *outcome) error {
		return c.saveLocked(o)
	})
}

// Quit saves the session before the window closes.
func (c *Controller) Quit() error {
	err := c.Save()
	if err != nil {
		c.logger.Error("failed to save session on quit", "error", err)
	}
	return err
}

func (c *Controller) saveLocked(o *outcome) error {
	if c.opts.SessionPath == "" {
		return nil
	}
	if c.session == nil {
		c.session = project.New(c.images.Dir)
	}
	f := c.session
	f.ImageDir = c.images.Dir
	f.CurrentImage = c.images.Name(c.state.Index)
	f.ActiveLabel = c.state.Label
	if c.catalog != nil {
		f.CatalogPath = c.catalog.Path
		f.LabelColumn = c.catalog.LabelColumn
		f.FilenameColumn = c.catalog.FilenameColumn
	}
	f.SetMarks(c.store)
	if err := f.Save(c.opts.SessionPath); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	o.emit(EventSessionSaved, c.opts.SessionPath)
	return nil
}

// Frame snapshots everything needed to draw the current image.
func (c *Controller) Frame() render.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := c.images.Name(c.state.Index)
	f := render.Frame{
		Name:       name,
		Index:      c.state.Index,
		Count:      c.images.Len(),
		View:       c.state.View,
		Label:      c.state.Label,
		LabelCount: c.store.ImageCount(c.state.Label),
		Notice:     c.notice,
		ShowHelp:   true,
	}
	if c.state.Cursor != nil {
		cur := *c.state.Cursor
		f.Cursor = &cur
	}

	img, err := c.images.Load(name)
	if err == nil {
		f.Mapper, err = c.mapperLocked()
	}
	if err != nil {
		f.Err = err
		d := DefaultDisplay
		if !c.opts.MaxDisplay.Empty() {
			d = c.opts.MaxDisplay
		}
		f.Mapper = viewport.New(geometry.Size{Width: 1, Height: 1}, d)
		return f
	}
	f.Image = img

	// Every mark of the active label is drawn at its pixel position, whichever
	// image it was recorded on; points outside the window are skipped.
	for _, m := range c.store.ForLabel(c.state.Label) {
		f.Marks = append(f.Marks, m.Position)
	}
	return f
}

// Summary describes per-label progress, sorted by label.
func (c *Controller) Summary() []LabelProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts := c.store.CountByLabel()
	if c.catalog != nil {
		for _, l := range c.catalog.Labels() {
			if _, ok := counts[l]; !ok {
				counts[l] = 0
			}
		}
	}
	out := make([]LabelProgress, 0, len(counts))
	for l, n := range counts {
		out = append(out, LabelProgress{Label: l, Images: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// LabelProgress is the number of images a label has been marked on.
type LabelProgress struct {
	Label  string
	Images int
}
