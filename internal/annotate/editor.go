// Package annotate is the pin editor: it owns the session, interprets
// interaction events and keeps the persisted copy in step.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/explainui/internal/domain"
	"github.com/vbonduro/explainui/internal/exchange"
)

// ErrStaleImport is returned when an import completes after the image was
// replaced or the session cleared.
var ErrStaleImport = errors.New("import superseded by a newer session")

// SessionRepository is the single persisted slot for the editor session.
// Load returns nil, nil when nothing usable is stored.
type SessionRepository interface {
	Load(ctx context.Context) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
}

type Option func(*Editor)

// WithClock overrides the time source used for createdAt and exportedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

// WithIDGenerator overrides pin id generation.
func WithIDGenerator(newID func() string) Option {
	return func(e *Editor) { e.newID = newID }
}

// Editor serializes every operation behind one mutex so each event is
// handled to completion before the next one.
type Editor struct {
	mu         sync.Mutex
	session    *domain.Session
	machine    machine
	image      *ImageHandle
	generation uint64
	dirty      bool

	repo   SessionRepository
	images ImageReleaser
	newID  func() string
	now    func() time.Time
	logger *slog.Logger
}

// Open restores the editor from repo, starting empty when nothing is stored.
func Open(ctx context.Context, repo SessionRepository, images ImageReleaser, logger *slog.Logger, opts ...Option) (*Editor, error) {
	e := &Editor{
		session: domain.NewSession(),
		repo:    repo,
		images:  images,
		newID:   uuid.NewString,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}

	restored, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if restored != nil {
		e.session = restored
		if restored.HasImage() {
			e.image = newImageHandle(restored.ImageRef, restored.NaturalSize, images)
		}
		logger.Info("session restored", "pins", len(restored.Pins), "has_image", restored.HasImage())
	}
	return e, nil
}

// Snapshot returns a copy of the current session.
func (e *Editor) Snapshot() *domain.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone()
}

// State returns the current interaction state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.state
}

// Image returns the owned image handle, or nil when no image is loaded.
func (e *Editor) Image() *ImageHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.image
}

func (e *Editor) view() View {
	return View{Zoom: e.session.Zoom, Pan: e.session.Pan}
}

func (e *Editor) setView(v View) {
	if v.Zoom == e.session.Zoom && v.Pan == e.session.Pan {
		return
	}
	e.session.Zoom = v.Zoom
	e.session.Pan = v.Pan
	e.dirty = true
}

// commit saves the session when the last operation changed it. A failed
// save keeps the in-memory change and reports the error to the caller.
func (e *Editor) commit(ctx context.Context) error {
	if !e.dirty {
		return nil
	}
	e.dirty = false
	if err := e.repo.Save(ctx, e.session.Clone()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (e *Editor) releaseImage(ctx context.Context) {
	if e.image == nil {
		return
	}
	if err := e.image.Release(ctx); err != nil {
		e.logger.Error("failed to release image", "ref", e.image.Ref(), "error", err)
	}
	e.image = nil
}

// LoadImage replaces the image. The previous image is released first, and
// pins, selection, zoom and pan are cleared.
func (e *Editor) LoadImage(ctx context.Context, ref string, size domain.NaturalSize) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.releaseImage(ctx)
	e.image = newImageHandle(ref, size, e.images)
	e.generation++

	e.session.ImageRef = ref
	e.session.NaturalSize = size
	e.session.Pins = []domain.Pin{}
	e.session.SelectedPinID = ""
	e.session.Zoom = 1
	e.session.Pan = domain.Point{}
	e.machine.reset()
	e.dirty = true

	e.logger.Info("image loaded", "ref", ref, "width", size.Width, "height", size.Height)
	return e.commit(ctx)
}

// Clear resets the session and releases the image. The active category and
// perspective survive a clear.
func (e *Editor) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.releaseImage(ctx)
	e.generation++

	next := domain.NewSession()
	next.ActiveCategory = e.session.ActiveCategory
	next.ActivePerspective = e.session.ActivePerspective
	e.session = next
	e.machine.reset()
	e.dirty = true

	e.logger.Info("session cleared")
	return e.commit(ctx)
}

// ResetView restores zoom 1 and pan (0, 0).
func (e *Editor) ResetView(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.setView(DefaultView())
	return e.commit(ctx)
}

func (e *Editor) SetActiveCategory(ctx context.Context, c domain.Category) error {
	if !c.Valid() {
		return fmt.Errorf("category %q: %w", c, domain.ErrInvalidField)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.ActiveCategory != c {
		e.session.ActiveCategory = c
		e.dirty = true
	}
	return e.commit(ctx)
}

func (e *Editor) SetActivePerspective(ctx context.Context, p domain.Perspective) error {
	if !p.Valid() {
		return fmt.Errorf("perspective %q: %w", p, domain.ErrInvalidField)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.ActivePerspective != p {
		e.session.ActivePerspective = p
		e.dirty = true
	}
	return e.commit(ctx)
}

// Export builds the export document for the current pins and image size.
func (e *Editor) Export() *exchange.Model {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exportLocked()
}

func (e *Editor) exportLocked() *exchange.Model {
	return exchange.Build(e.session.Pins, e.session.NaturalSize, e.now())
}

// Ticket identifies the session generation an import was started against.
type Ticket struct {
	generation uint64
}

// ImportResult describes an applied import.
type ImportResult struct {
	Pins         int
	SizeMismatch bool
	ImageSize    domain.NaturalSize
	ImportedSize domain.NaturalSize
}

// BeginImport records the current generation. Take the ticket before reading
// the import file so an image loaded meanwhile invalidates it.
func (e *Editor) BeginImport() Ticket {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Ticket{generation: e.generation}
}

// ApplyImport replaces pins and natural size with m. The image and view are
// kept. Stale tickets are dropped with ErrStaleImport and leave the session
// untouched.
func (e *Editor) ApplyImport(ctx context.Context, t Ticket, m *exchange.Model) (ImportResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t.generation != e.generation {
		e.logger.Warn("dropping stale import", "ticket", t.generation, "generation", e.generation)
		return ImportResult{}, ErrStaleImport
	}

	res := ImportResult{Pins: len(m.Pins), ImportedSize: m.Image.NaturalSize}
	if e.image != nil {
		res.ImageSize = e.image.Size()
		res.SizeMismatch = res.ImageSize.Known() && res.ImageSize != m.Image.NaturalSize
	}
	if res.SizeMismatch {
		e.logger.Warn("imported pins were made on a differently sized image",
			"image_width", res.ImageSize.Width, "image_height", res.ImageSize.Height,
			"import_width", res.ImportedSize.Width, "import_height", res.ImportedSize.Height)
	}

	pins := make([]domain.Pin, len(m.Pins))
	copy(pins, m.Pins)
	e.session.Pins = pins
	e.session.NaturalSize = m.Image.NaturalSize
	e.session.SelectedPinID = ""
	if len(pins) > 0 {
		e.session.SelectedPinID = pins[0].ID
	}
	if e.machine.state == DraggingPin {
		e.machine.reset()
	}
	e.dirty = true

	e.logger.Info("import applied", "pins", len(pins))
	return res, e.commit(ctx)
}
