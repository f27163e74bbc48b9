package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/vbonduro/explainui/internal/annotate"
	"github.com/vbonduro/explainui/internal/domain"
	"github.com/vbonduro/explainui/internal/exchange"
	"github.com/vbonduro/explainui/internal/explain"
	"github.com/vbonduro/explainui/internal/imagefile"
	"github.com/vbonduro/explainui/internal/shotstore"
)

var (
	ErrNotImage    = imagefile.ErrNotImage
	ErrNoImage     = errors.New("no image loaded")
	ErrNoDrafter   = errors.New("note drafting is not configured")
	ErrPinNotFound = errors.New("pin not found")
)

const (
	// maxImportBytes bounds an export document; a thousand pins with long
	// notes stay well below it.
	maxImportBytes = 8 << 20

	excerptWindow  = 512
	excerptMaxSide = 512
)

// imageRepository is the subset of store.ImageStore that SessionService requires.
type imageRepository interface {
	Create(ctx context.Context, storageKey, mimeType string, width, height int) (*domain.Image, error)
	GetByKey(ctx context.Context, storageKey string) (*domain.Image, error)
	DeleteByKey(ctx context.Context, storageKey string) error
}

// SessionService joins the editor to the places the image lives: the file
// bytes in a shotstore and its metadata row.
type SessionService struct {
	editor  *annotate.Editor
	images  imageRepository
	files   shotstore.Store
	drafter explain.Drafter
	logger  *slog.Logger
}

// Open restores the editor from repo. drafter may be nil, in which case
// DraftNote returns ErrNoDrafter.
func Open(
	ctx context.Context,
	repo annotate.SessionRepository,
	images imageRepository,
	files shotstore.Store,
	drafter explain.Drafter,
	logger *slog.Logger,
	opts ...annotate.Option,
) (*SessionService, error) {
	s := &SessionService{
		images:  images,
		files:   files,
		drafter: drafter,
		logger:  logger,
	}
	editor, err := annotate.Open(ctx, repo, releaser{s}, logger, opts...)
	if err != nil {
		return nil, err
	}
	s.editor = editor
	return s, nil
}

func (s *SessionService) Editor() *annotate.Editor {
	return s.editor
}

// releaser frees an image once the editor lets go of it.
type releaser struct {
	s *SessionService
}

func (r releaser) Release(ctx context.Context, ref string) error {
	var errs []error
	if err := r.s.files.Delete(ctx, ref); err != nil && !errors.Is(err, shotstore.ErrNotFound) {
		errs = append(errs, fmt.Errorf("failed to delete image file: %w", err))
	}
	if err := r.s.images.DeleteByKey(ctx, ref); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		r.s.logger.Debug("image released", "ref", ref)
	}
	return errors.Join(errs...)
}

// LoadImage stores data as the new screenshot and resets the session to it.
// A declared non-image type is refused outright; otherwise the stored type is
// taken from the bytes. Rejected data leaves the session untouched.
func (s *SessionService) LoadImage(ctx context.Context, data []byte, declaredMIME string) (*domain.Image, error) {
	s.logger.Info("image upload started", "declared_mime", declaredMIME, "bytes", len(data))

	if !imagefile.IsImageMIME(declaredMIME) {
		s.logger.Warn("rejected upload declared as non-image", "declared_mime", declaredMIME)
		return nil, ErrNotImage
	}
	mimeType, ok := imagefile.Sniff(data)
	if !ok {
		s.logger.Warn("rejected non-image upload", "declared_mime", declaredMIME)
		return nil, ErrNotImage
	}
	width, height, err := imagefile.Size(data)
	if err != nil {
		return nil, err
	}

	storageKey, err := s.files.Save(ctx, mimeType, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	img, err := s.images.Create(ctx, storageKey, mimeType, width, height)
	if err != nil {
		if derr := s.files.Delete(ctx, storageKey); derr != nil {
			s.logger.Error("failed to remove orphaned image file", "storage_key", storageKey, "error", derr)
		}
		return nil, fmt.Errorf("failed to record image: %w", err)
	}

	if err := s.editor.LoadImage(ctx, storageKey, img.NaturalSize()); err != nil {
		return img, err
	}
	return img, nil
}

// OpenImage returns the bytes of the loaded image. Callers must close the
// reader.
func (s *SessionService) OpenImage(ctx context.Context) (io.ReadCloser, string, error) {
	h := s.editor.Image()
	if h == nil {
		return nil, "", ErrNoImage
	}

	rc, mimeType, err := s.files.Get(ctx, h.Ref())
	if errors.Is(err, shotstore.ErrNotFound) {
		return nil, "", ErrNoImage
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}

	if img, err := s.images.GetByKey(ctx, h.Ref()); err == nil && img != nil {
		mimeType = img.MimeType
	}
	return rc, mimeType, nil
}

// Import reads an export document from r and replaces the session's pins
// with it. An invalid document is rejected with a *exchange.ValidationError
// and changes nothing; a document that finishes reading after a new image
// was loaded is dropped with annotate.ErrStaleImport.
func (s *SessionService) Import(ctx context.Context, r io.Reader) (annotate.ImportResult, error) {
	ticket := s.editor.BeginImport()

	data, err := io.ReadAll(io.LimitReader(r, maxImportBytes+1))
	if err != nil {
		return annotate.ImportResult{}, fmt.Errorf("failed to read import: %w", err)
	}
	if len(data) > maxImportBytes {
		return annotate.ImportResult{}, &exchange.ValidationError{Field: "", Reason: "file too large"}
	}

	m, err := exchange.Decode(data)
	if err != nil {
		s.logger.Warn("import rejected", "error", err)
		return annotate.ImportResult{}, err
	}

	return s.editor.ApplyImport(ctx, ticket, m)
}

// DraftNote asks the drafter to describe the element under a pin and merges
// the answer into the pin: the note is replaced and the title is filled in
// only when the pin has none.
func (s *SessionService) DraftNote(ctx context.Context, pinID string) (*domain.Pin, error) {
	if s.drafter == nil {
		return nil, ErrNoDrafter
	}

	snap := s.editor.Snapshot()
	i := snap.PinIndex(pinID)
	if i < 0 {
		return nil, ErrPinNotFound
	}
	pin := snap.Pins[i]

	rc, mimeType, err := s.OpenImage(ctx)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(rc)
	if cerr := rc.Close(); cerr != nil {
		s.logger.Error("failed to close image", "error", cerr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	crop, err := imagefile.Excerpt(data, pin.X, pin.Y, excerptWindow, excerptMaxSide)
	if err != nil {
		s.logger.Warn("falling back to full image for draft", "pin_id", pinID, "error", err)
		crop = data
	} else {
		mimeType = "image/png"
	}

	s.logger.Info("note draft started", "pin_id", pinID, "perspective", pin.Perspective, "category", pin.Category)
	draft, err := s.drafter.Draft(ctx, explain.Request{
		Image:       crop,
		MimeType:    mimeType,
		Perspective: pin.Perspective,
		Category:    pin.Category,
		Title:       pin.Title,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to draft note: %w", err)
	}
	s.logger.Info("note draft complete", "pin_id", pinID, "note_chars", len(draft.Note))

	patch := domain.PinPatch{Note: &draft.Note}
	if pin.Title == "" && draft.Title != "" {
		patch.Title = &draft.Title
	}
	updated, err := s.editor.UpdatePin(ctx, pinID, patch)
	if err != nil {
		return updated, err
	}
	if updated == nil {
		// deleted while the model was answering
		return nil, ErrPinNotFound
	}
	return updated, nil
}
