package annotate

import (
	"context"
	"fmt"

	"github.com/vbonduro/explainui/internal/domain"
)

// createPin prepends a new pin at p and selects it.
func (e *Editor) createPin(p domain.Point) domain.Pin {
	category := e.session.ActiveCategory
	pin := domain.Pin{
		ID:          e.newID(),
		X:           p.X,
		Y:           p.Y,
		Category:    category,
		Perspective: e.session.ActivePerspective,
		Severity:    domain.SeverityMedium,
		Colour:      domain.DefaultColour(category),
		CreatedAt:   domain.FormatTimestamp(e.now()),
	}

	pins := make([]domain.Pin, 0, len(e.session.Pins)+1)
	pins = append(pins, pin)
	pins = append(pins, e.session.Pins...)
	e.session.Pins = pins
	e.session.SelectedPinID = pin.ID
	e.dirty = true
	return pin
}

// movePin relocates a pin during a drag, clamped to the image bounds.
func (e *Editor) movePin(id string, p domain.Point) bool {
	i := e.session.PinIndex(id)
	if i < 0 {
		return false
	}
	next := ClampToImage(p, e.session.NaturalSize)
	pin := &e.session.Pins[i]
	if pin.X == next.X && pin.Y == next.Y {
		return false
	}
	pin.X, pin.Y = next.X, next.Y
	e.dirty = true
	return true
}

func (e *Editor) deletePin(id string) bool {
	i := e.session.PinIndex(id)
	if i < 0 {
		return false
	}
	pins := make([]domain.Pin, 0, len(e.session.Pins)-1)
	pins = append(pins, e.session.Pins[:i]...)
	pins = append(pins, e.session.Pins[i+1:]...)
	e.session.Pins = pins
	if e.session.SelectedPinID == id {
		e.session.SelectedPinID = ""
	}
	e.dirty = true
	return true
}

func (e *Editor) selectPin(id string) {
	if e.session.SelectedPinID == id {
		return
	}
	e.session.SelectedPinID = id
	e.dirty = true
}

func validatePatch(p domain.PinPatch) error {
	if p.Category != nil && !p.Category.Valid() {
		return fmt.Errorf("category %q: %w", *p.Category, domain.ErrInvalidField)
	}
	if p.Perspective != nil && !p.Perspective.Valid() {
		return fmt.Errorf("perspective %q: %w", *p.Perspective, domain.ErrInvalidField)
	}
	if p.Severity != nil && !p.Severity.Valid() {
		return fmt.Errorf("severity %q: %w", *p.Severity, domain.ErrInvalidField)
	}
	if p.Colour != nil && !domain.ValidColour(*p.Colour) {
		return fmt.Errorf("colour %q: %w", *p.Colour, domain.ErrInvalidField)
	}
	return nil
}

func applyPatch(pin *domain.Pin, p domain.PinPatch) bool {
	before := *pin
	if p.Title != nil {
		pin.Title = *p.Title
	}
	if p.Note != nil {
		pin.Note = *p.Note
	}
	if p.Category != nil {
		pin.Category = *p.Category
	}
	if p.Perspective != nil {
		pin.Perspective = *p.Perspective
	}
	if p.Severity != nil {
		pin.Severity = *p.Severity
	}
	if p.Colour != nil {
		pin.Colour = *p.Colour
	}
	return *pin != before
}

// UpdatePin merges patch into the pin with id. It returns nil when the pin
// does not exist.
func (e *Editor) UpdatePin(ctx context.Context, id string, patch domain.PinPatch) (*domain.Pin, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.updatePin(ctx, id, patch)
}

// UpdateSelectedPin patches the selected pin; with no selection it is a
// no-op returning nil.
func (e *Editor) UpdateSelectedPin(ctx context.Context, patch domain.PinPatch) (*domain.Pin, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.updatePin(ctx, e.session.SelectedPinID, patch)
}

func (e *Editor) updatePin(ctx context.Context, id string, patch domain.PinPatch) (*domain.Pin, error) {
	i := e.session.PinIndex(id)
	if i < 0 {
		return nil, nil
	}
	if applyPatch(&e.session.Pins[i], patch) {
		e.dirty = true
	}
	updated := e.session.Pins[i]
	return &updated, e.commit(ctx)
}

// DeletePin removes the pin with id. Deleting the selected pin clears the
// selection.
func (e *Editor) DeletePin(ctx context.Context, id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.deletePin(id) {
		return false, nil
	}
	if e.machine.state == DraggingPin && e.machine.dragPinID == id {
		e.machine.reset()
	}
	return true, e.commit(ctx)
}

// SelectPin sets the selection without checking that id exists; "" clears it.
func (e *Editor) SelectPin(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.selectPin(id)
	return e.commit(ctx)
}
