// Package session converts the editor session to and from its persisted
// record. Decoding is lenient: a field with the wrong shape falls back to its
// default instead of failing the restore.
package session

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/vbonduro/explainui/internal/domain"
)

// DefaultKey names the persisted slot.
const DefaultKey = "explain-this-ui:v1"

type record struct {
	ImageRef          *string            `json:"imageRef"`
	ImageNaturalSize  domain.NaturalSize `json:"imageNaturalSize"`
	Pins              []domain.Pin       `json:"pins"`
	SelectedPinID     *string            `json:"selectedPinId"`
	ActiveCategory    domain.Category    `json:"activeCategory"`
	ActivePerspective domain.Perspective `json:"activePerspective"`
	Zoom              float64            `json:"zoom"`
	Pan               domain.Point       `json:"pan"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Marshal encodes s as a persisted record.
func Marshal(s *domain.Session) ([]byte, error) {
	pins := s.Pins
	if pins == nil {
		pins = []domain.Pin{}
	}
	data, err := json.Marshal(record{
		ImageRef:          optional(s.ImageRef),
		ImageNaturalSize:  s.NaturalSize,
		Pins:              pins,
		SelectedPinID:     optional(s.SelectedPinID),
		ActiveCategory:    s.ActiveCategory,
		ActivePerspective: s.ActivePerspective,
		Zoom:              s.Zoom,
		Pan:               s.Pan,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return data, nil
}

// Unmarshal restores a session from data. It returns nil when data is not a
// JSON object; every other defect is repaired field by field. now stamps
// pins whose createdAt is missing.
func Unmarshal(data []byte, now time.Time) *domain.Session {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil
	}

	s := domain.NewSession()

	var ref string
	if decodeInto(fields["imageRef"], &ref) {
		s.ImageRef = ref
	}

	var size map[string]json.RawMessage
	if decodeInto(fields["imageNaturalSize"], &size) {
		var w, h float64
		if decodeInto(size["width"], &w) && decodeInto(size["height"], &h) && w >= 0 && h >= 0 {
			s.NaturalSize = domain.NaturalSize{Width: w, Height: h}
		}
	}

	var rawPins []json.RawMessage
	if decodeInto(fields["pins"], &rawPins) {
		s.Pins = normalisePins(rawPins, now)
	}

	var selected string
	if decodeInto(fields["selectedPinId"], &selected) {
		s.SelectedPinID = selected
	}

	var category domain.Category
	if decodeInto(fields["activeCategory"], &category) && category.Valid() {
		s.ActiveCategory = category
	}

	var perspective domain.Perspective
	if decodeInto(fields["activePerspective"], &perspective) && perspective.Valid() {
		s.ActivePerspective = perspective
	}

	var zoom float64
	if decodeInto(fields["zoom"], &zoom) && zoom > 0 {
		s.Zoom = math.Min(math.Max(zoom, domain.MinZoom), domain.MaxZoom)
	}

	var pan map[string]json.RawMessage
	if decodeInto(fields["pan"], &pan) {
		var x, y float64
		if decodeInto(pan["x"], &x) && decodeInto(pan["y"], &y) {
			s.Pan = domain.Point{X: x, Y: y}
		}
	}

	return s
}

// decodeInto reports whether raw holds a non-null value of v's type.
func decodeInto(raw json.RawMessage, v any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// normalisePins drops entries without a non-empty string id, and later
// duplicates of an id, then fills every other missing or wrong-shaped field
// with its default. Surviving pins always pass exchange.Decode.
func normalisePins(raw []json.RawMessage, now time.Time) []domain.Pin {
	pins := make([]domain.Pin, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		var f map[string]json.RawMessage
		if !decodeInto(r, &f) {
			continue
		}
		var id string
		if !decodeInto(f["id"], &id) || id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		pin := domain.Pin{
			ID:          id,
			Category:    domain.CategoryUX,
			Perspective: domain.PerspectiveUser,
			Severity:    domain.SeverityMedium,
		}
		decodeInto(f["x"], &pin.X)
		decodeInto(f["y"], &pin.Y)
		decodeInto(f["title"], &pin.Title)
		decodeInto(f["note"], &pin.Note)

		var category domain.Category
		if decodeInto(f["category"], &category) && category.Valid() {
			pin.Category = category
		}
		var perspective domain.Perspective
		if decodeInto(f["perspective"], &perspective) && perspective.Valid() {
			pin.Perspective = perspective
		}
		var severity domain.Severity
		if decodeInto(f["severity"], &severity) && severity.Valid() {
			pin.Severity = severity
		}
		if !decodeInto(f["colour"], &pin.Colour) {
			pin.Colour = domain.DefaultColour(pin.Category)
		}
		if !decodeInto(f["createdAt"], &pin.CreatedAt) {
			pin.CreatedAt = domain.FormatTimestamp(now)
		}
		pins = append(pins, pin)
	}
	return pins
}
