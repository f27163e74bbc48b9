package domain

import (
	"errors"
	"regexp"
	"time"
)

// ErrInvalidField is returned when a pin field or an active default is set
// to a value outside its catalog.
var ErrInvalidField = errors.New("invalid field value")

type Category string

const (
	CategoryUX            Category = "ux"
	CategoryVisual        Category = "visual"
	CategoryLogic         Category = "logic"
	CategoryAccessibility Category = "accessibility"
)

type Perspective string

const (
	PerspectiveUser          Perspective = "user"
	PerspectiveDeveloper     Perspective = "developer"
	PerspectiveAccessibility Perspective = "accessibility"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// TimestampLayout matches the millisecond UTC form browsers produce for
// Date.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Zoom bounds shared by the view transform and session restore.
const (
	MinZoom = 0.25
	MaxZoom = 8.0
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type NaturalSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Known reports whether both dimensions are positive.
func (s NaturalSize) Known() bool {
	return s.Width > 0 && s.Height > 0
}

// Pin is one annotation anchored to a point in image-intrinsic coordinates.
// CreatedAt is kept verbatim so imported files round-trip
// unchanged.
type Pin struct {
	ID          string      `json:"id"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	Title       string      `json:"title"`
	Note        string      `json:"note"`
	Category    Category    `json:"category"`
	Perspective Perspective `json:"perspective"`
	Severity    Severity    `json:"severity"`
	Colour      string      `json:"colour"`
	CreatedAt   string      `json:"createdAt"`
}

// PinPatch carries the mutable pin fields; nil fields are left untouched.
type PinPatch struct {
	Title       *string      `json:"title,omitempty"`
	Note        *string      `json:"note,omitempty"`
	Category    *Category    `json:"category,omitempty"`
	Perspective *Perspective `json:"perspective,omitempty"`
	Severity    *Severity    `json:"severity,omitempty"`
	Colour      *string      `json:"colour,omitempty"`
}

// Session is the complete state of the annotation editor.
type Session struct {
	ImageRef          string
	NaturalSize       NaturalSize
	Pins              []Pin
	SelectedPinID     string
	ActiveCategory    Category
	ActivePerspective Perspective
	Zoom              float64
	Pan               Point
}

// NewSession returns an empty session with default view and active values.
func NewSession() *Session {
	return &Session{
		Pins:              []Pin{},
		ActiveCategory:    CategoryUX,
		ActivePerspective: PerspectiveUser,
		Zoom:              1,
	}
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	c := *s
	c.Pins = make([]Pin, len(s.Pins))
	copy(c.Pins, s.Pins)
	return &c
}

// HasImage reports whether an image is currently loaded.
func (s *Session) HasImage() bool {
	return s.ImageRef != ""
}

// PinIndex returns the position of the pin with id, or -1.
func (s *Session) PinIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.Pins {
		if s.Pins[i].ID == id {
			return i
		}
	}
	return -1
}

// PinNumber returns the label displayed on the pin: the newest pin carries
// the highest number. Zero means the pin does not exist.
func (s *Session) PinNumber(id string) int {
	i := s.PinIndex(id)
	if i < 0 {
		return 0
	}
	return len(s.Pins) - i
}

// SelectedPin resolves the selection; a stale id yields nil.
func (s *Session) SelectedPin() *Pin {
	i := s.PinIndex(s.SelectedPinID)
	if i < 0 {
		return nil
	}
	return &s.Pins[i]
}

type CatalogEntry[T ~string] struct {
	ID    T      `json:"id"`
	Label string `json:"label"`
}

var Perspectives = []CatalogEntry[Perspective]{
	{ID: PerspectiveUser, Label: "User"},
	{ID: PerspectiveDeveloper, Label: "Developer"},
	{ID: PerspectiveAccessibility, Label: "Accessibility"},
}

var Categories = []CatalogEntry[Category]{
	{ID: CategoryUX, Label: "UX"},
	{ID: CategoryVisual, Label: "Visual"},
	{ID: CategoryLogic, Label: "Logic"},
	{ID: CategoryAccessibility, Label: "Accessibility"},
}

var Severities = []CatalogEntry[Severity]{
	{ID: SeverityLow, Label: "Low"},
	{ID: SeverityMedium, Label: "Medium"},
	{ID: SeverityHigh, Label: "High"},
}

func inCatalog[T ~string](entries []CatalogEntry[T], v T) bool {
	for _, e := range entries {
		if e.ID == v {
			return true
		}
	}
	return false
}

func (c Category) Valid() bool    { return inCatalog(Categories, c) }
func (p Perspective) Valid() bool { return inCatalog(Perspectives, p) }
func (s Severity) Valid() bool    { return inCatalog(Severities, s) }

// Label returns the display label of c, or the raw id when unknown.
func (c Category) Label() string {
	for _, e := range Categories {
		if e.ID == c {
			return e.Label
		}
	}
	return string(c)
}

func (p Perspective) Label() string {
	for _, e := range Perspectives {
		if e.ID == p {
			return e.Label
		}
	}
	return string(p)
}

// DefaultColour returns the pin colour used for a category when none was
// chosen explicitly.
func DefaultColour(c Category) string {
	switch c {
	case CategoryUX:
		return "#4ea8ff"
	case CategoryVisual:
		return "#b983ff"
	case CategoryLogic:
		return "#33d17a"
	default:
		return "#ff6b6b"
	}
}

var hexColour = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ValidColour reports whether s is a #rgb, #rrggbb or #rrggbbaa hex colour.
func ValidColour(s string) bool {
	return hexColour.MatchString(s)
}

// Image is an uploaded image file and its natural pixel size.
type Image struct {
	ID         int64
	StorageKey string
	MimeType   string
	Width      int
	Height     int
	UploadedAt time.Time
}

func (i *Image) NaturalSize() NaturalSize {
	return NaturalSize{Width: float64(i.Width), Height: float64(i.Height)}
}
