package exchange

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/vbonduro/explainui/internal/domain"
)

// ValidationError explains why an export document was rejected. Field is a
// JSON path such as "pins[2].category"; it is empty when the failure is not
// tied to a single field.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid export: " + e.Reason
	}
	return fmt.Sprintf("invalid export: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func constant(v any) *any { return &v }

func minimum(v float64) *float64 { return &v }

func enumOf[T ~string](entries []domain.CatalogEntry[T]) []any {
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, string(e.ID))
	}
	return out
}

var pinSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"id":          {Type: "string"},
		"x":           {Type: "number"},
		"y":           {Type: "number"},
		"title":       {Type: "string"},
		"note":        {Type: "string"},
		"category":    {Type: "string", Enum: enumOf(domain.Categories)},
		"perspective": {Type: "string", Enum: enumOf(domain.Perspectives)},
		"severity":    {Type: "string", Enum: enumOf(domain.Severities)},
		"colour":      {Type: "string"},
		"createdAt":   {Type: "string"},
	},
	Required: []string{"id", "x", "y", "title", "note", "category", "perspective", "severity", "colour", "createdAt"},
}

var exportSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"version": {Const: constant(float64(Version))},
		"image": {
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"naturalSize": {
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"width":  {Type: "number", Minimum: minimum(0)},
						"height": {Type: "number", Minimum: minimum(0)},
					},
					Required: []string{"width", "height"},
				},
			},
			Required: []string{"naturalSize"},
		},
		"pins":       {Type: "array", Items: pinSchema},
		"exportedAt": {Type: "string"},
	},
	Required: []string{"version", "image", "pins", "exportedAt"},
}

var resolvedSchema = mustResolve(exportSchema)

func mustResolve(s *jsonschema.Schema) *jsonschema.Resolved {
	rs, err := s.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		panic(fmt.Sprintf("export schema: %v", err))
	}
	return rs
}

// Decode parses data and validates it field by field. Any deviation rejects
// the whole document with a *ValidationError; nothing is partially returned.
func Decode(data []byte) (*Model, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Reason: "malformed JSON", Err: err}
	}
	if err := checkShape(raw); err != nil {
		return nil, err
	}
	if err := resolvedSchema.Validate(raw); err != nil {
		return nil, &ValidationError{Reason: err.Error(), Err: err}
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ValidationError{Reason: "malformed document", Err: err}
	}
	if m.Pins == nil {
		m.Pins = []domain.Pin{}
	}
	if err := checkSemantics(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// checkShape pins down the failures most often met in practice with a field
// path before the schema reports them generically.
func checkShape(raw any) error {
	doc, ok := raw.(map[string]any)
	if !ok {
		return invalid("", "document is not an object")
	}
	v, ok := doc["version"]
	if !ok {
		return invalid("version", "missing")
	}
	if n, isNum := v.(float64); !isNum || n != Version {
		return invalid("version", fmt.Sprintf("must be %d", Version))
	}
	pins, ok := doc["pins"].([]any)
	if !ok {
		return invalid("pins", "must be an array")
	}
	for i, p := range pins {
		obj, ok := p.(map[string]any)
		if !ok {
			return invalid(fmt.Sprintf("pins[%d]", i), "must be an object")
		}
		if _, ok := obj["id"].(string); !ok {
			return invalid(fmt.Sprintf("pins[%d].id", i), "must be a string")
		}
	}
	return nil
}

// checkSemantics enforces pin identity only. Coordinates and timestamps are
// taken as typed: anything a restored session holds must import again.
func checkSemantics(m *Model) error {
	seen := make(map[string]struct{}, len(m.Pins))
	for i, p := range m.Pins {
		field := fmt.Sprintf("pins[%d].id", i)
		if p.ID == "" {
			return invalid(field, "empty")
		}
		if _, dup := seen[p.ID]; dup {
			return invalid(field, "duplicate id "+p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// IsValidationError reports whether err is an import rejection.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
