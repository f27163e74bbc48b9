package exchange

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/explainui/internal/domain"
)

func samplePins() []domain.Pin {
	return []domain.Pin{
		{ID: "b", X: 400, Y: 300, Title: "Save", Note: "Writes the form", Category: domain.CategoryUX,
			Perspective: domain.PerspectiveUser, Severity: domain.SeverityHigh, Colour: "#4ea8ff", CreatedAt: "2025-03-01T12:00:01.000Z"},
		{ID: "a", X: 0, Y: 600, Category: domain.CategoryAccessibility,
			Perspective: domain.PerspectiveAccessibility, Severity: domain.SeverityLow, Colour: "#ff6b6b", CreatedAt: "2025-03-01T12:00:00.000Z"},
	}
}

var testSize = domain.NaturalSize{Width: 800, Height: 600}

func TestBuildEncodeDecodeRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 2, 8, 30, 0, 0, time.UTC)
	m := Build(samplePins(), testSize, now)
	assert.Equal(t, 1, m.Version)
	assert.Equal(t, "2025-03-02T08:30:00.000Z", m.ExportedAt)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, m))
	assert.Contains(t, buf.String(), "\n  \"version\": 1,")

	got, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestBuildCopiesPins(t *testing.T) {
	pins := samplePins()
	m := Build(pins, testSize, time.Now())
	pins[0].Title = "changed"
	assert.Equal(t, "Save", m.Pins[0].Title)
}

func TestEncodeEmptyPins(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Build(nil, testSize, time.Now())))
	assert.Contains(t, buf.String(), `"pins": []`)
}

func pinJSON(overrides map[string]string) string {
	fields := map[string]string{
		"id":          `"p1"`,
		"x":           `10`,
		"y":           `20`,
		"title":       `""`,
		"note":        `""`,
		"category":    `"ux"`,
		"perspective": `"user"`,
		"severity":    `"medium"`,
		"colour":      `"#4ea8ff"`,
		"createdAt":   `"2025-03-01T12:00:00.000Z"`,
	}
	for k, v := range overrides {
		fields[k] = v
	}
	var parts []string
	for _, k := range []string{"id", "x", "y", "title", "note", "category", "perspective", "severity", "colour", "createdAt"} {
		if v, ok := fields[k]; ok && v != "-" {
			parts = append(parts, fmt.Sprintf("%q:%s", k, v))
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func doc(pins ...string) string {
	return `{"version":1,"image":{"naturalSize":{"width":800,"height":600}},"pins":[` +
		strings.Join(pins, ",") + `],"exportedAt":"2025-03-01T12:00:00.000Z"}`
}

func TestDecodeAccepts(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "no pins", data: doc()},
		{name: "one pin", data: doc(pinJSON(nil))},
		{name: "pin on the far edge", data: doc(pinJSON(map[string]string{"x": "800", "y": "600"}))},
		{name: "timestamp with offset", data: doc(pinJSON(map[string]string{"createdAt": `"2025-03-01T12:00:00+02:00"`}))},
		{name: "pin beyond the declared size", data: doc(pinJSON(map[string]string{"x": "801", "y": "-1"}))},
		{name: "free-form createdAt", data: doc(pinJSON(map[string]string{"createdAt": `"2025-03-01 12:00:00"`}))},
		{name: "free-form exportedAt", data: strings.Replace(doc(), `"2025-03-01T12:00:00.000Z"`, `"soon"`, 1)},
		{name: "unknown extra property", data: strings.Replace(doc(), `"version":1`, `"version":1,"app":"other"`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.NoError(t, err)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantField string
	}{
		{name: "not JSON", data: `{"version":`, wantField: ""},
		{name: "array document", data: `[]`, wantField: ""},
		{name: "missing version", data: strings.Replace(doc(), `"version":1,`, ``, 1), wantField: "version"},
		{name: "wrong version", data: strings.Replace(doc(), `"version":1`, `"version":2`, 1), wantField: "version"},
		{name: "string version", data: strings.Replace(doc(), `"version":1`, `"version":"1"`, 1), wantField: "version"},
		{name: "pins not an array", data: strings.Replace(doc(), `"pins":[]`, `"pins":{}`, 1), wantField: "pins"},
		{name: "pin not an object", data: doc(`42`), wantField: "pins[0]"},
		{name: "pin without id", data: doc(pinJSON(map[string]string{"id": "-"})), wantField: "pins[0].id"},
		{name: "numeric id", data: doc(pinJSON(map[string]string{"id": "7"})), wantField: "pins[0].id"},
		{name: "duplicate ids", data: doc(pinJSON(nil), pinJSON(nil)), wantField: "pins[1].id"},
		{name: "empty id", data: doc(pinJSON(map[string]string{"id": `""`})), wantField: "pins[0].id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Decode([]byte(tt.data))
			assert.Nil(t, m)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.True(t, IsValidationError(err))
		})
	}
}

// Schema-level failures carry no field path but are still rejections.
func TestDecodeRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "unknown category", data: doc(pinJSON(map[string]string{"category": `"security"`}))},
		{name: "unknown perspective", data: doc(pinJSON(map[string]string{"perspective": `"pm"`}))},
		{name: "unknown severity", data: doc(pinJSON(map[string]string{"severity": `"urgent"`}))},
		{name: "missing colour", data: doc(pinJSON(map[string]string{"colour": "-"}))},
		{name: "string coordinate", data: doc(pinJSON(map[string]string{"x": `"10"`}))},
		{name: "numeric exportedAt", data: strings.Replace(doc(), `"2025-03-01T12:00:00.000Z"`, `0`, 1)},
		{name: "null title", data: doc(pinJSON(map[string]string{"title": "null"}))},
		{name: "missing image", data: `{"version":1,"pins":[],"exportedAt":"2025-03-01T12:00:00Z"}`},
		{name: "negative width", data: strings.Replace(doc(), `"width":800`, `"width":-1`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.True(t, IsValidationError(err), "got %v", err)
		})
	}
}

func TestReadPropagatesValidation(t *testing.T) {
	_, err := Read(strings.NewReader(`{"version":3}`))
	assert.True(t, IsValidationError(err))
}

func TestValidationErrorMessage(t *testing.T) {
	assert.Equal(t, "invalid export: pins[0].x: outside image bounds",
		(&ValidationError{Field: "pins[0].x", Reason: "outside image bounds"}).Error())
	assert.Equal(t, "invalid export: malformed JSON",
		(&ValidationError{Reason: "malformed JSON"}).Error())
}
