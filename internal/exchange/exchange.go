// Package exchange implements the versioned export file used to move pin
// annotations between sessions.
package exchange

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/vbonduro/explainui/internal/domain"
)

const (
	Version  = 1
	FileName = "explain-this-ui.json"
)

type ImageInfo struct {
	NaturalSize domain.NaturalSize `json:"naturalSize"`
}

// Model is the export document. It never carries image pixels.
type Model struct {
	Version    int          `json:"version"`
	Image      ImageInfo    `json:"image"`
	Pins       []domain.Pin `json:"pins"`
	ExportedAt string       `json:"exportedAt"`
}

// Build snapshots pins and the natural image size into an export document.
func Build(pins []domain.Pin, size domain.NaturalSize, now time.Time) *Model {
	cp := make([]domain.Pin, len(pins))
	copy(cp, pins)
	return &Model{
		Version:    Version,
		Image:      ImageInfo{NaturalSize: size},
		Pins:       cp,
		ExportedAt: domain.FormatTimestamp(now),
	}
}

// Encode writes m as indented JSON.
func Encode(w io.Writer, m *Model) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// Read decodes and validates an export document from r.
func Read(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	return Decode(data)
}
