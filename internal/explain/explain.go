// Package explain drafts pin titles and notes from a crop of the screenshot
// around the pin.
package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/vbonduro/explainui/internal/domain"
)

type Request struct {
	Image       []byte
	MimeType    string
	Perspective domain.Perspective
	Category    domain.Category
	Title       string
}

type Draft struct {
	Title string
	Note  string
	Raw   string
}

type Drafter interface {
	Draft(ctx context.Context, req Request) (*Draft, error)
}

var perspectiveVoice = map[domain.Perspective]string{
	domain.PerspectiveUser:          "an end user who wants to know what this control does and when to use it",
	domain.PerspectiveDeveloper:     "a developer who needs to know what state or behaviour sits behind this element",
	domain.PerspectiveAccessibility: "an accessibility reviewer checking labels, contrast, focus and screen reader output",
}

// Prompt builds the instruction sent with the cropped screenshot. The pin
// sits at the centre of the crop.
func Prompt(req Request) string {
	var b strings.Builder
	b.WriteString("The image is a crop of an application screenshot. ")
	b.WriteString("Explain the UI element at the centre of the image for ")
	b.WriteString(perspectiveVoice[req.Perspective])
	b.WriteString(".\n")
	fmt.Fprintf(&b, "Focus on %s aspects.\n", strings.ToLower(req.Category.Label()))
	if req.Title != "" {
		fmt.Fprintf(&b, "The annotator already titled it %q.\n", req.Title)
	}
	b.WriteString("Respond with exactly two lines:\n")
	b.WriteString("Title: <a short name for the element, at most six words>\n")
	b.WriteString("Note: <two or three sentences>")
	return b.String()
}

// ParseResponse extracts the Title and Note lines from a model reply. Text
// that follows the Note line is folded into the note; a reply without
// labels becomes the note as a whole.
func ParseResponse(raw string) *Draft {
	d := &Draft{Raw: raw}
	var note []string
	inNote := false

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if v, ok := cutLabel(line, "title:"); ok {
			d.Title = strings.Trim(v, `"`)
			inNote = false
			continue
		}
		if v, ok := cutLabel(line, "note:"); ok {
			note = append(note, v)
			inNote = true
			continue
		}
		if inNote {
			note = append(note, line)
		}
	}

	if d.Title == "" && len(note) == 0 {
		d.Note = strings.TrimSpace(raw)
		return d
	}
	d.Note = strings.Join(note, " ")
	return d
}

func cutLabel(line, label string) (string, bool) {
	line = strings.TrimLeft(line, "*- ")
	if len(line) < len(label) || !strings.EqualFold(line[:len(label)], label) {
		return "", false
	}
	return strings.TrimSpace(strings.Trim(line[len(label):], "* ")), true
}
