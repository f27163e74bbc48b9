package web

import (
	"net/http"

	"github.com/vbonduro/explainui/internal/annotate"
	"github.com/vbonduro/explainui/internal/domain"
)

const maxJSONBody = 1 << 20

type catalogView struct {
	Categories   []domain.CatalogEntry[domain.Category]    `json:"categories"`
	Perspectives []domain.CatalogEntry[domain.Perspective] `json:"perspectives"`
	Severities   []domain.CatalogEntry[domain.Severity]    `json:"severities"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, catalogView{
		Categories:   domain.Categories,
		Perspectives: domain.Perspectives,
		Severities:   domain.Severities,
	})
}

// pinView is a pin with its display number.
type pinView struct {
	domain.Pin
	Number   int  `json:"number"`
	Selected bool `json:"selected"`
}

type imageView struct {
	URL         string             `json:"url"`
	NaturalSize domain.NaturalSize `json:"naturalSize"`
}

type sessionView struct {
	Image             *imageView         `json:"image"`
	NaturalSize       domain.NaturalSize `json:"naturalSize"`
	Pins              []pinView          `json:"pins"`
	SelectedPinID     *string            `json:"selectedPinId"`
	ActiveCategory    domain.Category    `json:"activeCategory"`
	ActivePerspective domain.Perspective `json:"activePerspective"`
	Zoom              float64            `json:"zoom"`
	Pan               domain.Point       `json:"pan"`
	State             annotate.State     `json:"state"`
}

func (s *Server) sessionView() sessionView {
	editor := s.service.Editor()
	snap := editor.Snapshot()

	v := sessionView{
		NaturalSize:       snap.NaturalSize,
		Pins:              make([]pinView, 0, len(snap.Pins)),
		ActiveCategory:    snap.ActiveCategory,
		ActivePerspective: snap.ActivePerspective,
		Zoom:              snap.Zoom,
		Pan:               snap.Pan,
		State:             editor.State(),
	}
	if h := editor.Image(); h != nil {
		v.Image = &imageView{URL: "/api/image", NaturalSize: h.Size()}
	}
	if sel := snap.SelectedPin(); sel != nil {
		v.SelectedPinID = &sel.ID
	}
	for _, p := range snap.Pins {
		v.Pins = append(v.Pins, pinView{
			Pin:      p,
			Number:   snap.PinNumber(p.ID),
			Selected: p.ID == snap.SelectedPinID,
		})
	}
	return v
}

func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sessionView())
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Editor().Clear(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView())
}

func (s *Server) handleResetView(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Editor().ResetView(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView())
}

type activeRequest struct {
	Category    *domain.Category    `json:"category"`
	Perspective *domain.Perspective `json:"perspective"`
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Category != nil && !req.Category.Valid() {
		writeMessage(w, http.StatusBadRequest, "unknown category")
		return
	}
	if req.Perspective != nil && !req.Perspective.Valid() {
		writeMessage(w, http.StatusBadRequest, "unknown perspective")
		return
	}

	editor := s.service.Editor()
	if req.Category != nil {
		if err := editor.SetActiveCategory(r.Context(), *req.Category); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if req.Perspective != nil {
		if err := editor.SetActivePerspective(r.Context(), *req.Perspective); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.sessionView())
}
