package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/explainui/internal/domain"
)

func (s *Server) handleUpdatePin(w http.ResponseWriter, r *http.Request) {
	var patch domain.PinPatch
	if err := decodeBody(r, &patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pin, err := s.service.Editor().UpdatePin(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if pin == nil {
		writeMessage(w, http.StatusNotFound, "pin not found")
		return
	}
	writeJSON(w, http.StatusOK, pin)
}

// handleUpdateSelectedPin patches whichever pin is selected. With no
// selection nothing changes and the body is null.
func (s *Server) handleUpdateSelectedPin(w http.ResponseWriter, r *http.Request) {
	var patch domain.PinPatch
	if err := decodeBody(r, &patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pin, err := s.service.Editor().UpdateSelectedPin(r.Context(), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pin)
}

func (s *Server) handleDeletePin(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.service.Editor().DeletePin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !deleted {
		writeMessage(w, http.StatusNotFound, "pin not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type selectionRequest struct {
	ID *string `json:"id"`
}

func (s *Server) handleSelectPin(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := ""
	if req.ID != nil {
		id = *req.ID
	}

	if err := s.service.Editor().SelectPin(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView())
}

func (s *Server) handleDraftNote(w http.ResponseWriter, r *http.Request) {
	pin, err := s.service.DraftNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pin)
}
