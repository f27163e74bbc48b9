package web

import (
	"io"
	"net/http"
)

const defaultMaxImageBytes = 50 << 20

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxImageBytes+(1<<20))
	if err := r.ParseMultipartForm(s.opts.MaxImageBytes); err != nil {
		s.writeError(w, r, asBadRequest(err, "failed to parse form"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "image file required")
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("read upload failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	if _, err := s.service.LoadImage(r.Context(), imageData, header.Header.Get("Content-Type")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.sessionView())
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	rc, mimeType, err := s.service.OpenImage(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeWithLog(rc, "image", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Error("failed to stream image", "error", err)
	}
}
