package web

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/vbonduro/explainui/internal/exchange"
)

const maxImportBody = 8 << 20

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	m := s.service.Editor().Export()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exchange.FileName))
	if err := exchange.Encode(w, m); err != nil {
		s.logger.Error("export failed", "error", err)
	}
}

type importResponse struct {
	Pins         int         `json:"pins"`
	SizeMismatch bool        `json:"sizeMismatch"`
	Warning      string      `json:"warning,omitempty"`
	Session      sessionView `json:"session"`
}

// handleImport accepts the export document either as the raw request body
// or as the multipart field "file".
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBody+(1<<20))

	var body io.Reader = r.Body
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxImportBody); err != nil {
			s.writeError(w, r, asBadRequest(err, "failed to parse form"))
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "file required")
			return
		}
		defer closeWithLog(file, "import file", s.logger)
		body = file
	}

	res, err := s.service.Import(r.Context(), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := importResponse{Pins: res.Pins, SizeMismatch: res.SizeMismatch, Session: s.sessionView()}
	if res.SizeMismatch {
		resp.Warning = fmt.Sprintf("pins were placed on a %gx%g image; the loaded image is %gx%g",
			res.ImportedSize.Width, res.ImportedSize.Height, res.ImageSize.Width, res.ImageSize.Height)
	}
	writeJSON(w, http.StatusOK, resp)
}
