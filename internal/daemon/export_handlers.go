package daemon

import (
	"fmt"
	"net/http"
	"strconv"

	"slidecast/internal/export"
	"slidecast/internal/logging"
)

func (s *apiServer) handleExportHTML(w http.ResponseWriter, r *http.Request, id int64) {
	snapshot, err := s.daemon.GetDeck(r.Context(), id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	html, err := export.RenderHTML(snapshot)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", attachmentDisposition(snapshot.Title, "html"))
	w.Header().Set("Content-Length", strconv.Itoa(len(html)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(html); err != nil {
		s.log().Warn("html export write failed",
			logging.Int64(logging.FieldDeckID, id),
			logging.Error(err))
	}
}

func (s *apiServer) handleExportPDF(w http.ResponseWriter, r *http.Request, id int64) {
	snapshot, err := s.daemon.GetDeck(r.Context(), id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	pdf, err := s.renderer.RenderDeck(r.Context(), snapshot)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachmentDisposition(snapshot.Title, "pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		s.log().Warn("pdf export write failed",
			logging.Int64(logging.FieldDeckID, id),
			logging.Error(err))
	}
}

func attachmentDisposition(title, ext string) string {
	return fmt.Sprintf("attachment; filename=%q", export.SafeFilename(title)+"."+ext)
}
