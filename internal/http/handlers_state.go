package http

import (
	"net/http"
	"strings"
)

func (s *Server) handleExportState(w http.ResponseWriter, r *http.Request) {
	fd, err := s.svc.State.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Header("Content-Disposition", `attachment; filename="kannadi-export.json"`).
		Payload(fd).
		Write(w)
}

// handleImportState replaces the whole ledger with the uploaded document.
func (s *Server) handleImportState(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, maxStateBytes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.State.Import(r.Context(), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Payload(res).Write(w)
}

func (s *Server) handleClearState(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.State.Clear(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.State.Settings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Payload(settings).Write(w)
}

type onboardRequest struct {
	Currency string `json:"currency"`
}

func (s *Server) handleOnboard(w http.ResponseWriter, r *http.Request) {
	var req onboardRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		writeError(w, r, err)
		return
	}
	settings, err := s.svc.State.Onboard(r.Context(), strings.TrimSpace(req.Currency))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Payload(settings).Write(w)
}
