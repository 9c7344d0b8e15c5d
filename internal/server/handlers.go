package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aleister1102/faleproxy/internal/common/errorwrapper"
	"github.com/aleister1102/faleproxy/internal/models"
	"github.com/aleister1102/faleproxy/internal/proxy"
	"github.com/rs/zerolog/hlog"
)

// InvalidBodyMessage is returned when POST /fetch carries malformed JSON.
const InvalidBodyMessage = "Invalid request body"

// FetchFailedPrefix starts every 500 error message from POST /fetch.
const FetchFailedPrefix = "Failed to fetch content: "

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBodyBytes)

	req, err := decodeFetchRequest(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		hlog.FromRequest(r).Debug().Err(err).Msg("Rejected malformed request body")
		writeError(w, http.StatusBadRequest, InvalidBodyMessage)
		return
	}

	resp, err := s.service.Fetch(r.Context(), req)
	if err != nil {
		if errors.Is(err, proxy.ErrMissingURL) {
			writeError(w, http.StatusBadRequest, models.MissingURLMessage)
			return
		}
		hlog.FromRequest(r).Error().Err(err).Str("url", req.URL).Msg("Fetch failed")
		writeError(w, http.StatusInternalServerError, FetchFailedPrefix+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// decodeFetchRequest reads exactly one JSON value. An empty body counts as {}
// so it surfaces as a missing URL; anything after the value is an error.
func decodeFetchRequest(body io.Reader) (models.FetchRequest, error) {
	var req models.FetchRequest
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, nil
		}
		return req, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errorwrapper.NewError("unexpected data after request body")
		}
		return req, err
	}
	return req, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}
