package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dhocker/iex-localc/internal/addin"
	"github.com/dhocker/iex-localc/internal/coordinator"
)

// maxBatchBytes limits the size of a batch request body.
const maxBatchBytes = 1 << 20

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"implementation": addin.ImplementationName,
	})
}

// handleFunctions lists the cell functions and their parameters
func (s *Server) handleFunctions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"implementation": addin.ImplementationName,
		"functions":      addin.Functions(),
	})
}

// handleCall evaluates one function. Arguments are taken from the query
// string by parameter name.
func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	fn, ok := addin.Lookup(chi.URLParam(r, "name"))
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown function %s", chi.URLParam(r, "name")))
		return
	}

	query := r.URL.Query()
	args := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		args[i] = query.Get(p.Name)
	}

	value := s.addin.Evaluate(r.Context(), fn.Name, args)

	if query.Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(formatValue(value)))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"function": fn.Name,
		"value":    value,
	})
}

// handleBatch evaluates a JSON array of calls concurrently
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var calls []coordinator.Call
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBytes)).Decode(&calls); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid batch: "+err.Error())
		return
	}

	results, err := s.coordinator.Run(r.Context(), calls)
	if errors.Is(err, coordinator.ErrNoCalls) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

// formatValue renders a cell value as plain text.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
