package web

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/breachwatch/hibp-relay/internal/metrics"
	"github.com/breachwatch/hibp-relay/internal/models"
)

func (s *Server) handleObserve(w http.ResponseWriter, r *http.Request) {
	observables, apiErr := models.DecodeObservables(r.Body)
	if apiErr != nil {
		respondErrors(w, "observe", apiErr, nil)
		return
	}

	key, apiErr := s.keys.KeyFromRequest(r)
	if apiErr != nil {
		respondErrors(w, "observe", apiErr, nil)
		return
	}

	data, apiErr := s.enricher.Observe(r.Context(), key, observables)
	if apiErr != nil {
		// The partial bundle still carries everything mapped before the
		// abort, so hand it to the caller alongside the error.
		var partial any
		if len(data) > 0 {
			partial = data
		}
		respondErrors(w, "observe", apiErr, partial)
		return
	}

	respondData(w, "observe", data)
}

func (s *Server) handleDeliberate(w http.ResponseWriter, r *http.Request) {
	if _, apiErr := models.DecodeObservables(r.Body); apiErr != nil {
		respondErrors(w, "deliberate", apiErr, nil)
		return
	}

	respondData(w, "deliberate", s.enricher.Deliberate())
}

func (s *Server) handleRefer(w http.ResponseWriter, r *http.Request) {
	observables, apiErr := models.DecodeObservables(r.Body)
	if apiErr != nil {
		respondErrors(w, "refer", apiErr, nil)
		return
	}

	respondData(w, "refer", s.enricher.Refer(observables))
}

// handleHealth checks that the configured secret decodes the caller's token
// and that the resulting HIBP key is accepted upstream, using a truncated
// lookup of the test email.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	key, apiErr := s.keys.KeyFromRequest(r)
	if apiErr != nil {
		respondErrors(w, "health", apiErr, nil)
		return
	}

	if _, apiErr := s.fetcher.FetchBreaches(r.Context(), key, s.config.HIBP.TestEmail, true); apiErr != nil {
		respondErrors(w, "health", apiErr, nil)
		return
	}

	respondData(w, "health", map[string]any{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"version": Version})
}

func respondData(w http.ResponseWriter, route string, data any) {
	metrics.RequestsTotal.WithLabelValues(route, "data").Inc()
	writeJSON(w, map[string]any{"data": data})
}

func respondErrors(w http.ResponseWriter, route string, apiErr *models.APIError, data any) {
	metrics.RequestsTotal.WithLabelValues(route, "errors").Inc()

	payload := map[string]any{"errors": []*models.APIError{apiErr}}
	if data != nil {
		payload["data"] = data
	}
	log.Printf("request failed: %v", apiErr)

	writeJSON(w, payload)
}

// Envelope responses always ride on HTTP 200; failures live in the body.
func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encoding response: %v", err)
	}
}
