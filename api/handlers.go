// Copyright 2025 DocuFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"docuflow/platform/profiles"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDHeader carries the correlation ID across the platform.
const RequestIDHeader = "X-Request-ID"

// requestIDMiddleware assigns a request ID when the caller did not supply
// one and echoes it back on the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func includeSensitive(r *http.Request) bool {
	return r.URL.Query().Get("include_sensitive") == "true"
}

// healthHandler reports service health and registry size.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"profiles": s.registry.Count(),
	})
}

// listProfilesHandler returns all registered profiles. Unreachable
// profiles are included like any other, carrying live=false and the
// recorded probe detail; the sensitive subset is redacted unless
// include_sensitive=true is passed.
func (s *Server) listProfilesHandler(w http.ResponseWriter, r *http.Request) {
	list := s.registry.List(includeSensitive(r))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": list,
		"total":    len(list),
	})
}

// getProfileHandler returns a single profile by case-insensitive name.
func (s *Server) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	p, err := s.registry.Get(name, includeSensitive(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// createProfileHandler registers a new profile. The signer factory and
// prober run synchronously: a signer construction or validation failure is
// a 422 with nothing inserted, a duplicate name is a 409, and a failed
// probe still creates the profile with live=false so the response tells
// the caller what the probe saw.
func (s *Server) createProfileHandler(w http.ResponseWriter, r *http.Request) {
	var payload profiles.Profile
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Liveness is computed, never accepted from callers.
	payload.Live = false
	payload.ProbeDetail = ""

	created, err := s.registry.Create(r.Context(), &payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(requestID(r), "profile created", map[string]interface{}{
		"profile":   created.Name,
		"mechanism": created.Mechanism,
		"live":      created.Live,
	})
	writeJSON(w, http.StatusCreated, created.Redacted())
}

// updateProfileHandler applies a partial update. A post-patch probe
// failure on a previously live profile rolls the update back (422); on a
// profile already known broken the update is accepted.
func (s *Server) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var patch profiles.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := s.registry.Update(r.Context(), name, &patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(requestID(r), "profile updated", map[string]interface{}{
		"profile": updated.Name,
		"live":    updated.Live,
	})
	writeJSON(w, http.StatusOK, updated.Redacted())
}

// deleteProfileHandler removes a profile unconditionally.
func (s *Server) deleteProfileHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := s.registry.Delete(name); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(requestID(r), "profile deleted", map[string]interface{}{
		"profile": name,
	})
	w.WriteHeader(http.StatusNoContent)
}

// probeProfileHandler re-runs the connectivity probe for one profile on
// demand and returns the refreshed state.
func (s *Server) probeProfileHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	p, err := s.registry.Reprobe(r.Context(), name, includeSensitive(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// writeError maps registry errors onto HTTP status codes:
// NotFound -> 404, Conflict -> 409, validation / signer construction /
// probe regression -> 422, anything else -> 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorWithCode(requestID(r), "unexpected registry error", status, err, nil)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": err.Error(),
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, profiles.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, profiles.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, profiles.ErrProbeRegressed):
		return http.StatusUnprocessableEntity
	}

	var validationErr *profiles.ValidationError
	var signerErr *profiles.SignerError
	if errors.As(err, &validationErr) || errors.As(err, &signerErr) {
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
