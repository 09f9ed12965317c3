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

// Package api exposes the profile registry over HTTP. It is the narrow
// collaborator boundary the dashboard and the rest of the platform consume;
// all registry semantics live below it.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"docuflow/platform/config"
	"docuflow/platform/profiles"
	"docuflow/platform/profiles/configfile"
	"docuflow/platform/profiles/probe"
	"docuflow/platform/profiles/registry"
	"docuflow/platform/profiles/signer"
	"docuflow/platform/shared/logger"
)

// Server wires the profile registry to its HTTP handlers.
type Server struct {
	registry *registry.Registry
	logger   *logger.Logger
}

// NewServer creates an HTTP server facade over a registry.
func NewServer(reg *registry.Registry) *Server {
	return &Server{
		registry: reg,
		logger:   logger.New("profile-api"),
	}
}

// Router builds the HTTP handler tree with CORS and request-ID middleware.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware)

	// Health check
	r.HandleFunc("/health", s.healthHandler).Methods("GET")

	// Metrics endpoint (Prometheus native format)
	r.Handle("/prometheus", promhttp.Handler()).Methods("GET")

	// Profile CRUD
	r.HandleFunc("/api/v1/profiles", s.listProfilesHandler).Methods("GET")
	r.HandleFunc("/api/v1/profiles", s.createProfileHandler).Methods("POST")
	r.HandleFunc("/api/v1/profiles/{name}", s.getProfileHandler).Methods("GET")
	r.HandleFunc("/api/v1/profiles/{name}", s.updateProfileHandler).Methods("PUT")
	r.HandleFunc("/api/v1/profiles/{name}", s.deleteProfileHandler).Methods("DELETE")

	// On-demand re-probe; periodic scheduling belongs to external callers
	r.HandleFunc("/api/v1/profiles/{name}/probe", s.probeProfileHandler).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(r)
}

// Run is the exported entry point for the profile registry service.
//
// It loads runtime settings, reads the credential file (a missing file
// degrades to zero profiles, never a startup abort), bulk-loads and probes
// all discovered profiles, and serves the HTTP API. Blocks until shutdown.
//
// Environment variables used:
//   - PORT: HTTP server port (overrides settings)
//   - DOCUFLOW_CONFIG: runtime settings file (default: docuflow.yaml)
//   - OCI_CONFIG_FILE: credential file override (default: ~/.oci/config)
func Run() {
	log.Println("Starting DocuFlow Profile Registry...")

	settingsPath := getEnv("DOCUFLOW_CONFIG", "docuflow.yaml")
	settings, err := config.Load(settingsPath)
	if err != nil {
		log.Printf("Failed to load settings from %s: %v. Using defaults.", settingsPath, err)
		settings = config.Default()
	}

	signerOpts := signer.Options{
		ConnectTimeout: settings.ProbeConnectTimeout(),
		TotalTimeout:   settings.ProbeTotalTimeout(),
	}
	factory := func(p *profiles.Profile) (probe.Target, error) {
		caller, err := signer.NewWithOptions(p, signerOpts)
		if err != nil {
			return nil, err
		}
		return caller, nil
	}
	prober := probe.NewWithTimeout(settings.ProbeTotalTimeout())

	reg := registry.New(factory, prober,
		registry.WithProbeConcurrency(settings.ProbeConcurrency))

	credPath := settings.CredentialFile
	if credPath == "" {
		credPath = configfile.DefaultPath()
	}
	sections, err := configfile.Load(credPath)
	if err != nil {
		if errors.Is(err, profiles.ErrConfigUnavailable) {
			log.Printf("Credential file %s unavailable: starting with zero profiles", credPath)
		} else {
			log.Printf("Failed to read credential file %s: %v", credPath, err)
		}
	} else {
		reg.LoadAll(context.Background(), sections)
	}

	server := NewServer(reg)
	handler := server.Router(settings.CORSAllowedOrigins)

	port := getEnv("PORT", settings.Port)
	log.Printf("DocuFlow Profile Registry listening on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
