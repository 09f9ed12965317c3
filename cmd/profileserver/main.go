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

// Package main is the entry point for the DocuFlow profile registry
// service.
//
// The service discovers OCI authentication profiles from the credential
// file, verifies connectivity for each, and exposes CRUD management over
// HTTP for the dashboard and the rest of the platform:
// - Discovers profiles from an ini-style credential file (DEFAULT inheritance)
// - Builds a signed caller per profile (api_key, instance_principal,
//   workload_identity, security_token)
// - Probes each profile once with bounded timeouts and records liveness
// - Serves list/get/create/update/delete with rollback on probe regression
//
// Usage:
//
//	./profileserver
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8084)
//	DOCUFLOW_CONFIG - runtime settings file (default: docuflow.yaml)
//	OCI_CONFIG_FILE - credential file override (default: ~/.oci/config)
package main

import (
	"docuflow/platform/api"
)

func main() {
	api.Run()
}
