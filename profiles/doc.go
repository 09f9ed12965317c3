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

/*
Package profiles defines the typed model for OCI authentication profiles
in the DocuFlow platform, plus the error taxonomy shared by the credential
file loader, the signer factory, and the registry.

# Overview

A Profile is a named bundle of credentials and settings enabling one
authentication path to Oracle Cloud Infrastructure. Profiles are discovered
from an ini-style credential file at startup (see the configfile subpackage)
or created at runtime through the registry, and exist only for the lifetime
of the process.

# Mechanisms

Four authentication mechanisms are supported:

	api_key             key pair + fingerprint + tenancy (default)
	instance_principal  identity from the compute instance metadata service
	workload_identity   identity from an OKE workload resource principal
	security_token      short-lived token file + paired private key

Which sensitive fields are meaningful depends on the mechanism. The model
keeps the wire representation flat for compatibility; the signer subpackage
enforces that the fields matching the declared mechanism are present.

# Liveness

Profile.Live is never set by callers. It is stamped exclusively by the
connectivity prober (probe subpackage), together with a failure detail
string when the profile is unreachable. An unreachable profile is an
expected steady-state condition, not an error.
*/
package profiles
