// Copyright 2025 DocuFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads runtime settings for the profile registry service
// from a YAML file with environment variable expansion. The profile set
// itself is deliberately excluded from settings persistence: the credential
// file and runtime CRUD calls remain its sole sources of truth.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds service-level configuration. Zero fields fall back to the
// documented defaults.
type Settings struct {
	Port                  string   `yaml:"port"`
	CORSAllowedOrigins    []string `yaml:"cors_allowed_origins"`
	CredentialFile        string   `yaml:"credential_file"`
	ProbeConnectTimeoutMs int      `yaml:"probe_connect_timeout_ms"`
	ProbeTotalTimeoutMs   int      `yaml:"probe_total_timeout_ms"`
	ProbeConcurrency      int      `yaml:"probe_concurrency"`
}

// Default returns the settings used when no config file is present.
func Default() Settings {
	return Settings{
		Port:                  "8084",
		CORSAllowedOrigins:    []string{"*"},
		ProbeConnectTimeoutMs: 1000,
		ProbeTotalTimeoutMs:   10000,
		ProbeConcurrency:      4,
	}
}

// Load reads settings from a YAML file, expanding ${VAR} and
// ${VAR:-default} references. A missing file is not an error; defaults
// apply. A present but malformed file is.
func Load(path string) (Settings, error) {
	settings := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &settings); err != nil {
		return Default(), fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	settings.applyDefaults()
	return settings, nil
}

func (s *Settings) applyDefaults() {
	defaults := Default()
	if s.Port == "" {
		s.Port = defaults.Port
	}
	if len(s.CORSAllowedOrigins) == 0 {
		s.CORSAllowedOrigins = defaults.CORSAllowedOrigins
	}
	if s.ProbeConnectTimeoutMs <= 0 {
		s.ProbeConnectTimeoutMs = defaults.ProbeConnectTimeoutMs
	}
	if s.ProbeTotalTimeoutMs <= 0 {
		s.ProbeTotalTimeoutMs = defaults.ProbeTotalTimeoutMs
	}
	if s.ProbeConcurrency <= 0 {
		s.ProbeConcurrency = defaults.ProbeConcurrency
	}
}

// ProbeConnectTimeout returns the probe connect bound as a duration.
func (s Settings) ProbeConnectTimeout() time.Duration {
	return time.Duration(s.ProbeConnectTimeoutMs) * time.Millisecond
}

// ProbeTotalTimeout returns the probe total bound as a duration.
func (s Settings) ProbeTotalTimeout() time.Duration {
	return time.Duration(s.ProbeTotalTimeoutMs) * time.Millisecond
}

// envVarRegex matches ${VAR_NAME} or $VAR_NAME patterns
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands environment variable references in the string.
// Supports ${VAR_NAME}, $VAR_NAME and ${VAR_NAME:-default} syntax; undefined
// variables without a default expand to the empty string.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		defaultVal := ""
		if idx := strings.Index(varName, ":-"); idx != -1 {
			defaultVal = varName[idx+2:]
			varName = varName[:idx]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultVal
	})
}
