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

// Package configfile reads the ini-style OCI credential file into raw
// per-profile key/value sections, applying DEFAULT-section inheritance.
package configfile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"

	"docuflow/platform/profiles"
)

// DefaultSectionName is the fallback section every named section inherits
// unset keys from. It is also a profile in its own right when populated.
const DefaultSectionName = "DEFAULT"

// EnvConfigFile overrides the credential file location when set.
const EnvConfigFile = "OCI_CONFIG_FILE"

// Section is one raw credential file section after DEFAULT inheritance.
type Section struct {
	Name   string
	Values map[string]string
}

// DefaultPath returns the credential file location: the EnvConfigFile
// override when set, otherwise ~/.oci/config.
func DefaultPath() string {
	if path := os.Getenv(EnvConfigFile); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".oci", "config")
	}
	return filepath.Join(home, ".oci", "config")
}

// Load parses the credential file at path and returns one Section per file
// section in file order, DEFAULT first when present. Named sections inherit
// every key they do not set from DEFAULT.
//
// A missing or unreadable file returns an error wrapping
// profiles.ErrConfigUnavailable; callers must degrade to zero profiles
// rather than abort. Reading the same file twice yields the same sequence.
func Load(path string) ([]Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", profiles.ErrConfigUnavailable, path, err)
	}

	file, err := ini.LoadSources(ini.LoadOptions{}, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", profiles.ErrConfigUnavailable, path, err)
	}

	defaults := file.Section(DefaultSectionName).KeysHash()

	var sections []Section
	for _, sec := range file.Sections() {
		if sec.Name() == DefaultSectionName {
			// Only surface DEFAULT as a profile when it carries keys;
			// ini.v1 materializes an empty DEFAULT for every file.
			if len(defaults) == 0 {
				continue
			}
			sections = append(sections, Section{
				Name:   sec.Name(),
				Values: copyValues(defaults),
			})
			continue
		}

		merged := copyValues(defaults)
		for key, value := range sec.KeysHash() {
			merged[key] = value
		}
		sections = append(sections, Section{Name: sec.Name(), Values: merged})
	}

	return sections, nil
}

// identityKeys make a section a profile in its own right rather than a
// pure fallback block. A DEFAULT section carrying none of these only
// exists to donate values to the named sections.
var identityKeys = []string{
	"mechanism",
	"principal_id",
	"tenancy_id",
	"key_fingerprint",
	"inline_key_material",
	"key_file_path",
	"security_token_file_path",
}

// DeclaresIdentity reports whether the section sets any field that ties it
// to an authentication identity of its own.
func (s Section) DeclaresIdentity() bool {
	for _, key := range identityKeys {
		if _, ok := s.Values[key]; ok {
			return true
		}
	}
	return false
}

func copyValues(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
