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

package configfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docuflow/platform/profiles"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoad_DefaultInheritance(t *testing.T) {
	path := writeTempConfig(t, `
[DEFAULT]
region = us-1

[alpha]
mechanism = api_key
key_file_path = /k
`)

	sections, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(sections) != 2 {
		t.Fatalf("expected 2 sections (DEFAULT + alpha), got %d", len(sections))
	}
	if sections[0].Name != DefaultSectionName {
		t.Errorf("expected DEFAULT first, got %q", sections[0].Name)
	}

	alpha := sections[1]
	if alpha.Name != "alpha" {
		t.Fatalf("expected section 'alpha', got %q", alpha.Name)
	}
	if alpha.Values["region"] != "us-1" {
		t.Errorf("expected region inherited from DEFAULT, got %q", alpha.Values["region"])
	}
	if alpha.Values["mechanism"] != "api_key" {
		t.Errorf("expected mechanism api_key, got %q", alpha.Values["mechanism"])
	}
	if alpha.Values["key_file_path"] != "/k" {
		t.Errorf("expected key_file_path /k, got %q", alpha.Values["key_file_path"])
	}
}

func TestLoad_ExplicitValueBeatsDefault(t *testing.T) {
	path := writeTempConfig(t, `
[DEFAULT]
region = us-1

[beta]
region = eu-1
`)

	sections, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	for _, sec := range sections {
		if sec.Name == "beta" && sec.Values["region"] != "eu-1" {
			t.Errorf("explicit section value must win over DEFAULT, got %q", sec.Values["region"])
		}
	}
}

func TestLoad_SectionOrderPreserved(t *testing.T) {
	path := writeTempConfig(t, `
[zeta]
region = us-1

[alpha]
region = us-2

[mike]
region = us-3
`)

	sections, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []string{"zeta", "alpha", "mike"}
	if len(sections) != len(want) {
		t.Fatalf("expected %d sections, got %d", len(want), len(sections))
	}
	for i, name := range want {
		if sections[i].Name != name {
			t.Errorf("section %d: expected %q, got %q", i, name, sections[i].Name)
		}
	}
}

func TestLoad_NoDefaultSection(t *testing.T) {
	path := writeTempConfig(t, `
[solo]
region = us-1
`)

	sections, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(sections) != 1 || sections[0].Name != "solo" {
		t.Fatalf("expected only the named section, got %+v", sections)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if !errors.Is(err, profiles.ErrConfigUnavailable) {
		t.Fatalf("expected ErrConfigUnavailable, got %v", err)
	}
}

func TestLoad_Deterministic(t *testing.T) {
	path := writeTempConfig(t, `
[DEFAULT]
region = us-1

[a]
tenancy_id = t1

[b]
tenancy_id = t2
`)

	first, err := Load(path)
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	second, err := Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("loads disagree on section count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Name != second[i].Name {
			t.Errorf("section %d: %q vs %q", i, first[i].Name, second[i].Name)
		}
		for k, v := range first[i].Values {
			if second[i].Values[k] != v {
				t.Errorf("section %q key %q: %q vs %q", first[i].Name, k, v, second[i].Values[k])
			}
		}
	}
}

func TestDefaultPath_EnvOverride(t *testing.T) {
	t.Setenv(EnvConfigFile, "/tmp/custom-oci-config")
	if got := DefaultPath(); got != "/tmp/custom-oci-config" {
		t.Errorf("expected env override to win, got %q", got)
	}
}
