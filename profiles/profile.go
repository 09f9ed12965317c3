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

package profiles

import (
	"strconv"
	"strings"
	"time"
)

// Mechanism is the authentication strategy a profile uses to reach OCI.
type Mechanism string

const (
	MechanismAPIKey            Mechanism = "api_key"
	MechanismInstancePrincipal Mechanism = "instance_principal"
	MechanismWorkloadIdentity  Mechanism = "workload_identity"
	MechanismSecurityToken     Mechanism = "security_token"
)

// DefaultMechanism is assumed when a credential file section does not
// declare one.
const DefaultMechanism = MechanismAPIKey

// ParseMechanism normalizes a raw mechanism string. An empty string maps
// to DefaultMechanism; anything unrecognized is an error.
func ParseMechanism(raw string) (Mechanism, error) {
	switch Mechanism(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return DefaultMechanism, nil
	case MechanismAPIKey:
		return MechanismAPIKey, nil
	case MechanismInstancePrincipal:
		return MechanismInstancePrincipal, nil
	case MechanismWorkloadIdentity:
		return MechanismWorkloadIdentity, nil
	case MechanismSecurityToken:
		return MechanismSecurityToken, nil
	default:
		return "", &ValidationError{
			Field:   "mechanism",
			Value:   raw,
			Message: "unknown authentication mechanism",
		}
	}
}

// Profile is a named bundle of credentials and settings enabling one
// authentication path to OCI.
//
// The wire representation stays flat for compatibility with the credential
// file and the REST layer; which sensitive fields are meaningful depends on
// Mechanism and is enforced by the signer factory, not here.
type Profile struct {
	Name        string    `json:"name"`
	PrincipalID string    `json:"principal_id,omitempty"`
	Mechanism   Mechanism `json:"mechanism"`
	TenancyID   string    `json:"tenancy_id,omitempty"`
	Region      string    `json:"region,omitempty"`

	// Sensitive subset. Never included in redacted serializations.
	KeyFingerprint        string `json:"key_fingerprint,omitempty"`
	InlineKeyMaterial     string `json:"inline_key_material,omitempty"`
	KeyFilePath           string `json:"key_file_path,omitempty"`
	KeyPassphrase         string `json:"key_passphrase,omitempty"`
	SecurityTokenFilePath string `json:"security_token_file_path,omitempty"`

	// Managed-inference overrides. When InferenceCompartmentID is set the
	// signer derives a generative-ai-inference endpoint from InferenceRegion
	// (falling back to Region).
	InferenceCompartmentID string `json:"inference_compartment_id,omitempty"`
	InferenceRegion        string `json:"inference_region,omitempty"`

	RequestLoggingEnabled bool   `json:"request_logging_enabled"`
	ExtraClientSignature  string `json:"extra_client_signature,omitempty"`

	// Live is computed by the connectivity prober, never by callers.
	Live        bool      `json:"live"`
	ProbeDetail string    `json:"probe_detail,omitempty"`
	ProbedAt    time.Time `json:"probed_at,omitzero"`
}

// FoldName returns the case-folded form of a profile name. Profile
// identity, lookup, and deduplication are defined purely on this value.
func FoldName(name string) string {
	return strings.ToLower(name)
}

// Key returns the case-folded registry key for the profile.
func (p *Profile) Key() string {
	return FoldName(p.Name)
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	cp := *p
	return &cp
}

// Redacted returns a copy with the sensitive subset cleared. List and get
// operations serve this form unless the caller explicitly asks for
// sensitive fields.
func (p *Profile) Redacted() *Profile {
	cp := *p
	cp.KeyFingerprint = ""
	cp.InlineKeyMaterial = ""
	cp.KeyFilePath = ""
	cp.KeyPassphrase = ""
	cp.SecurityTokenFilePath = ""
	return &cp
}

// Validate checks structural invariants that hold regardless of mechanism
// and normalizes the mechanism in place, so an absent one becomes
// DefaultMechanism on every input path, not just the credential file.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Message: "profile name is required"}
	}
	mech, err := ParseMechanism(string(p.Mechanism))
	if err != nil {
		return err
	}
	p.Mechanism = mech
	return nil
}

// Credential file keys. These match the flat JSON field names so the file
// and the REST layer share one vocabulary.
const (
	fieldPrincipalID            = "principal_id"
	fieldMechanism              = "mechanism"
	fieldTenancyID              = "tenancy_id"
	fieldRegion                 = "region"
	fieldKeyFingerprint         = "key_fingerprint"
	fieldInlineKeyMaterial      = "inline_key_material"
	fieldKeyFilePath            = "key_file_path"
	fieldKeyPassphrase          = "key_passphrase"
	fieldSecurityTokenFilePath  = "security_token_file_path"
	fieldInferenceCompartmentID = "inference_compartment_id"
	fieldInferenceRegion        = "inference_region"
	fieldRequestLoggingEnabled  = "request_logging_enabled"
	fieldExtraClientSignature   = "extra_client_signature"
)

// FromSection validates and normalizes one raw credential file section into
// a typed Profile. Keys that do not match a known field are ignored so that
// foreign tooling can share the file. Malformed values produce a
// *ValidationError naming the offending field.
func FromSection(name string, values map[string]string) (*Profile, error) {
	p := &Profile{
		Name:      name,
		Mechanism: DefaultMechanism,
	}

	for key, value := range values {
		switch strings.ToLower(key) {
		case fieldPrincipalID:
			p.PrincipalID = value
		case fieldMechanism:
			mech, err := ParseMechanism(value)
			if err != nil {
				return nil, sectionError(name, err)
			}
			p.Mechanism = mech
		case fieldTenancyID:
			p.TenancyID = value
		case fieldRegion:
			p.Region = value
		case fieldKeyFingerprint:
			p.KeyFingerprint = value
		case fieldInlineKeyMaterial:
			p.InlineKeyMaterial = value
		case fieldKeyFilePath:
			p.KeyFilePath = value
		case fieldKeyPassphrase:
			p.KeyPassphrase = value
		case fieldSecurityTokenFilePath:
			p.SecurityTokenFilePath = value
		case fieldInferenceCompartmentID:
			p.InferenceCompartmentID = value
		case fieldInferenceRegion:
			p.InferenceRegion = value
		case fieldRequestLoggingEnabled:
			enabled, err := strconv.ParseBool(strings.TrimSpace(value))
			if err != nil {
				return nil, &ValidationError{
					Section: name,
					Field:   fieldRequestLoggingEnabled,
					Value:   value,
					Message: "not a boolean",
				}
			}
			p.RequestLoggingEnabled = enabled
		case fieldExtraClientSignature:
			p.ExtraClientSignature = value
		}
	}

	if err := p.Validate(); err != nil {
		return nil, sectionError(name, err)
	}

	return p, nil
}

func sectionError(section string, err error) error {
	if verr, ok := err.(*ValidationError); ok && verr.Section == "" {
		cp := *verr
		cp.Section = section
		return &cp
	}
	return err
}

// Patch is a partial field replacement for an update operation. Nil fields
// are left untouched. Name and liveness are deliberately absent: name is
// immutable and liveness belongs to the prober.
type Patch struct {
	PrincipalID            *string    `json:"principal_id,omitempty"`
	Mechanism              *Mechanism `json:"mechanism,omitempty"`
	TenancyID              *string    `json:"tenancy_id,omitempty"`
	Region                 *string    `json:"region,omitempty"`
	KeyFingerprint         *string    `json:"key_fingerprint,omitempty"`
	InlineKeyMaterial      *string    `json:"inline_key_material,omitempty"`
	KeyFilePath            *string    `json:"key_file_path,omitempty"`
	KeyPassphrase          *string    `json:"key_passphrase,omitempty"`
	SecurityTokenFilePath  *string    `json:"security_token_file_path,omitempty"`
	InferenceCompartmentID *string    `json:"inference_compartment_id,omitempty"`
	InferenceRegion        *string    `json:"inference_region,omitempty"`
	RequestLoggingEnabled  *bool      `json:"request_logging_enabled,omitempty"`
	ExtraClientSignature   *string    `json:"extra_client_signature,omitempty"`
}

// ApplyTo overlays the patch onto a profile copy. The caller owns the copy;
// the registry applies patches to a scratch clone so a failed update can be
// discarded without touching stored state.
func (pt *Patch) ApplyTo(p *Profile) error {
	if pt.PrincipalID != nil {
		p.PrincipalID = *pt.PrincipalID
	}
	if pt.Mechanism != nil {
		mech, err := ParseMechanism(string(*pt.Mechanism))
		if err != nil {
			return err
		}
		p.Mechanism = mech
	}
	if pt.TenancyID != nil {
		p.TenancyID = *pt.TenancyID
	}
	if pt.Region != nil {
		p.Region = *pt.Region
	}
	if pt.KeyFingerprint != nil {
		p.KeyFingerprint = *pt.KeyFingerprint
	}
	if pt.InlineKeyMaterial != nil {
		p.InlineKeyMaterial = *pt.InlineKeyMaterial
	}
	if pt.KeyFilePath != nil {
		p.KeyFilePath = *pt.KeyFilePath
	}
	if pt.KeyPassphrase != nil {
		p.KeyPassphrase = *pt.KeyPassphrase
	}
	if pt.SecurityTokenFilePath != nil {
		p.SecurityTokenFilePath = *pt.SecurityTokenFilePath
	}
	if pt.InferenceCompartmentID != nil {
		p.InferenceCompartmentID = *pt.InferenceCompartmentID
	}
	if pt.InferenceRegion != nil {
		p.InferenceRegion = *pt.InferenceRegion
	}
	if pt.RequestLoggingEnabled != nil {
		p.RequestLoggingEnabled = *pt.RequestLoggingEnabled
	}
	if pt.ExtraClientSignature != nil {
		p.ExtraClientSignature = *pt.ExtraClientSignature
	}
	return nil
}
