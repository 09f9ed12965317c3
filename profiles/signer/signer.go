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

// Package signer builds authenticated OCI callers from profiles. It
// dispatches on the profile's mechanism and produces a Caller bound to an
// oci-go-sdk configuration provider plus an object storage client used for
// connectivity probing.
package signer

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/common/auth"
	"github.com/oracle/oci-go-sdk/v65/objectstorage"

	"docuflow/platform/profiles"
)

// Default transport bounds for all outbound calls made through a Caller.
// One unreachable profile must not stall anything beyond these.
const (
	DefaultConnectTimeout = 1 * time.Second
	DefaultTotalTimeout   = 10 * time.Second
)

// Options tunes the HTTP transport of constructed callers.
type Options struct {
	ConnectTimeout time.Duration
	TotalTimeout   time.Duration
}

func (o Options) withDefaults() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.TotalTimeout <= 0 {
		o.TotalTimeout = DefaultTotalTimeout
	}
	return o
}

// Caller is the capability to make signed calls to OCI on behalf of one
// profile.
type Caller struct {
	profile  *profiles.Profile
	provider common.ConfigurationProvider
	storage  objectstorage.ObjectStorageClient
}

// New builds a Caller for the profile with default transport bounds.
func New(p *profiles.Profile) (*Caller, error) {
	return NewWithOptions(p, Options{})
}

// NewWithOptions builds a Caller for the profile, dispatching on its
// declared mechanism. A missing or unreadable mechanism-required field
// yields a *profiles.SignerError and no Caller.
func NewWithOptions(p *profiles.Profile, opts Options) (*Caller, error) {
	opts = opts.withDefaults()

	// Normalize so an absent mechanism gets api_key here too, not only on
	// profiles that came through Validate.
	mech, err := profiles.ParseMechanism(string(p.Mechanism))
	if err != nil {
		return nil, &profiles.SignerError{
			Profile:   p.Name,
			Mechanism: p.Mechanism,
			Message:   "unknown authentication mechanism",
			Cause:     err,
		}
	}

	var provider common.ConfigurationProvider

	switch mech {
	case profiles.MechanismAPIKey:
		provider, err = apiKeyProvider(p)
	case profiles.MechanismInstancePrincipal:
		provider, err = auth.InstancePrincipalConfigurationProvider()
		if err != nil {
			err = &profiles.SignerError{
				Profile:   p.Name,
				Mechanism: p.Mechanism,
				Message:   "instance metadata service unavailable",
				Cause:     err,
			}
		}
	case profiles.MechanismWorkloadIdentity:
		provider, err = auth.OkeWorkloadIdentityConfigurationProvider()
		if err != nil {
			err = &profiles.SignerError{
				Profile:   p.Name,
				Mechanism: p.Mechanism,
				Message:   "workload identity resource principal unavailable",
				Cause:     err,
			}
		}
	case profiles.MechanismSecurityToken:
		provider, err = securityTokenProvider(p)
	}
	if err != nil {
		return nil, err
	}

	storage, err := objectstorage.NewObjectStorageClientWithConfigurationProvider(provider)
	if err != nil {
		return nil, &profiles.SignerError{
			Profile:   p.Name,
			Mechanism: p.Mechanism,
			Message:   "failed to build object storage client",
			Cause:     err,
		}
	}

	storage.HTTPClient = newHTTPClient(opts)
	if interceptor := requestInterceptor(p); interceptor != nil {
		storage.Interceptor = interceptor
	}

	return &Caller{profile: p.Clone(), provider: provider, storage: storage}, nil
}

// apiKeyProvider builds a key-pair configuration provider. Key material may
// be supplied inline or through a file path; at least one is required.
func apiKeyProvider(p *profiles.Profile) (common.ConfigurationProvider, error) {
	pem := p.InlineKeyMaterial
	if pem == "" {
		if p.KeyFilePath == "" {
			return nil, &profiles.SignerError{
				Profile:   p.Name,
				Mechanism: p.Mechanism,
				Message:   "neither inline_key_material nor key_file_path is set",
			}
		}
		data, err := os.ReadFile(p.KeyFilePath)
		if err != nil {
			return nil, &profiles.SignerError{
				Profile:   p.Name,
				Mechanism: p.Mechanism,
				Message:   "cannot read key file " + p.KeyFilePath,
				Cause:     err,
			}
		}
		pem = string(data)
	}

	passphrase := passphrasePtr(p)
	if _, err := common.PrivateKeyFromBytes([]byte(pem), passphrase); err != nil {
		return nil, &profiles.SignerError{
			Profile:   p.Name,
			Mechanism: p.Mechanism,
			Message:   "key material is not a parsable private key",
			Cause:     err,
		}
	}

	return common.NewRawConfigurationProvider(
		p.TenancyID,
		p.PrincipalID,
		p.Region,
		p.KeyFingerprint,
		pem,
		passphrase,
	), nil
}

func passphrasePtr(p *profiles.Profile) *string {
	if p.KeyPassphrase == "" {
		return nil
	}
	passphrase := p.KeyPassphrase
	return &passphrase
}

// FetchNamespace issues the single inexpensive read-only call used for
// connectivity probing: resolving the tenancy's object storage namespace.
func (c *Caller) FetchNamespace(ctx context.Context) (string, error) {
	resp, err := c.storage.GetNamespace(ctx, objectstorage.GetNamespaceRequest{})
	if err != nil {
		return "", err
	}
	if resp.Value == nil {
		return "", nil
	}
	return *resp.Value, nil
}

// Provider exposes the underlying configuration provider for collaborators
// that build their own service clients from this profile.
func (c *Caller) Provider() common.ConfigurationProvider {
	return c.provider
}

// Profile returns the profile this caller was constructed from.
func (c *Caller) Profile() *profiles.Profile {
	return c.profile.Clone()
}

func newHTTPClient(opts Options) *http.Client {
	return &http.Client{
		Timeout: opts.TotalTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: opts.ConnectTimeout,
			}).DialContext,
			TLSHandshakeTimeout: opts.ConnectTimeout,
		},
	}
}

// requestInterceptor applies the profile's operational flags to every
// outbound request: per-request logging and the extra client signature
// token appended to the User-Agent.
func requestInterceptor(p *profiles.Profile) common.RequestInterceptor {
	if !p.RequestLoggingEnabled && p.ExtraClientSignature == "" {
		return nil
	}
	name := p.Name
	logEnabled := p.RequestLoggingEnabled
	signature := strings.TrimSpace(p.ExtraClientSignature)

	return func(r *http.Request) error {
		if signature != "" {
			agent := strings.TrimSpace(r.Header.Get("User-Agent") + " " + signature)
			r.Header.Set("User-Agent", agent)
		}
		if logEnabled {
			log.Printf("[PROFILE_CLIENT] %s: %s %s", name, r.Method, r.URL.Host+r.URL.Path)
		}
		return nil
	}
}
