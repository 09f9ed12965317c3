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

package signer

import (
	"crypto/rsa"
	"os"
	"strings"

	"github.com/oracle/oci-go-sdk/v65/common"

	"docuflow/platform/profiles"
)

// securityTokenKeyPrefix marks a signing key ID as a session token rather
// than an API key triple. This is the wire convention OCI expects for
// token-based request signatures.
const securityTokenKeyPrefix = "ST$"

// securityTokenProvider reads the short-lived token and its paired private
// key and wraps them in a configuration provider. The token file being
// missing or unreadable is a signer construction failure.
func securityTokenProvider(p *profiles.Profile) (common.ConfigurationProvider, error) {
	if p.SecurityTokenFilePath == "" {
		return nil, &profiles.SignerError{
			Profile:   p.Name,
			Mechanism: p.Mechanism,
			Message:   "security_token_file_path is not set",
		}
	}

	tokenData, err := os.ReadFile(p.SecurityTokenFilePath)
	if err != nil {
		return nil, &profiles.SignerError{
			Profile:   p.Name,
			Mechanism: p.Mechanism,
			Message:   "cannot read security token file " + p.SecurityTokenFilePath,
			Cause:     err,
		}
	}
	token := strings.TrimSpace(string(tokenData))
	if token == "" {
		return nil, &profiles.SignerError{
			Profile:   p.Name,
			Mechanism: p.Mechanism,
			Message:   "security token file " + p.SecurityTokenFilePath + " is empty",
		}
	}

	pem := p.InlineKeyMaterial
	if pem == "" {
		if p.KeyFilePath == "" {
			return nil, &profiles.SignerError{
				Profile:   p.Name,
				Mechanism: p.Mechanism,
				Message:   "security_token requires a paired key via inline_key_material or key_file_path",
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

	key, err := common.PrivateKeyFromBytes([]byte(pem), passphrasePtr(p))
	if err != nil {
		return nil, &profiles.SignerError{
			Profile:   p.Name,
			Mechanism: p.Mechanism,
			Message:   "key material is not a parsable private key",
			Cause:     err,
		}
	}

	return &tokenConfigurationProvider{
		token:       token,
		key:         key,
		tenancy:     p.TenancyID,
		principal:   p.PrincipalID,
		region:      p.Region,
		fingerprint: p.KeyFingerprint,
	}, nil
}

// tokenConfigurationProvider signs requests with a short-lived security
// token plus its paired key instead of a tenancy/user/fingerprint triple.
type tokenConfigurationProvider struct {
	token       string
	key         *rsa.PrivateKey
	tenancy     string
	principal   string
	region      string
	fingerprint string
}

func (t *tokenConfigurationProvider) TenancyOCID() (string, error) {
	return t.tenancy, nil
}

func (t *tokenConfigurationProvider) UserOCID() (string, error) {
	return t.principal, nil
}

func (t *tokenConfigurationProvider) KeyFingerprint() (string, error) {
	return t.fingerprint, nil
}

func (t *tokenConfigurationProvider) Region() (string, error) {
	return t.region, nil
}

func (t *tokenConfigurationProvider) KeyID() (string, error) {
	return securityTokenKeyPrefix + t.token, nil
}

func (t *tokenConfigurationProvider) PrivateRSAKey() (*rsa.PrivateKey, error) {
	return t.key, nil
}

func (t *tokenConfigurationProvider) AuthType() (common.AuthConfig, error) {
	return common.AuthConfig{AuthType: common.UnknownAuthenticationType}, nil
}
