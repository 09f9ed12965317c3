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
	"fmt"

	"github.com/oracle/oci-go-sdk/v65/generativeaiinference"

	"docuflow/platform/profiles"
)

// inferenceEndpointFormat is the regional generative AI inference host.
const inferenceEndpointFormat = "https://inference.generativeai.%s.oci.oraclecloud.com"

// InferenceEndpoint derives the managed-inference service endpoint for a
// profile. It returns "" when inference_compartment_id is unset, in which
// case callers should rely on the SDK's default endpoint resolution.
// inference_region takes precedence over the profile region.
func InferenceEndpoint(p *profiles.Profile) string {
	if p.InferenceCompartmentID == "" {
		return ""
	}
	region := p.InferenceRegion
	if region == "" {
		region = p.Region
	}
	if region == "" {
		return ""
	}
	return fmt.Sprintf(inferenceEndpointFormat, region)
}

// InferenceClient builds a generative AI inference client signed by this
// caller, with the profile's endpoint override applied when an inference
// compartment is configured. The chat and embedding pipelines consume this.
func (c *Caller) InferenceClient() (generativeaiinference.GenerativeAiInferenceClient, error) {
	client, err := generativeaiinference.NewGenerativeAiInferenceClientWithConfigurationProvider(c.provider)
	if err != nil {
		return client, &profiles.SignerError{
			Profile:   c.profile.Name,
			Mechanism: c.profile.Mechanism,
			Message:   "failed to build inference client",
			Cause:     err,
		}
	}

	if endpoint := InferenceEndpoint(c.profile); endpoint != "" {
		client.Host = endpoint
	}
	if interceptor := requestInterceptor(c.profile); interceptor != nil {
		client.Interceptor = interceptor
	}

	return client, nil
}
