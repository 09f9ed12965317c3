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

import "errors"

// Sentinel errors for registry and loader outcomes. Callers match them with
// errors.Is; the REST layer maps them to status codes.
var (
	// ErrNotFound is returned when an operation targets an unknown profile name.
	ErrNotFound = errors.New("profile not found")

	// ErrConflict is returned when a create collides with an existing name.
	ErrConflict = errors.New("profile already exists")

	// ErrProbeRegressed is returned when an update to a previously live
	// profile fails its post-patch probe and is rolled back.
	ErrProbeRegressed = errors.New("update rejected: connectivity probe regressed")

	// ErrConfigUnavailable is returned when the credential file is missing
	// or unreadable. Callers treat it as "zero profiles discovered", never
	// as a startup abort.
	ErrConfigUnavailable = errors.New("credential file unavailable")
)

// ValidationError reports a malformed field in a credential file section or
// a mutation payload. During bulk load it skips the offending section only.
type ValidationError struct {
	Section string
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	msg := "invalid profile"
	if e.Section != "" {
		msg += " '" + e.Section + "'"
	}
	if e.Field != "" {
		msg += ": field '" + e.Field + "'"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Value != "" {
		msg += " (got " + e.Value + ")"
	}
	return msg
}

// SignerError reports that a caller could not be constructed for a profile,
// typically because a field required by the declared mechanism is missing
// or unreadable. A mutating operation that hits one is rejected with the
// profile untouched.
type SignerError struct {
	Profile   string
	Mechanism Mechanism
	Message   string
	Cause     error
}

func (e *SignerError) Error() string {
	msg := "signer construction failed for profile '" + e.Profile + "' (" + string(e.Mechanism) + "): " + e.Message
	if e.Cause != nil {
		msg += " (cause: " + e.Cause.Error() + ")"
	}
	return msg
}

func (e *SignerError) Unwrap() error {
	return e.Cause
}
