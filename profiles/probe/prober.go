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

// Package probe performs single-shot, time-bounded connectivity checks for
// profiles. Failure is data, not an exception: an unreachable profile is an
// expected steady-state condition, so Check never returns an error.
package probe

import (
	"context"
	"time"
)

// Target is the minimal caller capability a probe needs: one inexpensive,
// idempotent read-only call.
type Target interface {
	FetchNamespace(ctx context.Context) (string, error)
}

// Result is the outcome of one connectivity check.
type Result struct {
	Live      bool          `json:"live"`
	Detail    string        `json:"detail,omitempty"`
	Latency   time.Duration `json:"latency"`
	CheckedAt time.Time     `json:"checked_at"`
}

// DefaultTotalTimeout bounds one probe end to end. The caller's transport
// applies its own shorter connect timeout underneath.
const DefaultTotalTimeout = 10 * time.Second

// Prober issues liveness probes. The zero value is not usable; construct
// with New.
type Prober struct {
	totalTimeout time.Duration
}

// New creates a Prober with the default total timeout.
func New() *Prober {
	return NewWithTimeout(DefaultTotalTimeout)
}

// NewWithTimeout creates a Prober bounding each check by totalTimeout.
func NewWithTimeout(totalTimeout time.Duration) *Prober {
	if totalTimeout <= 0 {
		totalTimeout = DefaultTotalTimeout
	}
	return &Prober{totalTimeout: totalTimeout}
}

// Check issues exactly one namespace fetch through the target. There is no
// retry; scheduling re-probes is the caller's responsibility. Any failure
// (timeout, auth rejection, network error) is recorded as Live=false with
// the stringified cause.
func (p *Prober) Check(ctx context.Context, target Target) Result {
	ctx, cancel := context.WithTimeout(ctx, p.totalTimeout)
	defer cancel()

	start := time.Now()
	_, err := target.FetchNamespace(ctx)
	result := Result{
		Latency:   time.Since(start),
		CheckedAt: time.Now(),
	}

	if err != nil {
		result.Detail = err.Error()
		return result
	}

	result.Live = true
	return result
}
