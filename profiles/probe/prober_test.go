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

package probe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeTarget implements Target for testing
type fakeTarget struct {
	namespace string
	err       error
	delay     time.Duration
	calls     int
}

func (f *fakeTarget) FetchNamespace(ctx context.Context) (string, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.namespace, nil
}

func TestCheck_Success(t *testing.T) {
	prober := New()
	target := &fakeTarget{namespace: "docuflow-ns"}

	result := prober.Check(context.Background(), target)

	if !result.Live {
		t.Error("expected live result")
	}
	if result.Detail != "" {
		t.Errorf("expected empty detail on success, got %q", result.Detail)
	}
	if result.CheckedAt.IsZero() {
		t.Error("expected CheckedAt to be stamped")
	}
}

func TestCheck_FailureIsDataNotError(t *testing.T) {
	prober := New()
	target := &fakeTarget{err: errors.New("401 NotAuthenticated")}

	result := prober.Check(context.Background(), target)

	if result.Live {
		t.Error("expected unreachable result")
	}
	if !strings.Contains(result.Detail, "NotAuthenticated") {
		t.Errorf("expected stringified cause in detail, got %q", result.Detail)
	}
}

func TestCheck_Timeout(t *testing.T) {
	prober := NewWithTimeout(50 * time.Millisecond)
	target := &fakeTarget{namespace: "ns", delay: 5 * time.Second}

	start := time.Now()
	result := prober.Check(context.Background(), target)
	elapsed := time.Since(start)

	if result.Live {
		t.Error("expected unreachable result on timeout")
	}
	if result.Detail == "" {
		t.Error("expected timeout cause in detail")
	}
	if elapsed > 2*time.Second {
		t.Errorf("probe should be bounded by its timeout, took %v", elapsed)
	}
}

func TestCheck_SingleAttempt(t *testing.T) {
	prober := New()
	target := &fakeTarget{err: errors.New("connection refused")}

	prober.Check(context.Background(), target)

	if target.calls != 1 {
		t.Errorf("expected exactly one attempt, got %d", target.calls)
	}
}

func TestCheck_RespectsParentContext(t *testing.T) {
	prober := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := &fakeTarget{namespace: "ns", delay: time.Second}
	result := prober.Check(ctx, target)

	if result.Live {
		t.Error("expected unreachable result under cancelled context")
	}
}
