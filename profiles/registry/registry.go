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

// Package registry holds the process-wide collection of authentication
// profiles, keyed by case-folded name. It owns all mutation paths and runs
// the signer factory plus connectivity prober synchronously on every
// create and update.
package registry

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"docuflow/platform/profiles"
	"docuflow/platform/profiles/configfile"
	"docuflow/platform/profiles/probe"
)

// SignerFactory produces the caller capability for a profile. It is
// injected so the registry stays testable without OCI credentials.
type SignerFactory func(p *profiles.Profile) (probe.Target, error)

// Prober performs one bounded connectivity check.
type Prober interface {
	Check(ctx context.Context, target probe.Target) probe.Result
}

// DefaultProbeConcurrency bounds the startup probe fan-out. Probes are
// independent and I/O-bound; insertion stays serialized regardless.
const DefaultProbeConcurrency = 4

// Registry manages all known profiles for the lifetime of the process.
// Thread-safe for concurrent access; read-modify-write sequences are
// serialized under a single mutual-exclusion boundary.
type Registry struct {
	profiles         map[string]*profiles.Profile
	factory          SignerFactory
	prober           Prober
	probeConcurrency int
	mu               sync.RWMutex
	logger           *log.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithProbeConcurrency sets the maximum number of concurrent startup probes.
func WithProbeConcurrency(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.probeConcurrency = n
		}
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates an empty registry wired to the given signer factory and
// prober.
func New(factory SignerFactory, prober Prober, opts ...Option) *Registry {
	r := &Registry{
		profiles:         make(map[string]*profiles.Profile),
		factory:          factory,
		prober:           prober,
		probeConcurrency: DefaultProbeConcurrency,
		logger:           log.New(os.Stdout, "[PROFILE_REGISTRY] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SkippedSection records one credential file section dropped during bulk
// load, with the validation cause.
type SkippedSection struct {
	Section string `json:"section"`
	Reason  string `json:"reason"`
}

// LoadReport summarizes one bulk load.
type LoadReport struct {
	Loaded  int              `json:"loaded"`
	Live    int              `json:"live"`
	Skipped []SkippedSection `json:"skipped,omitempty"`
}

// LoadAll bulk-inserts profiles parsed from credential file sections.
// Sections that fail validation are skipped; nothing aborts the load.
// Probes run as a bounded fan-out, but insertion follows section order so
// that duplicate names resolve last-processed-wins.
func (r *Registry) LoadAll(ctx context.Context, sections []configfile.Section) *LoadReport {
	report := &LoadReport{}

	ordered := make([]*profiles.Profile, 0, len(sections))
	for _, section := range sections {
		// A DEFAULT section without identity fields of its own only exists
		// to donate values to the named sections; it is not a profile.
		if section.Name == configfile.DefaultSectionName && !section.DeclaresIdentity() {
			r.logger.Printf("Section %s carries no identity fields: fallback only", section.Name)
			continue
		}
		p, err := profiles.FromSection(section.Name, section.Values)
		if err != nil {
			r.logger.Printf("Skipping section '%s': %v", section.Name, err)
			report.Skipped = append(report.Skipped, SkippedSection{
				Section: section.Name,
				Reason:  err.Error(),
			})
			continue
		}
		ordered = append(ordered, p)
	}

	// Fan out the probes; each one is individually time-bounded so a slow
	// profile cannot delay the readiness of the others.
	var wg sync.WaitGroup
	sem := make(chan struct{}, r.probeConcurrency)
	for _, p := range ordered {
		wg.Add(1)
		sem <- struct{}{}
		go func(p *profiles.Profile) {
			defer wg.Done()
			defer func() { <-sem }()
			r.stamp(ctx, p)
		}(p)
	}
	wg.Wait()

	r.mu.Lock()
	for _, p := range ordered {
		if _, exists := r.profiles[p.Key()]; exists {
			r.logger.Printf("Duplicate profile '%s': last processed section wins", p.Name)
		}
		r.profiles[p.Key()] = p
	}
	// Report distinct names after dedup, not insert attempts.
	seen := make(map[string]bool, len(ordered))
	for _, p := range ordered {
		if seen[p.Key()] {
			continue
		}
		seen[p.Key()] = true
		report.Loaded++
		if r.profiles[p.Key()].Live {
			report.Live++
		}
	}
	r.updateGaugesLocked()
	r.mu.Unlock()

	r.logger.Printf("Loaded %d profile(s) (%d live, %d section(s) skipped)",
		report.Loaded, report.Live, len(report.Skipped))

	return report
}

// stamp runs the signer factory and prober for a profile and records the
// liveness outcome on it. At load time a signer failure is data, not a
// rejection: the profile is kept with live=false and the cause.
func (r *Registry) stamp(ctx context.Context, p *profiles.Profile) {
	caller, err := r.factory(p)
	if err != nil {
		p.Live = false
		p.ProbeDetail = err.Error()
		p.ProbedAt = time.Now()
		recordProbe(probe.Result{Live: false})
		return
	}

	result := r.prober.Check(ctx, caller)
	p.Live = result.Live
	p.ProbeDetail = result.Detail
	p.ProbedAt = result.CheckedAt
	recordProbe(result)
}

// List returns all profiles sorted by case-folded name. The sensitive
// subset is redacted unless includeSensitive is set. Unreachable profiles
// are listed like any other, carrying live=false and the recorded detail.
func (r *Registry) List(includeSensitive bool) []*profiles.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*profiles.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, r.view(p, includeSensitive))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Get returns one profile by case-insensitive name.
func (r *Registry) Get(name string, includeSensitive bool) (*profiles.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.profiles[profiles.FoldName(name)]
	if !exists {
		return nil, fmt.Errorf("%w: %s", profiles.ErrNotFound, name)
	}
	return r.view(p, includeSensitive), nil
}

// Create validates and inserts a new profile. The signer factory and
// prober run synchronously before the insert is accepted: a signer
// construction failure rejects the create with nothing inserted, while a
// failed probe still inserts the profile (live=false) so that platforms
// reachable later can be registered up front.
func (r *Registry) Create(ctx context.Context, p *profiles.Profile) (*profiles.Profile, error) {
	if err := p.Validate(); err != nil {
		recordOp("create", "invalid")
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := p.Key()
	if _, exists := r.profiles[key]; exists {
		recordOp("create", "conflict")
		return nil, fmt.Errorf("%w: %s", profiles.ErrConflict, p.Name)
	}

	stored := p.Clone()
	caller, err := r.factory(stored)
	if err != nil {
		recordOp("create", "signer_failed")
		return nil, err
	}

	result := r.prober.Check(ctx, caller)
	stored.Live = result.Live
	stored.ProbeDetail = result.Detail
	stored.ProbedAt = result.CheckedAt
	recordProbe(result)

	r.profiles[key] = stored
	r.updateGaugesLocked()
	recordOp("create", "ok")
	r.logger.Printf("Created profile '%s' (mechanism: %s, live: %t)",
		stored.Name, stored.Mechanism, stored.Live)

	return stored.Clone(), nil
}

// Update applies a partial patch to an existing profile. The patch is
// applied to a scratch copy and the signer factory plus prober re-run
// before anything is stored.
//
// The rollback rule is deliberately asymmetric: a profile known to work
// must not be silently broken by an edit, so a failed post-patch probe on
// a live profile discards the scratch copy and returns ErrProbeRegressed.
// A profile already known broken has nothing to lose, so the same failure
// is accepted there.
func (r *Registry) Update(ctx context.Context, name string, patch *profiles.Patch) (*profiles.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.profiles[profiles.FoldName(name)]
	if !exists {
		recordOp("update", "not_found")
		return nil, fmt.Errorf("%w: %s", profiles.ErrNotFound, name)
	}

	scratch := existing.Clone()
	if err := patch.ApplyTo(scratch); err != nil {
		recordOp("update", "invalid")
		return nil, err
	}

	caller, err := r.factory(scratch)
	if err != nil {
		recordOp("update", "signer_failed")
		return nil, err
	}

	result := r.prober.Check(ctx, caller)
	recordProbe(result)

	if existing.Live && !result.Live {
		recordOp("update", "probe_regressed")
		r.logger.Printf("Rolled back update to profile '%s': %s", existing.Name, result.Detail)
		return nil, fmt.Errorf("%w: %s", profiles.ErrProbeRegressed, result.Detail)
	}

	scratch.Live = result.Live
	scratch.ProbeDetail = result.Detail
	scratch.ProbedAt = result.CheckedAt

	r.profiles[scratch.Key()] = scratch
	r.updateGaugesLocked()
	recordOp("update", "ok")
	r.logger.Printf("Updated profile '%s' (live: %t)", scratch.Name, scratch.Live)

	return scratch.Clone(), nil
}

// Delete removes a profile unconditionally.
func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := profiles.FoldName(name)
	p, exists := r.profiles[key]
	if !exists {
		recordOp("delete", "not_found")
		return fmt.Errorf("%w: %s", profiles.ErrNotFound, name)
	}

	delete(r.profiles, key)
	r.updateGaugesLocked()
	recordOp("delete", "ok")
	r.logger.Printf("Deleted profile '%s'", p.Name)

	return nil
}

// Reprobe re-runs the signer factory and prober for one stored profile and
// records the fresh liveness outcome. The registry never schedules this
// itself; periodic re-probing is an external caller's concern. The
// sensitive subset is redacted from the returned profile unless
// includeSensitive is set, matching Get and List.
func (r *Registry) Reprobe(ctx context.Context, name string, includeSensitive bool) (*profiles.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.profiles[profiles.FoldName(name)]
	if !exists {
		recordOp("reprobe", "not_found")
		return nil, fmt.Errorf("%w: %s", profiles.ErrNotFound, name)
	}

	r.stamp(ctx, p)
	r.updateGaugesLocked()
	recordOp("reprobe", "ok")

	return r.view(p, includeSensitive), nil
}

// Count returns the number of registered profiles.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}

func (r *Registry) view(p *profiles.Profile, includeSensitive bool) *profiles.Profile {
	if includeSensitive {
		return p.Clone()
	}
	return p.Redacted()
}
