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

package registry

import (
	"github.com/prometheus/client_golang/prometheus"

	"docuflow/platform/profiles/probe"
)

// Prometheus metrics
var (
	promProfileOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docuflow_profile_registry_operations_total",
			Help: "Total number of profile registry operations",
		},
		[]string{"operation", "status"},
	)
	promProbes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docuflow_profile_probes_total",
			Help: "Total number of profile connectivity probes",
		},
		[]string{"result"},
	)
	promProbeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docuflow_profile_probe_duration_milliseconds",
			Help:    "Connectivity probe duration in milliseconds",
			Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000, 10000},
		},
	)
	promProfilesRegistered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "docuflow_profiles_registered",
			Help: "Number of profiles currently in the registry",
		},
	)
	promProfilesLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "docuflow_profiles_live",
			Help: "Number of registered profiles whose last probe succeeded",
		},
	)
)

func init() {
	// Register Prometheus metrics
	prometheus.MustRegister(promProfileOps)
	prometheus.MustRegister(promProbes)
	prometheus.MustRegister(promProbeDuration)
	prometheus.MustRegister(promProfilesRegistered)
	prometheus.MustRegister(promProfilesLive)
}

func recordOp(operation, status string) {
	promProfileOps.WithLabelValues(operation, status).Inc()
}

func recordProbe(result probe.Result) {
	if result.Live {
		promProbes.WithLabelValues("live").Inc()
	} else {
		promProbes.WithLabelValues("unreachable").Inc()
	}
	promProbeDuration.Observe(float64(result.Latency.Milliseconds()))
}

// updateGaugesLocked refreshes the registry size gauges. Callers must hold
// r.mu.
func (r *Registry) updateGaugesLocked() {
	live := 0
	for _, p := range r.profiles {
		if p.Live {
			live++
		}
	}
	promProfilesRegistered.Set(float64(len(r.profiles)))
	promProfilesLive.Set(float64(live))
}
