// Package metrics exposes prometheus counters for proof generation and
// verification outcomes.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeValid     = "valid"
	OutcomeInvalid   = "invalid"
	OutcomeMalformed = "malformed"
	OutcomeOK        = "ok"
	OutcomeError     = "error"
)

var (
	// Registry holds every sigma collector.
	Registry = prometheus.NewRegistry()

	// ProveCounter counts prove calls per protocol and outcome (ok, error).
	ProveCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sigma_prove_total",
		Help: "Number of proofs generated, by protocol and outcome",
	}, []string{"protocol", "outcome"})
	// VerifyCounter counts verify calls per protocol and outcome (valid,
	// invalid, malformed).
	VerifyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sigma_verify_total",
		Help: "Number of proofs verified, by protocol and outcome",
	}, []string{"protocol", "outcome"})
	// ChallengeDecodeFailures counts prove attempts aborted because the
	// challenge did not decode into the protocol's domain.
	ChallengeDecodeFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sigma_challenge_decode_failures_total",
		Help: "Number of prove attempts whose challenge was rejected by the protocol decoder",
	}, []string{"protocol"})

	bindOnce sync.Once
)

func bindMetrics() {
	bindOnce.Do(func() {
		for _, c := range []prometheus.Collector{ProveCounter, VerifyCounter, ChallengeDecodeFailures} {
			Registry.MustRegister(c)
		}
	})
}

//nolint:gochecknoinits
func init() {
	bindMetrics()
}

// Proved records the outcome of a prove call.
func Proved(protocol string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	ProveCounter.WithLabelValues(protocol, outcome).Inc()
}

// Verified records the outcome of a verify call.
func Verified(protocol, outcome string) {
	VerifyCounter.WithLabelValues(protocol, outcome).Inc()
}

// ChallengeRejected records a challenge decoding failure.
func ChallengeRejected(protocol string) {
	ChallengeDecodeFailures.WithLabelValues(protocol).Inc()
}
