package runtime

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/crank/x/programs/program"
)

const namespace = "crank_runtime"

type metrics struct {
	invocations  *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	computeUnits prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations",
			Help:      "number of dispatched invocations",
		}, []string{"program", "instruction", "outcome"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections",
			Help:      "number of invocations rejected before dispatch",
		}, []string{"reason"}),
		computeUnits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_units",
			Help:      "compute units consumed per dispatched invocation",
			Buckets:   prometheus.ExponentialBuckets(1_000, 2, 11),
		}),
	}
	return m, errors.Join(
		reg.Register(m.invocations),
		reg.Register(m.rejections),
		reg.Register(m.computeUnits),
	)
}

var rejectionReasons = []struct {
	err    error
	reason string
}{
	{ErrProgramNotFound, "program_not_found"},
	{program.ErrDeclaredProgramIDMismatch, "declared_id_mismatch"},
	{ErrSignatureCountMismatch, "signature_count"},
	{ErrInvalidSignature, "invalid_signature"},
	{ErrAlreadyProcessed, "already_processed"},
	{ErrComputeUnitLimitTooHigh, "compute_limit"},
	{ErrTooManyAccounts, "too_many_accounts"},
	{program.ErrInstructionMissing, "instruction_missing"},
	{program.ErrInstructionFallbackNotFound, "unknown_instruction"},
	{program.ErrAccountCountMismatch, "account_count"},
	{program.ErrAccountNotSigner, "account_not_signer"},
	{program.ErrAccountNotMutable, "account_not_mutable"},
	{program.ErrInstructionDidNotDeserialize, "bad_arguments"},
}

func rejectionReason(err error) string {
	for _, r := range rejectionReasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "other"
}
