package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/neilotoole/errgroup"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"

	"github.com/ava-labs/crank/x/programs/program"
)

const tracerName = "crank/runtime"

// Runtime is the host programs are registered with. It validates
// invocations, routes them to handlers and records the outcome.
type Runtime struct {
	log    logging.Logger
	config *Config

	registry   *registry
	ledger     Ledger
	registerer prometheus.Registerer
	metrics    *metrics
	tracer     trace.Tracer

	seq atomic.Uint64

	subLock     sync.RWMutex
	nextSubID   uint64
	subscribers map[uint64]func(*Receipt)

	// signed receipt ids between the replay check and the ledger write
	inflightLock sync.Mutex
	inflight     map[string]struct{}
}

func New(log logging.Logger, cfg *Config, opts ...Option) (*Runtime, error) {
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	r := &Runtime{
		log:         log,
		config:      cfg,
		registry:    newRegistry(),
		ledger:      NewMemoryLedger(),
		registerer:  prometheus.NewRegistry(),
		tracer:      trace.NewNoopTracerProvider().Tracer(tracerName),
		subscribers: map[uint64]func(*Receipt){},
		inflight:    map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(r)
	}
	m, err := newMetrics(r.registerer)
	if err != nil {
		return nil, err
	}
	r.metrics = m
	return r, nil
}

// Register adds [p] to the dispatch table. Registration happens once, before
// the runtime serves invocations.
func (r *Runtime) Register(p program.Program) error {
	if err := r.registry.register(p); err != nil {
		return err
	}
	e, _ := r.registry.lookup(p.ID())
	r.log.Info("registered program",
		zap.String("name", p.Name()),
		zap.String("id", program.FormatID(p.ID())),
		zap.Strings("instructions", e.names()),
	)
	return nil
}

func (r *Runtime) Programs() []program.Program {
	return r.registry.list()
}

func (r *Runtime) Lookup(id ids.ID) (program.Program, bool) {
	e, ok := r.registry.lookup(id)
	if !ok {
		return nil, false
	}
	return e.program, true
}

func (r *Runtime) Ledger() Ledger {
	return r.ledger
}

// Subscribe registers [f] to be called with every recorded receipt. The
// returned function removes the subscription.
func (r *Runtime) Subscribe(f func(*Receipt)) func() {
	r.subLock.Lock()
	defer r.subLock.Unlock()

	id := r.nextSubID
	r.nextSubID++
	r.subscribers[id] = f
	return func() {
		r.subLock.Lock()
		defer r.subLock.Unlock()

		delete(r.subscribers, id)
	}
}

// publish calls subscribers outside of the lock so they may unsubscribe.
func (r *Runtime) publish(receipt *Receipt) {
	r.subLock.RLock()
	subscribers := maps.Values(r.subscribers)
	r.subLock.RUnlock()

	for _, f := range subscribers {
		f(receipt)
	}
}

// reserve claims [id] until the returned release is called. A claimed or
// already recorded id is rejected with ErrAlreadyProcessed.
func (r *Runtime) reserve(ctx context.Context, id string) (func(), error) {
	r.inflightLock.Lock()
	if _, ok := r.inflight[id]; ok {
		r.inflightLock.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyProcessed, id)
	}
	r.inflight[id] = struct{}{}
	r.inflightLock.Unlock()

	release := func() {
		r.inflightLock.Lock()
		delete(r.inflight, id)
		r.inflightLock.Unlock()
	}
	processed, err := r.ledger.Has(ctx, id)
	if err != nil {
		release()
		return nil, err
	}
	if processed {
		release()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyProcessed, id)
	}
	return release, nil
}

// Invoke dispatches [tx] to its program. Invocations rejected before
// dispatch return a nil receipt. Once the handler is reached a receipt is
// always recorded; a handler failure is returned alongside it.
func (r *Runtime) Invoke(ctx context.Context, tx *Transaction) (*Receipt, error) {
	ctx, span := r.tracer.Start(ctx, "Runtime.Invoke",
		trace.WithAttributes(
			attribute.String("program", program.FormatID(tx.ProgramID)),
			attribute.Int("accounts", len(tx.Accounts)),
		),
	)
	defer span.End()

	receipt, err := r.invoke(ctx, tx)
	switch {
	case receipt == nil:
		r.metrics.rejections.WithLabelValues(rejectionReason(err)).Inc()
		r.log.Debug("rejected invocation",
			zap.String("program", program.FormatID(tx.ProgramID)),
			zap.Error(err),
		)
	default:
		outcome := "success"
		if !receipt.Success {
			outcome = "failed"
		}
		r.metrics.invocations.WithLabelValues(receipt.ProgramID, receipt.Instruction, outcome).Inc()
		r.metrics.computeUnits.Observe(float64(receipt.ComputeUnits))
		span.SetAttributes(
			attribute.String("receipt", receipt.ID),
			attribute.Int64("computeUnits", int64(receipt.ComputeUnits)),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return receipt, err
}

func (r *Runtime) invoke(ctx context.Context, tx *Transaction) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := r.registry.lookup(tx.ProgramID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProgramNotFound, program.FormatID(tx.ProgramID))
	}
	if declared := e.program.ID(); declared != tx.ProgramID {
		return nil, fmt.Errorf("%w: %s", program.ErrDeclaredProgramIDMismatch, program.FormatID(declared))
	}

	limit := r.config.ComputeUnitLimit
	if tx.ComputeUnitLimit != 0 {
		limit = tx.ComputeUnitLimit
	}
	if limit > r.config.MaxComputeUnitLimit {
		return nil, fmt.Errorf("%w: %d > %d", ErrComputeUnitLimitTooHigh, limit, r.config.MaxComputeUnitLimit)
	}

	msg, err := tx.Message()
	if err != nil {
		return nil, err
	}
	if err := tx.VerifySignatures(msg); err != nil {
		return nil, err
	}
	id := receiptID(tx, msg, r.seq.Add(1))
	if len(tx.Signatures) > 0 {
		release, err := r.reserve(ctx, id)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	selector, argData, err := program.SplitSelector(tx.Data)
	if err != nil {
		return nil, err
	}
	ix, ok := e.instructions[selector]
	if !ok {
		return nil, fmt.Errorf("%w: selector %s", program.ErrInstructionFallbackNotFound, selector)
	}
	if err := ix.ValidateAccounts(tx.Accounts); err != nil {
		return nil, err
	}
	args, err := ix.DecodeArgs(argData)
	if err != nil {
		return nil, err
	}

	programID := program.FormatID(tx.ProgramID)
	call := program.NewCallContext(tx.ProgramID, tx.Caller(), tx.Accounts, limit)
	t := newTranscript(programID)
	execErr := call.Consume(r.config.BaseInvokeCost)
	if execErr == nil {
		execErr = ix.Execute(ctx, call, args)
	}

	receipt := &Receipt{
		ID:           id,
		ProgramID:    programID,
		Instruction:  ix.Name,
		Logs:         t.finish(call, limit, execErr),
		ProgramLogs:  append([]string{}, call.Logs()...),
		ComputeUnits: limit - call.Gas,
		Success:      execErr == nil,
		Timestamp:    time.Now().UnixMilli(),
	}
	if execErr != nil {
		receipt.Error = execErr.Error()
	}
	if err := r.ledger.Put(ctx, receipt); err != nil {
		return nil, err
	}
	r.publish(receipt)

	r.log.Debug("dispatched invocation",
		zap.String("id", receipt.ID),
		zap.String("program", programID),
		zap.String("instruction", ix.Name),
		zap.Uint64("computeUnits", receipt.ComputeUnits),
		zap.Bool("success", receipt.Success),
	)
	if execErr != nil {
		return receipt, fmt.Errorf("%w: %w", ErrProgramFailed, execErr)
	}
	return receipt, nil
}

// InvokeBatch dispatches independent transactions with bounded parallelism.
// Receipts are returned in input order. The first error cancels invocations
// that have not started yet.
func (r *Runtime) InvokeBatch(ctx context.Context, txs []*Transaction) ([]*Receipt, error) {
	receipts := make([]*Receipt, len(txs))
	g, gctx := errgroup.WithContextN(ctx, r.config.MaxParallelism, r.config.BatchQueueSize)
	for i, tx := range txs {
		i, tx := i, tx
		g.Go(func() error {
			receipt, err := r.Invoke(gctx, tx)
			receipts[i] = receipt
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return receipts, err
	}
	return receipts, nil
}

// IsRejection reports whether [err] was raised by the host before the
// handler ran.
func IsRejection(err error) bool {
	return err != nil && !errors.Is(err, ErrProgramFailed)
}
