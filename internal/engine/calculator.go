// Package engine runs a footprint calculation: it routes every activity
// record, fans external estimates out under a concurrency limit, waits for
// all of them to settle and aggregates the results into a Snapshot.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/estimate"
	"github.com/rshade/footprint/internal/greenops"
	"github.com/rshade/footprint/internal/logging"
	"github.com/rshade/footprint/internal/observability"
	"github.com/rshade/footprint/internal/router"
)

// LocalEstimator estimates a record without I/O.
type LocalEstimator interface {
	Estimate(r activity.Record) (float64, error)
}

// ExternalEstimator estimates a record with one external call.
type ExternalEstimator interface {
	Estimate(ctx context.Context, r activity.Record) (float64, error)
}

// Defaults for Calculator options.
const (
	DefaultConcurrency = 4
	DefaultCallTimeout = 10 * time.Second
)

// Calculator turns an activity Input into a Snapshot.
type Calculator struct {
	router      *router.Router
	local       LocalEstimator
	external    ExternalEstimator
	concurrency int
	timeout     time.Duration
	maxRetries  int
	backoff     time.Duration
	now         func() time.Time
	newID       func() string
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithConcurrency bounds the number of in-flight external calls.
func WithConcurrency(n int) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithCallTimeout bounds each external attempt.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Calculator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetry allows up to maxRetries further attempts after a transport
// failure, pausing backoff before each.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(c *Calculator) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if backoff >= 0 {
			c.backoff = backoff
		}
	}
}

// WithClock overrides the snapshot timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		c.now = now
	}
}

// WithIDGenerator overrides snapshot ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(c *Calculator) {
		c.newID = gen
	}
}

// New returns a Calculator. external may be nil when the router never
// selects the external method.
func New(r *router.Router, local LocalEstimator, external ExternalEstimator, opts ...Option) *Calculator {
	c := &Calculator{
		router:      r,
		local:       local,
		external:    external,
		concurrency: DefaultConcurrency,
		timeout:     DefaultCallTimeout,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Router returns the routing table in use.
func (c *Calculator) Router() *router.Router { return c.router }

// Calculate estimates every record of in and aggregates the results.
//
// Per-record failures do not abort the calculation; they are listed in
// Snapshot.Failures. Calculate returns an error only when ctx is canceled,
// in which case no snapshot is produced. A parent deadline instead settles
// the outstanding external records as unreachable.
func (c *Calculator) Calculate(ctx context.Context, in activity.Input) (*Snapshot, error) {
	log := logging.FromContext(ctx)
	start := c.now()

	records := in.Normalize().Records()
	outcomes := make([]Outcome, len(records))

	log.Debug().
		Ctx(ctx).
		Str("component", "engine").
		Str("operation", "calculate").
		Int("record_count", len(records)).
		Msg("starting calculation")

	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for i, rec := range records {
		outcomes[i] = Outcome{Index: i, Record: rec}
		if !activity.IsPositive(rec) {
			observability.RecordEstimation(string(rec.Kind()), "none", observability.OutcomeSkipped)
			continue
		}

		method := c.router.Route(rec)
		outcomes[i].Method = method

		if method == router.MethodLocal {
			kg, err := c.local.Estimate(rec)
			c.settle(ctx, &outcomes[i], kg, err)
			continue
		}

		g.Go(func() error {
			kg, err := c.estimateExternal(ctx, rec)
			c.settle(ctx, &outcomes[i], kg, err)
			return nil
		})
	}
	_ = g.Wait()

	if errors.Is(ctx.Err(), context.Canceled) {
		log.Debug().
			Ctx(ctx).
			Str("component", "engine").
			Msg("calculation canceled by user")
		return nil, context.Canceled
	}

	snap := Aggregate(outcomes)
	snap.ID = c.newID()
	snap.TraceID = logging.TraceIDFromContext(ctx)
	snap.Timestamp = c.now().UTC()

	observability.RecordCalculation(snap.Totals.TotalKg, snap.Partial())
	log.Info().
		Ctx(ctx).
		Str("component", "engine").
		Str("operation", "calculate").
		Str("snapshot_id", snap.ID).
		Float64("total_kg", snap.Totals.TotalKg).
		Int("failed_count", len(snap.Failures)).
		Int64("duration_ms", c.now().Sub(start).Milliseconds()).
		Msg("calculation complete")

	return snap, nil
}

// estimateExternal runs one external estimate with a per-attempt timeout and
// bounded retry of transport failures.
func (c *Calculator) estimateExternal(ctx context.Context, rec activity.Record) (float64, error) {
	if c.external == nil {
		return 0, &estimate.Error{
			Kind:     estimate.KindConfigurationMissing,
			Category: rec.Kind(),
			Key:      rec.Key(),
			Err:      errors.New("no external estimator"),
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if !c.wait(ctx) {
				break
			}
			observability.RecordRetry()
			logging.FromContext(ctx).Debug().
				Ctx(ctx).
				Str("component", "engine").
				Str("category", string(rec.Kind())).
				Int("attempt", attempt+1).
				Msg("retrying external estimate")
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		callStart := time.Now()
		kg, err := c.external.Estimate(callCtx, rec)
		cancel()

		if err == nil {
			observability.ObserveExternalCall(time.Since(callStart), observability.OutcomeOK)
			return kg, nil
		}
		observability.ObserveExternalCall(time.Since(callStart), estimate.KindOf(err).String())
		lastErr = err
		if !estimate.Retryable(err) || ctx.Err() != nil {
			break
		}
	}
	return 0, lastErr
}

func (c *Calculator) wait(ctx context.Context) bool {
	if c.backoff <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(c.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// settle writes the outcome for one slot. Each slot has exactly one writer.
func (c *Calculator) settle(ctx context.Context, o *Outcome, kg float64, err error) {
	category := string(o.Record.Kind())
	if err == nil && !(finite(kg) && finite(o.Record.Quantity())) {
		err = &estimate.Error{
			Kind:     estimate.KindOverflow,
			Category: o.Record.Kind(),
			Key:      o.Record.Key(),
			Err:      fmt.Errorf("estimate is %g kg for %g %s", kg, o.Record.Quantity(), o.Record.Unit()),
		}
	}
	if err == nil {
		o.Result = &Result{
			Index:  o.Index,
			Record: o.Record,
			KgCO2:  greenops.RoundKg(kg),
			Method: o.Method,
		}
		observability.RecordEstimation(category, o.Method.String(), observability.OutcomeOK)
		return
	}

	f := &Failure{
		Index:    o.Index,
		Category: o.Record.Kind(),
		Key:      o.Record.Key(),
		Method:   o.Method,
		Kind:     estimate.KindOf(err),
		Message:  err.Error(),
	}
	var e *estimate.Error
	if errors.As(err, &e) {
		f.Status = e.Status
		f.Payload = e.Payload
	}
	if f.Kind == estimate.KindUnknown {
		f.Kind = estimate.KindConfigurationMissing
	}
	o.Failure = f
	observability.RecordEstimation(category, o.Method.String(), f.Kind.String())

	logging.FromContext(ctx).Warn().
		Ctx(ctx).
		Str("component", "engine").
		Int("index", f.Index).
		Str("category", category).
		Str("key", f.Key).
		Str("kind", f.Kind.String()).
		Err(err).
		Msg("record estimate failed")
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
