package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/engine"
	"github.com/rshade/footprint/internal/estimate"
	"github.com/rshade/footprint/internal/router"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// capability answers quantity × perUnit, or fails for quantities listed in
// failFor.
type capability struct {
	perUnit   float64
	failFor   map[float64]error
	failFirst int32
	block     bool

	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (c *capability) Estimate(ctx context.Context, req estimate.Request) (estimate.Response, error) {
	n := c.calls.Add(1)
	cur := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		seen := c.maxSeen.Load()
		if cur <= seen || c.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}

	if c.block {
		<-ctx.Done()
		return estimate.Response{}, ctx.Err()
	}
	if n <= c.failFirst {
		return estimate.Response{}, estimate.NewError(estimate.KindUnreachable, 0, "", errors.New("connection reset"))
	}
	if err, ok := c.failFor[req.Quantity]; ok {
		return estimate.Response{}, err
	}
	time.Sleep(2 * time.Millisecond)
	return estimate.Response{KgCO2e: req.Quantity * c.perUnit}, nil
}

type setup struct {
	routing    config.RoutingConfig
	capability estimate.Capability
	opts       []engine.Option
}

func newCalculator(tb testing.TB, s setup) *engine.Calculator {
	tb.Helper()
	if s.routing.UnconfiguredPolicy == "" && s.routing.ExternalModes == nil {
		s.routing = config.Default().Routing
	}
	adapter := estimate.NewAdapter(s.capability, estimate.AdapterConfig{})
	r, err := router.New(
		router.WithConfig(s.routing),
		router.WithCatalog(adapter),
		router.WithCapability(adapter.Configured()),
	)
	require.NoError(tb, err)

	opts := append([]engine.Option{
		engine.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
		engine.WithIDGenerator(func() string { return "snap-1" }),
	}, s.opts...)
	return engine.New(r, estimate.NewLocal(nil), adapter, opts...)
}

func TestCarWithoutCredentialUsesLocalPolicy(t *testing.T) {
	calc := newCalculator(t, setup{})

	snap, err := calc.Calculate(context.Background(), activity.Input{
		Trips: []activity.Trip{{Mode: activity.ModeCar, Distance: 100}},
	})
	require.NoError(t, err)

	require.Len(t, snap.Details.Trips, 1)
	assert.Equal(t, router.MethodLocal, snap.Details.Trips[0].Method)
	assert.InDelta(t, 25.538, snap.Totals.TravelKg, 1e-9)
	assert.InDelta(t, 25.538, snap.Totals.TotalKg, 1e-9)
	assert.False(t, snap.Partial())
	assert.Equal(t, "snap-1", snap.ID)
}

func TestCarWithoutCredentialFailPolicy(t *testing.T) {
	routing := config.Default().Routing
	routing.UnconfiguredPolicy = config.PolicyFail
	calc := newCalculator(t, setup{routing: routing})

	snap, err := calc.Calculate(context.Background(), activity.Input{
		Trips: []activity.Trip{{Mode: activity.ModeCar, Distance: 100}, {Mode: activity.ModeBus, Distance: 10}},
	})
	require.NoError(t, err)

	require.Len(t, snap.Failures, 1)
	assert.Equal(t, estimate.KindConfigurationMissing, snap.Failures[0].Kind)
	assert.Equal(t, 0, snap.Failures[0].Index)
	assert.Equal(t, router.MethodExternal, snap.Failures[0].Method)
	require.Len(t, snap.Details.Trips, 1)
	assert.Equal(t, activity.ModeBus, snap.Details.Trips[0].Mode)
	assert.InDelta(t, 1.05, snap.Totals.TravelKg, 1e-9)
	assert.True(t, snap.Partial())
}

func TestLocalScenarios(t *testing.T) {
	tests := []struct {
		name  string
		input activity.Input
		want  engine.Totals
	}{
		{
			name:  "electricity 30 kWh",
			input: activity.Input{Electricity: activity.ElectricityUsage{Amount: 30}},
			want:  engine.Totals{ElectricityKg: 11.55, TotalKg: 11.55},
		},
		{
			name: "groceries and dining",
			input: activity.Input{Expenses: []activity.Expense{
				{Category: activity.ExpenseGroceries, Amount: 50},
				{Category: activity.ExpenseDining, Amount: 20},
				{Category: activity.ExpenseApparel, Amount: 0},
			}},
			want: engine.Totals{ExpenseKg: 5.0, TotalKg: 5.0},
		},
		{
			name:  "three vegan meals",
			input: activity.Input{Meals: []activity.Meal{{DietType: activity.DietVegan, Count: 3}}},
			want:  engine.Totals{ExpenseKg: 8.7, MealKg: 8.7, TotalKg: 8.7},
		},
		{
			name:  "empty input",
			input: activity.Input{},
			want:  engine.Totals{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := newCalculator(t, setup{})
			snap, err := calc.Calculate(context.Background(), tt.input)
			require.NoError(t, err)
			assert.InDelta(t, tt.want.TravelKg, snap.Totals.TravelKg, 1e-9)
			assert.InDelta(t, tt.want.ElectricityKg, snap.Totals.ElectricityKg, 1e-9)
			assert.InDelta(t, tt.want.ExpenseKg, snap.Totals.ExpenseKg, 1e-9)
			assert.InDelta(t, tt.want.MealKg, snap.Totals.MealKg, 1e-9)
			assert.InDelta(t, tt.want.TotalKg, snap.Totals.TotalKg, 1e-9)
			assert.Empty(t, snap.Failures)
		})
	}
}

func TestExpenseDetailsExcludeNonPositive(t *testing.T) {
	calc := newCalculator(t, setup{})
	snap, err := calc.Calculate(context.Background(), activity.Input{Expenses: []activity.Expense{
		{Category: activity.ExpenseGroceries, Amount: 50, Description: "market"},
		{Category: activity.ExpenseApparel, Amount: -3},
		{Category: activity.ExpenseDining, Amount: 20},
	}})
	require.NoError(t, err)

	// Electricity occupies index 0 (no trips), so expenses start at 1.
	want := []engine.ExpenseDetail{
		{Index: 1, Category: activity.ExpenseGroceries, Amount: 50, Description: "market", Kg: 3},
		{Index: 3, Category: activity.ExpenseDining, Amount: 20, Kg: 2},
	}
	if diff := cmp.Diff(want, snap.Details.Expenses); diff != "" {
		t.Errorf("expense details mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, snap.Details.Electricity)
}

func TestExternalSuccess(t *testing.T) {
	fake := &capability{perUnit: 0.2}
	calc := newCalculator(t, setup{capability: fake})

	snap, err := calc.Calculate(context.Background(), activity.Input{
		Trips:       []activity.Trip{{Mode: activity.ModeCar, Distance: 10}, {Mode: activity.ModeTrain, Distance: 10}},
		Electricity: activity.ElectricityUsage{Amount: 5, GridRegion: "GB"},
	})
	require.NoError(t, err)

	require.Len(t, snap.Details.Trips, 2)
	assert.Equal(t, router.MethodExternal, snap.Details.Trips[0].Method)
	assert.InDelta(t, 2.0, snap.Details.Trips[0].Kg, 1e-9)
	assert.Equal(t, router.MethodLocal, snap.Details.Trips[1].Method)
	assert.InDelta(t, 0.41, snap.Details.Trips[1].Kg, 1e-9)

	require.NotNil(t, snap.Details.Electricity)
	assert.Equal(t, router.MethodExternal, snap.Details.Electricity.Method)
	assert.Equal(t, "gb", snap.Details.Electricity.GridRegion)
	assert.InDelta(t, 1.0, snap.Totals.ElectricityKg, 1e-9)
	assert.InDelta(t, 3.41, snap.Totals.TotalKg, 1e-9)
	assert.Equal(t, int32(2), fake.calls.Load())
}

func TestPartialFailure(t *testing.T) {
	fake := &capability{
		perUnit: 1,
		failFor: map[float64]error{
			30: estimate.NewError(estimate.KindUnreachable, 0, "", errors.New("dial tcp: i/o timeout")),
		},
	}
	calc := newCalculator(t, setup{capability: fake})

	trips := []activity.Trip{
		{Mode: activity.ModeCar, Distance: 10},
		{Mode: activity.ModeCar, Distance: 20},
		{Mode: activity.ModeCar, Distance: 30},
		{Mode: activity.ModeCar, Distance: 40},
	}
	snap, err := calc.Calculate(context.Background(), activity.Input{Trips: trips})
	require.NoError(t, err)

	require.Len(t, snap.Details.Trips, 3)
	for _, d := range snap.Details.Trips {
		assert.NotEqual(t, 2, d.Index)
		assert.InDelta(t, d.DistanceKm, d.Kg, 1e-9)
	}
	require.Len(t, snap.Failures, 1)
	assert.Equal(t, 2, snap.Failures[0].Index)
	assert.Equal(t, estimate.KindUnreachable, snap.Failures[0].Kind)
	assert.InDelta(t, 70.0, snap.Totals.TravelKg, 1e-9)
}

func TestUpstreamRejectionKeepsDiagnostics(t *testing.T) {
	fake := &capability{failFor: map[float64]error{
		5: estimate.NewError(estimate.KindUpstreamRejected, 400, `{"error":"bad activity"}`, errors.New("bad request")),
	}}
	calc := newCalculator(t, setup{capability: fake})

	snap, err := calc.Calculate(context.Background(), activity.Input{
		Trips: []activity.Trip{{Mode: activity.ModeCar, Distance: 5}},
	})
	require.NoError(t, err)
	require.Len(t, snap.Failures, 1)
	assert.Equal(t, 400, snap.Failures[0].Status)
	assert.Contains(t, snap.Failures[0].Payload, "bad activity")
	assert.Zero(t, snap.Totals.TotalKg)
	assert.Empty(t, snap.Details.Trips)
}

func TestAggregationIsOrderIndependent(t *testing.T) {
	fake := &capability{perUnit: 0.1234567}
	base := []activity.Trip{
		{Mode: activity.ModeCar, Distance: 13.7},
		{Mode: activity.ModeBus, Distance: 4.2},
		{Mode: activity.ModeTrain, Distance: 88.1},
		{Mode: activity.ModeFlightShort, Distance: 512},
		{Mode: activity.ModeCar, Distance: 0.3, DistanceUnit: activity.UnitMile},
		{Mode: activity.ModeElectricCar, Distance: 41},
		{Mode: activity.ModeWalk, Distance: 2},
	}
	expenses := []activity.Expense{
		{Category: activity.ExpenseElectronics, Amount: 199.99},
		{Category: activity.ExpenseGroceries, Amount: 72.15},
		{Category: activity.ExpenseOther, Amount: 3.33},
	}

	calc := newCalculator(t, setup{capability: fake})
	want, err := calc.Calculate(context.Background(), activity.Input{Trips: base, Expenses: expenses})
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 2))
	for range 20 {
		trips := append([]activity.Trip(nil), base...)
		rng.Shuffle(len(trips), func(i, j int) { trips[i], trips[j] = trips[j], trips[i] })
		exp := append([]activity.Expense(nil), expenses...)
		rng.Shuffle(len(exp), func(i, j int) { exp[i], exp[j] = exp[j], exp[i] })

		got, err := calc.Calculate(context.Background(), activity.Input{Trips: trips, Expenses: exp})
		require.NoError(t, err)
		assert.Equal(t, want.Totals, got.Totals)
	}
}

func TestAggregateDirect(t *testing.T) {
	outcomes := []engine.Outcome{
		{Index: 2, Record: activity.Expense{Category: activity.ExpenseDining, Amount: 20},
			Result: &engine.Result{Index: 2, KgCO2: 2}},
		{Index: 0, Record: activity.Trip{Mode: activity.ModeBus, Distance: 100},
			Result: &engine.Result{Index: 0, KgCO2: 10.5}},
		{Index: 1, Record: activity.ElectricityUsage{Amount: 0}},
		{Index: 3, Record: activity.Trip{Mode: activity.ModeCar, Distance: 5},
			Failure: &engine.Failure{Index: 3, Kind: estimate.KindUnreachable}},
	}
	snap := engine.Aggregate(outcomes)

	assert.Equal(t, engine.Totals{TravelKg: 10.5, ExpenseKg: 2, TotalKg: 12.5}, snap.Totals)
	require.Len(t, snap.Details.Trips, 1)
	assert.Equal(t, 0, snap.Details.Trips[0].Index)
	require.Len(t, snap.Failures, 1)
	assert.True(t, outcomes[2].Skipped())
	assert.Nil(t, snap.Details.Electricity)
}

func TestTotalsAddUp(t *testing.T) {
	calc := newCalculator(t, setup{})
	snap, err := calc.Calculate(context.Background(), activity.Input{
		Trips:       []activity.Trip{{Mode: activity.ModeBus, Distance: 104.7619}},
		Electricity: activity.ElectricityUsage{Amount: 12.987},
		Expenses:    []activity.Expense{{Category: activity.ExpenseDining, Amount: 50}},
	})
	require.NoError(t, err)
	tot := snap.Totals
	assert.InDelta(t, tot.TravelKg+tot.ElectricityKg+tot.ExpenseKg, tot.TotalKg, 5e-4)
}

func TestLargeQuantitiesStayFinite(t *testing.T) {
	expenses := make([]activity.Expense, 12)
	for i := range expenses {
		expenses[i] = activity.Expense{Category: activity.ExpenseElectronics, Amount: 1e308}
	}

	calc := newCalculator(t, setup{})
	snap, err := calc.Calculate(context.Background(), activity.Input{
		Trips: []activity.Trip{
			{Mode: activity.ModeBus, Distance: math.MaxFloat64, DistanceUnit: activity.UnitMile},
			{Mode: activity.ModeTrain, Distance: 100},
		},
		Electricity: activity.ElectricityUsage{Amount: 1e306},
		Expenses:    expenses,
	})
	require.NoError(t, err)

	tot := snap.Totals
	for name, v := range map[string]float64{
		"travel": tot.TravelKg, "electricity": tot.ElectricityKg, "expense": tot.ExpenseKg, "total": tot.TotalKg,
	} {
		assert.False(t, math.IsInf(v, 0) || math.IsNaN(v), "%s total is %v", name, v)
	}
	assert.InDelta(t, 4.1, tot.TravelKg, 1e-9)
	assert.InEpsilon(t, 3.85e305, tot.ElectricityKg, 1e-12)
	assert.InEpsilon(t, math.MaxFloat64, tot.ExpenseKg, 1e-12)
	assert.InEpsilon(t, math.MaxFloat64, tot.TotalKg, 1e-12)

	require.Len(t, snap.Failures, 1)
	assert.Equal(t, 0, snap.Failures[0].Index)
	assert.Equal(t, estimate.KindOverflow, snap.Failures[0].Kind)

	_, err = json.Marshal(snap)
	require.NoError(t, err)
}

func TestNonFiniteExternalResultIsFailure(t *testing.T) {
	calc := newCalculator(t, setup{capability: &capability{perUnit: math.Inf(1)}})
	snap, err := calc.Calculate(context.Background(), activity.Input{
		Trips: []activity.Trip{{Mode: activity.ModeCar, Distance: 10}},
	})
	require.NoError(t, err)
	require.Len(t, snap.Failures, 1)
	assert.Equal(t, estimate.KindUpstreamRejected, snap.Failures[0].Kind)
	assert.Zero(t, snap.Totals.TotalKg)
	assert.Empty(t, snap.Details.Trips)
}

func TestPerCallTimeoutIsUnreachable(t *testing.T) {
	fake := &capability{block: true}
	calc := newCalculator(t, setup{
		capability: fake,
		opts:       []engine.Option{engine.WithCallTimeout(20 * time.Millisecond)},
	})

	snap, err := calc.Calculate(context.Background(), activity.Input{
		Trips:    []activity.Trip{{Mode: activity.ModeCar, Distance: 5}},
		Expenses: []activity.Expense{{Category: activity.ExpenseGroceries, Amount: 10}},
	})
	require.NoError(t, err)
	require.Len(t, snap.Failures, 1)
	assert.Equal(t, estimate.KindUnreachable, snap.Failures[0].Kind)
	assert.InDelta(t, 0.6, snap.Totals.ExpenseKg, 1e-9)
}

func TestRetryTransientFailure(t *testing.T) {
	fake := &capability{perUnit: 1, failFirst: 1}
	calc := newCalculator(t, setup{
		capability: fake,
		opts:       []engine.Option{engine.WithRetry(1, time.Millisecond)},
	})

	snap, err := calc.Calculate(context.Background(), activity.Input{
		Trips: []activity.Trip{{Mode: activity.ModeCar, Distance: 7}},
	})
	require.NoError(t, err)
	assert.Empty(t, snap.Failures)
	assert.InDelta(t, 7.0, snap.Totals.TravelKg, 1e-9)
	assert.Equal(t, int32(2), fake.calls.Load())
}

func TestNoRetryByDefault(t *testing.T) {
	fake := &capability{perUnit: 1, failFirst: 1}
	calc := newCalculator(t, setup{capability: fake})

	snap, err := calc.Calculate(context.Background(), activity.Input{
		Trips: []activity.Trip{{Mode: activity.ModeCar, Distance: 7}},
	})
	require.NoError(t, err)
	require.Len(t, snap.Failures, 1)
	assert.Equal(t, int32(1), fake.calls.Load())
}

func TestRejectionIsNotRetried(t *testing.T) {
	fake := &capability{failFor: map[float64]error{
		7: estimate.NewError(estimate.KindUpstreamRejected, 422, "", errors.New("unprocessable")),
	}}
	calc := newCalculator(t, setup{
		capability: fake,
		opts:       []engine.Option{engine.WithRetry(3, 0)},
	})

	snap, err := calc.Calculate(context.Background(), activity.Input{
		Trips: []activity.Trip{{Mode: activity.ModeCar, Distance: 7}},
	})
	require.NoError(t, err)
	require.Len(t, snap.Failures, 1)
	assert.Equal(t, int32(1), fake.calls.Load())
}

func TestConcurrencyLimit(t *testing.T) {
	fake := &capability{perUnit: 1}
	calc := newCalculator(t, setup{
		capability: fake,
		opts:       []engine.Option{engine.WithConcurrency(2)},
	})

	trips := make([]activity.Trip, 12)
	for i := range trips {
		trips[i] = activity.Trip{Mode: activity.ModeCar, Distance: float64(i + 1)}
	}
	snap, err := calc.Calculate(context.Background(), activity.Input{Trips: trips})
	require.NoError(t, err)
	assert.Len(t, snap.Details.Trips, 12)
	assert.LessOrEqual(t, fake.maxSeen.Load(), int32(2))
	assert.InDelta(t, 78.0, snap.Totals.TravelKg, 1e-9)
}

func TestCanceledContext(t *testing.T) {
	fake := &capability{block: true}
	calc := newCalculator(t, setup{capability: fake})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	snap, err := calc.Calculate(ctx, activity.Input{
		Trips: []activity.Trip{{Mode: activity.ModeCar, Distance: 5}},
	})
	wg.Wait()
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, snap)
}

func TestNormalizesRawEnums(t *testing.T) {
	calc := newCalculator(t, setup{})
	snap, err := calc.Calculate(context.Background(), activity.Input{
		Trips: []activity.Trip{{Mode: "zeppelin", Distance: 1.60934}},
		Meals: []activity.Meal{{DietType: "paleo", Count: 1}},
	})
	require.NoError(t, err)
	require.Len(t, snap.Details.Trips, 1)
	assert.Equal(t, activity.ModeCar, snap.Details.Trips[0].Mode)
	assert.InDelta(t, 0.411, snap.Totals.TravelKg, 1e-9)
	assert.Equal(t, activity.DietMixed, snap.Details.Meals[0].DietType)
	assert.InDelta(t, 5.5, snap.Totals.MealKg, 1e-9)
}
