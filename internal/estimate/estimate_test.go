package estimate_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/estimate"
	"github.com/rshade/footprint/internal/factors"
)

type fakeCapability struct {
	resp  estimate.Response
	err   error
	calls atomic.Int32
	last  estimate.Request
}

func (f *fakeCapability) Estimate(_ context.Context, req estimate.Request) (estimate.Response, error) {
	f.calls.Add(1)
	f.last = req
	return f.resp, f.err
}

func TestLocalTripModes(t *testing.T) {
	local := estimate.NewLocal(nil)
	for _, mode := range []activity.TripMode{
		activity.ModeBus, activity.ModeTrain, activity.ModeFlightShort, activity.ModeBike,
	} {
		t.Run(string(mode), func(t *testing.T) {
			f, err := factors.Default().Lookup(activity.CategoryTrip, string(mode))
			require.NoError(t, err)

			for _, km := range []float64{0.5, 12, 480.25} {
				got, err := local.Estimate(activity.Trip{Mode: mode, Distance: km})
				require.NoError(t, err)
				assert.InDelta(t, km*f.KgPerUnit, got, 1e-9)
			}
		})
	}
}

func TestLocalMilesConvertToKilometres(t *testing.T) {
	local := estimate.NewLocal(nil)

	got, err := local.Estimate(activity.Trip{Mode: activity.ModeCar, Distance: 10, DistanceUnit: activity.UnitMile})
	require.NoError(t, err)
	assert.InDelta(t, 4.11, got, 1e-9)

	got, err = local.Estimate(activity.Trip{Mode: activity.ModeBus, Distance: 10, DistanceUnit: activity.UnitMile})
	require.NoError(t, err)
	assert.InDelta(t, 10*1.60934*0.105, got, 1e-9)
}

func TestLocalCategories(t *testing.T) {
	local := estimate.NewLocal(nil)
	tests := []struct {
		name   string
		record activity.Record
		want   float64
	}{
		{"electricity", activity.ElectricityUsage{Amount: 30}, 11.55},
		{"groceries", activity.Expense{Category: activity.ExpenseGroceries, Amount: 50}, 3.0},
		{"dining", activity.Expense{Category: activity.ExpenseDining, Amount: 20}, 2.0},
		{"vegan meals", activity.Meal{DietType: activity.DietVegan, Count: 3}, 8.7},
		{"zero distance", activity.Trip{Mode: activity.ModeCar}, 0},
		{"negative expense", activity.Expense{Category: activity.ExpenseApparel, Amount: -5}, 0},
		{"unknown mode uses car", activity.Trip{Mode: "zeppelin", Distance: 1.60934}, 0.411},
		{"unknown diet uses mixed", activity.Meal{DietType: "keto", Count: 2}, 11.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := local.Estimate(tt.record)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestLocalMissingCategory(t *testing.T) {
	tbl, err := factors.New(factors.Factor{Category: activity.CategoryTrip, Key: "car", KgPerUnit: 1})
	require.NoError(t, err)

	_, err = estimate.NewLocal(tbl).Estimate(activity.Meal{DietType: activity.DietVegan, Count: 1})
	require.ErrorIs(t, err, factors.ErrNotFound)
}

func TestLocalOverflow(t *testing.T) {
	local := estimate.NewLocal(nil)

	_, err := local.Estimate(activity.Trip{
		Mode: activity.ModeBus, Distance: math.MaxFloat64, DistanceUnit: activity.UnitMile,
	})
	require.ErrorIs(t, err, estimate.ErrOverflow)
	assert.Equal(t, estimate.KindOverflow, estimate.KindOf(err))
	assert.False(t, estimate.Retryable(err))

	kg, err := local.Estimate(activity.ElectricityUsage{Amount: 1e306})
	require.NoError(t, err)
	assert.InEpsilon(t, 3.85e305, kg, 1e-12)
}

func TestAdapterNotConfigured(t *testing.T) {
	a := estimate.NewAdapter(nil, estimate.AdapterConfig{})

	_, err := a.Estimate(context.Background(), activity.Trip{Mode: activity.ModeCar, Distance: 10})
	require.ErrorIs(t, err, estimate.ErrConfigurationMissing)
	assert.False(t, a.Configured())
}

func TestAdapterUnmappedFailsClosed(t *testing.T) {
	fake := &fakeCapability{resp: estimate.Response{KgCO2e: 1}}
	a := estimate.NewAdapter(fake, estimate.AdapterConfig{})

	_, err := a.Estimate(context.Background(), activity.Trip{Mode: activity.ModeBus, Distance: 10})
	require.ErrorIs(t, err, estimate.ErrConfigurationMissing)
	assert.Zero(t, fake.calls.Load())
	assert.False(t, a.Supports(activity.CategoryTrip, "bus"))
	assert.True(t, a.Supports(activity.CategoryTrip, "car"))
}

func TestAdapterRequestShape(t *testing.T) {
	fake := &fakeCapability{resp: estimate.Response{KgCO2e: 17.1}}
	a := estimate.NewAdapter(fake, estimate.AdapterConfig{SendRegion: true})

	got, err := a.Estimate(context.Background(), activity.Trip{
		Mode: activity.ModeCar, Distance: 10, DistanceUnit: activity.UnitMile,
	})
	require.NoError(t, err)
	assert.InDelta(t, 17.1, got, 1e-12)
	assert.Equal(t, estimate.ActivityCar, fake.last.ActivityID)
	assert.Equal(t, "km", fake.last.Unit)
	assert.InDelta(t, 16.0934, fake.last.Quantity, 1e-9)
	assert.Empty(t, fake.last.Region)

	_, err = a.Estimate(context.Background(), activity.ElectricityUsage{Amount: 30, GridRegion: "de"})
	require.NoError(t, err)
	assert.Equal(t, estimate.ActivityElectricity, fake.last.ActivityID)
	assert.Equal(t, "kWh", fake.last.Unit)
	assert.Equal(t, "DE", fake.last.Region)
}

func TestAdapterFailures(t *testing.T) {
	tests := []struct {
		name     string
		resp     estimate.Response
		err      error
		wantKind estimate.Kind
	}{
		{
			name:     "rejected status keeps payload",
			err:      estimate.NewError(estimate.KindUpstreamRejected, 400, `{"error":"bad"}`, nil),
			wantKind: estimate.KindUpstreamRejected,
		},
		{
			name:     "plain transport error is unreachable",
			err:      errors.New("connection refused"),
			wantKind: estimate.KindUnreachable,
		},
		{
			name:     "NaN value is rejected",
			resp:     estimate.Response{KgCO2e: math.NaN()},
			wantKind: estimate.KindUpstreamRejected,
		},
		{
			name:     "negative value is rejected",
			resp:     estimate.Response{KgCO2e: -1},
			wantKind: estimate.KindUpstreamRejected,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := estimate.NewAdapter(&fakeCapability{resp: tt.resp, err: tt.err}, estimate.AdapterConfig{})

			got, err := a.Estimate(context.Background(), activity.Trip{Mode: activity.ModeCar, Distance: 5})
			require.Error(t, err)
			assert.Zero(t, got)
			assert.Equal(t, tt.wantKind, estimate.KindOf(err))

			var e *estimate.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, activity.CategoryTrip, e.Category)
			assert.Equal(t, "car", e.Key)
		})
	}
}

func TestAdapterRejectedKeepsDiagnostics(t *testing.T) {
	a := estimate.NewAdapter(&fakeCapability{
		err: estimate.NewError(estimate.KindUpstreamRejected, 422, `{"error":"invalid_request"}`, nil),
	}, estimate.AdapterConfig{})

	_, err := a.Estimate(context.Background(), activity.Trip{Mode: activity.ModeCar, Distance: 5})
	var e *estimate.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 422, e.Status)
	assert.Contains(t, e.Payload, "invalid_request")
}

func TestAdapterCancelledContextIsUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := estimate.NewAdapter(&fakeCapability{err: ctx.Err()}, estimate.AdapterConfig{})

	_, err := a.Estimate(ctx, activity.Trip{Mode: activity.ModeCar, Distance: 5})
	require.ErrorIs(t, err, estimate.ErrUnreachable)
	require.ErrorIs(t, err, context.Canceled)
}

func TestErrorHelpers(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", estimate.NewError(estimate.KindUnreachable, 0, "", errors.New("timeout")))
	assert.True(t, estimate.Retryable(err))
	assert.False(t, estimate.Retryable(estimate.ErrUpstreamRejected))
	assert.Equal(t, estimate.KindUnknown, estimate.KindOf(errors.New("other")))
	assert.Contains(t, err.Error(), "unreachable")
	assert.NotErrorIs(t, err, estimate.ErrUpstreamRejected)

	long := estimate.NewError(estimate.KindUpstreamRejected, 500, string(make([]byte, 4096)), nil)
	assert.Len(t, long.Payload, 512)

	text, mErr := estimate.KindConfigurationMissing.MarshalText()
	require.NoError(t, mErr)
	assert.Equal(t, "configuration_missing", string(text))

	var k estimate.Kind
	require.NoError(t, k.UnmarshalText([]byte("overflow")))
	assert.Equal(t, estimate.KindOverflow, k)
}
