package router_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/estimate"
	"github.com/rshade/footprint/internal/router"
)

func boolPtr(b bool) *bool { return &b }

func adapter() *estimate.Adapter {
	return estimate.NewAdapter(nil, estimate.AdapterConfig{})
}

func TestRouteConfigured(t *testing.T) {
	r, err := router.New(
		router.WithConfig(config.Default().Routing),
		router.WithCatalog(adapter()),
		router.WithCapability(true),
	)
	require.NoError(t, err)

	tests := []struct {
		name   string
		record activity.Record
		want   router.Method
	}{
		{"car goes external", activity.Trip{Mode: activity.ModeCar, Distance: 1}, router.MethodExternal},
		{"bus stays local", activity.Trip{Mode: activity.ModeBus, Distance: 1}, router.MethodLocal},
		{"train stays local when not listed", activity.Trip{Mode: activity.ModeTrain, Distance: 1}, router.MethodLocal},
		{"walk stays local", activity.Trip{Mode: activity.ModeWalk, Distance: 1}, router.MethodLocal},
		{"electricity goes external", activity.ElectricityUsage{Amount: 1}, router.MethodExternal},
		{"expenses are local", activity.Expense{Category: activity.ExpenseDining, Amount: 1}, router.MethodLocal},
		{"meals are local", activity.Meal{DietType: activity.DietVegan, Count: 1}, router.MethodLocal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Route(tt.record))
		})
	}
}

func TestRouteIsDeterministic(t *testing.T) {
	r, err := router.New(router.WithCatalog(adapter()), router.WithCapability(true))
	require.NoError(t, err)

	for _, rec := range []activity.Record{
		activity.Trip{Mode: activity.ModeCar, Distance: 10},
		activity.Trip{Mode: activity.ModeCar, Distance: 99},
		activity.Trip{Mode: activity.ModeFlightShort, Distance: 1},
		activity.ElectricityUsage{Amount: 5},
	} {
		first := r.Route(rec)
		for range 10 {
			assert.Equal(t, first, r.Route(rec))
		}
	}
	// Quantity never affects the decision.
	assert.Equal(t,
		r.Route(activity.Trip{Mode: activity.ModeCar, Distance: 1}),
		r.Route(activity.Trip{Mode: activity.ModeCar, Distance: 1000}))
}

func TestUnconfiguredPolicy(t *testing.T) {
	local, err := router.New(router.WithCatalog(adapter()), router.WithCapability(false))
	require.NoError(t, err)
	assert.Equal(t, router.MethodLocal, local.Route(activity.Trip{Mode: activity.ModeCar, Distance: 100}))
	assert.Equal(t, router.MethodLocal, local.Route(activity.ElectricityUsage{Amount: 1}))

	cfg := config.Default().Routing
	cfg.UnconfiguredPolicy = config.PolicyFail
	fail, err := router.New(router.WithConfig(cfg), router.WithCatalog(adapter()), router.WithCapability(false))
	require.NoError(t, err)
	assert.Equal(t, router.MethodExternal, fail.Route(activity.Trip{Mode: activity.ModeCar, Distance: 100}))
	assert.Equal(t, "credential missing, policy fail", fail.Rule(activity.CategoryTrip, "car").Reason)
}

func TestExternalElectricityDisabled(t *testing.T) {
	cfg := config.Default().Routing
	cfg.ExternalElectricity = boolPtr(false)
	r, err := router.New(router.WithConfig(cfg), router.WithCatalog(adapter()), router.WithCapability(true))
	require.NoError(t, err)
	assert.Equal(t, router.MethodLocal, r.Route(activity.ElectricityUsage{Amount: 1}))
}

func TestNewRejectsUnmappedMode(t *testing.T) {
	cfg := config.Default().Routing
	cfg.ExternalModes = []string{"car", "bus"}
	_, err := router.New(router.WithConfig(cfg), router.WithCatalog(adapter()))
	require.ErrorIs(t, err, router.ErrUnsupportedMode)

	_, err = router.New(router.WithCatalog(nil))
	require.ErrorIs(t, err, router.ErrUnsupportedMode)

	_, err = router.New()
	require.ErrorIs(t, err, router.ErrUnsupportedMode)

	noModes := config.Default().Routing
	noModes.ExternalModes = []string{}
	r, err := router.New(router.WithConfig(noModes), router.WithCapability(true))
	require.NoError(t, err)
	for _, rule := range r.Table() {
		assert.Equal(t, router.MethodLocal, rule.Method, "%s/%s", rule.Category, rule.Key)
	}

	cfg.ExternalModes = []string{"Car"}
	_, err = router.New(router.WithConfig(cfg), router.WithCatalog(adapter()))
	require.Error(t, err)
}

func TestTable(t *testing.T) {
	cfg := config.Default().Routing
	cfg.ExternalModes = []string{"car", "flightShort", "train"}
	r, err := router.New(router.WithConfig(cfg), router.WithCatalog(adapter()), router.WithCapability(true))
	require.NoError(t, err)

	table := r.Table()
	require.Len(t, table, 17)
	assert.Equal(t, activity.CategoryTrip, table[0].Category)
	assert.Equal(t, activity.CategoryMeal, table[len(table)-1].Category)

	external := map[string]bool{}
	for _, rule := range table {
		if rule.Method == router.MethodExternal {
			external[rule.Key] = true
		}
	}
	assert.Equal(t, map[string]bool{"car": true, "flightShort": true, "train": true, "grid": true}, external)
}

func TestUnknownKeyFollowsCategoryDefault(t *testing.T) {
	r, err := router.New(router.WithCatalog(adapter()), router.WithCapability(true))
	require.NoError(t, err)

	rule := r.Rule(activity.CategoryTrip, "zeppelin")
	assert.Equal(t, router.MethodExternal, rule.Method)
	assert.Equal(t, "zeppelin", rule.Key)
	assert.Equal(t, router.MethodLocal, r.Rule("unknown", "x").Method)
}

func TestValidate(t *testing.T) {
	res := router.Validate(config.Default().Routing, adapter(), false)
	assert.True(t, res.Valid)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Message, "local factor table")

	cfg := config.Default().Routing
	cfg.ExternalModes = []string{"walk"}
	res = router.Validate(cfg, adapter(), true)
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Error(), "walk")

	cfg.ExternalModes = nil
	cfg.ExternalElectricity = boolPtr(false)
	res = router.Validate(cfg, adapter(), true)
	assert.True(t, res.Valid)
	require.Len(t, res.Warnings, 1)
}

func TestMethodText(t *testing.T) {
	b, err := router.MethodExternal.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "external", string(b))
	assert.Equal(t, "local", router.MethodLocal.String())
}
