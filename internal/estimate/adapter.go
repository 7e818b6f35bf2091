package estimate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/logging"
)

// Request is one call to an external estimation capability.
type Request struct {
	Category   activity.Category
	Key        string
	ActivityID string
	Quantity   float64
	// Unit is the unit abbreviation the capability expects ("km", "kWh").
	Unit   string
	Region string
}

// Response is a successful capability answer, already normalized to kg.
type Response struct {
	KgCO2e float64
}

// Capability is an external source of emission estimates. Implementations
// return *Error values so the adapter can preserve the failure kind; any
// other error is treated as a transport failure.
type Capability interface {
	Estimate(ctx context.Context, req Request) (Response, error)
}

// Target identifies a (category, key) pair that can be sent externally.
type Target struct {
	Category activity.Category
	Key      string
}

// Activity identifiers understood by the Climatiq estimate API.
const (
	ActivityCar         = "passenger_vehicle-vehicle_type_car-fuel_source_ice-engine_size_na-vehicle_age_na-vehicle_weight_na"
	ActivityFlightShort = "passenger_flight-route_type_domestic-fuel_type_jet"
	ActivityTrain       = "passenger_train-route_type_national"
	ActivityElectricity = "electricity-supply_grid-source_residual_mix"
)

// DefaultActivityIDs returns the built-in external identifier mapping.
func DefaultActivityIDs() map[Target]string {
	return map[Target]string{
		{activity.CategoryTrip, string(activity.ModeCar)}:         ActivityCar,
		{activity.CategoryTrip, string(activity.ModeFlightShort)}: ActivityFlightShort,
		{activity.CategoryTrip, string(activity.ModeTrain)}:       ActivityTrain,
		{activity.CategoryElectricity, activity.GridKey}:          ActivityElectricity,
	}
}

// AdapterConfig configures an Adapter.
type AdapterConfig struct {
	// ActivityIDs maps internal targets to external identifiers. Nil selects
	// DefaultActivityIDs.
	ActivityIDs map[Target]string
	// SendRegion forwards the electricity grid region as an upper-case
	// region selector.
	SendRegion bool
}

// Adapter translates records into capability requests and capability
// answers back into kg CO2e.
type Adapter struct {
	capability Capability
	ids        map[Target]string
	sendRegion bool
}

// NewAdapter returns an adapter over capability. A nil capability means no
// external source is configured; every Estimate then fails fast with
// KindConfigurationMissing.
func NewAdapter(capability Capability, cfg AdapterConfig) *Adapter {
	src := cfg.ActivityIDs
	if src == nil {
		src = DefaultActivityIDs()
	}
	ids := make(map[Target]string, len(src))
	for k, v := range src {
		ids[k] = v
	}
	return &Adapter{capability: capability, ids: ids, sendRegion: cfg.SendRegion}
}

// Configured reports whether a capability is present.
func (a *Adapter) Configured() bool {
	return a != nil && a.capability != nil
}

// Supports reports whether the adapter has an external identifier for the
// (category, key) pair.
func (a *Adapter) Supports(category activity.Category, key string) bool {
	if a == nil {
		return false
	}
	_, ok := a.ids[Target{category, key}]
	return ok
}

// Request builds the capability request for r.
func (a *Adapter) Request(r activity.Record) (Request, error) {
	id, ok := a.ids[Target{r.Kind(), r.Key()}]
	if !ok {
		return Request{}, &Error{
			Kind:     KindConfigurationMissing,
			Category: r.Kind(),
			Key:      r.Key(),
			Err:      errors.New("no external activity mapping"),
		}
	}
	req := Request{
		Category:   r.Kind(),
		Key:        r.Key(),
		ActivityID: id,
		Quantity:   r.Quantity(),
		Unit:       normalizeUnit(r.Unit()),
	}
	if e, isElectricity := r.(activity.ElectricityUsage); isElectricity && a.sendRegion {
		req.Region = strings.ToUpper(activity.NormalizeRegion(e.GridRegion))
	}
	return req, nil
}

// Estimate performs exactly one capability call for r.
func (a *Adapter) Estimate(ctx context.Context, r activity.Record) (float64, error) {
	log := logging.FromContext(ctx).With().
		Str("component", "estimate").
		Str("operation", "external").
		Str("category", string(r.Kind())).
		Str("key", r.Key()).
		Logger()

	if !a.Configured() {
		return 0, &Error{
			Kind:     KindConfigurationMissing,
			Category: r.Kind(),
			Key:      r.Key(),
			Err:      errors.New("external estimator credential not configured"),
		}
	}
	req, err := a.Request(r)
	if err != nil {
		return 0, err
	}

	log.Debug().Ctx(ctx).
		Str("activity_id", req.ActivityID).
		Float64("quantity", req.Quantity).
		Str("unit", req.Unit).
		Msg("calling external estimator")

	resp, err := a.capability.Estimate(ctx, req)
	if err != nil {
		return 0, a.classify(ctx, &log, r, err)
	}
	if math.IsNaN(resp.KgCO2e) || math.IsInf(resp.KgCO2e, 0) || resp.KgCO2e < 0 {
		return 0, &Error{
			Kind:     KindUpstreamRejected,
			Category: r.Kind(),
			Key:      r.Key(),
			Err:      fmt.Errorf("unusable emissions value %v", resp.KgCO2e),
		}
	}
	return resp.KgCO2e, nil
}

func (a *Adapter) classify(ctx context.Context, log *zerolog.Logger, r activity.Record, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Kind: KindUnreachable, Err: err}
	} else {
		cp := *e
		e = &cp
	}
	if ctx.Err() != nil && e.Kind != KindUpstreamRejected {
		e.Kind = KindUnreachable
	}
	e.Category = r.Kind()
	e.Key = r.Key()
	log.Warn().Ctx(ctx).Err(err).
		Str("kind", e.Kind.String()).
		Int("status", e.Status).
		Msg("external estimate failed")
	return e
}

func normalizeUnit(u string) string {
	switch strings.ToLower(strings.TrimSpace(u)) {
	case "km", "kilometre", "kilometer", "kilometres", "kilometers":
		return "km"
	case "mi", "mile", "miles":
		return "mi"
	case "kwh":
		return "kWh"
	default:
		return strings.ToLower(u)
	}
}
