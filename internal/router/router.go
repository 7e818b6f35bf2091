// Package router decides, per activity record, whether emissions are
// estimated locally or by the external capability.
//
// The decision is a pure lookup over (category, key). The table is built
// once from configuration and never changes, so Route is safe for
// concurrent use and always returns the same answer for the same pair.
package router

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/logging"
)

// Method is how a record is estimated.
type Method int

// Estimation methods.
const (
	MethodLocal Method = iota
	MethodExternal
)

// String returns "local" or "external".
func (m Method) String() string {
	if m == MethodExternal {
		return "external"
	}
	return "local"
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(b []byte) error {
	switch string(b) {
	case "external":
		*m = MethodExternal
	case "local":
		*m = MethodLocal
	default:
		return fmt.Errorf("unknown estimation method %q", b)
	}
	return nil
}

// Catalog reports which (category, key) pairs have an external mapping.
// *estimate.Adapter satisfies it.
type Catalog interface {
	Supports(category activity.Category, key string) bool
}

// ErrUnsupportedMode is returned by New when configuration asks for an
// external estimate the catalog cannot serve.
var ErrUnsupportedMode = errors.New("no external mapping for configured mode")

// Rule is one row of the routing table.
type Rule struct {
	Category activity.Category `json:"category"`
	Key      string            `json:"key"`
	Method   Method            `json:"method"`
	// Reason says why the row has its method.
	Reason string `json:"reason"`
}

type ruleKey struct {
	category activity.Category
	key      string
}

// Router maps (category, key) pairs to estimation methods.
type Router struct {
	config     config.RoutingConfig
	catalog    Catalog
	configured bool
	rules      map[ruleKey]Rule
}

// Option configures a Router.
type Option func(*Router)

// WithConfig sets the routing configuration. If not provided, the defaults
// from config.Default are used.
func WithConfig(cfg config.RoutingConfig) Option {
	return func(r *Router) {
		r.config = cfg
	}
}

// WithCatalog sets the source of external mappings. Every configured
// external mode must be mapped by it: without a catalog, New fails with
// ErrUnsupportedMode unless external_modes is empty, and electricity then
// routes locally.
func WithCatalog(c Catalog) Option {
	return func(r *Router) {
		r.catalog = c
	}
}

// WithCapability records whether the external capability has a credential.
func WithCapability(configured bool) Option {
	return func(r *Router) {
		r.configured = configured
	}
}

// New builds the routing table.
//
// A trip mode goes external when it is listed in the configuration and the
// catalog maps it. Electricity goes external when enabled and mapped.
// When the capability has no credential, those rows follow the configured
// unconfigured policy: "local" routes them locally, "fail" keeps them
// external so the adapter reports configuration_missing without calling
// out. Expenses and meals are always local.
//
// Example:
//
//	r, err := router.New(
//	    router.WithConfig(cfg.Routing),
//	    router.WithCatalog(adapter),
//	    router.WithCapability(cfg.Estimator.Configured()),
//	)
func New(opts ...Option) (*Router, error) {
	r := &Router{
		config: config.Default().Routing,
		rules:  make(map[ruleKey]Rule),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("routing config: %w", err)
	}

	external := make(map[ruleKey]bool)
	for _, m := range r.config.Modes() {
		k := ruleKey{activity.CategoryTrip, string(m)}
		if !r.supports(k) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, m)
		}
		external[k] = true
	}
	if grid := (ruleKey{activity.CategoryElectricity, activity.GridKey}); r.config.ExternalElectricityEnabled() && r.supports(grid) {
		external[grid] = true
	}

	for _, k := range allKeys() {
		r.rules[k] = r.decide(k, external[k])
	}
	return r, nil
}

func (r *Router) supports(k ruleKey) bool {
	return r.catalog != nil && r.catalog.Supports(k.category, k.key)
}

func (r *Router) decide(k ruleKey, wantExternal bool) Rule {
	rule := Rule{Category: k.category, Key: k.key, Method: MethodLocal}
	switch {
	case k.category == activity.CategoryExpense || k.category == activity.CategoryMeal:
		rule.Reason = "no external source for category"
	case !wantExternal:
		rule.Reason = "not configured for external estimation"
	case r.configured:
		rule.Method = MethodExternal
		rule.Reason = "external capability configured"
	case r.config.Policy() == config.PolicyFail:
		rule.Method = MethodExternal
		rule.Reason = "credential missing, policy fail"
	default:
		rule.Reason = "credential missing, policy local"
	}
	return rule
}

// Route returns the method for r. Unknown keys resolve like their category
// default key.
func (r *Router) Route(rec activity.Record) Method {
	return r.Rule(rec.Kind(), rec.Key()).Method
}

// Rule returns the table row for (category, key).
func (r *Router) Rule(category activity.Category, key string) Rule {
	if rule, ok := r.rules[ruleKey{category, key}]; ok {
		return rule
	}
	if rule, ok := r.rules[ruleKey{category, activity.DefaultKey(category)}]; ok {
		rule.Key = key
		return rule
	}
	return Rule{Category: category, Key: key, Method: MethodLocal, Reason: "unknown category"}
}

// Table returns every row in category then key order.
func (r *Router) Table() []Rule {
	out := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return categoryOrder(out[i].Category) < categoryOrder(out[j].Category)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// LogTable writes the table at debug level.
func (r *Router) LogTable(ctx context.Context) {
	log := logging.FromContext(ctx)
	for _, rule := range r.Table() {
		log.Debug().
			Ctx(ctx).
			Str("component", "router").
			Str("category", string(rule.Category)).
			Str("key", rule.Key).
			Str("method", rule.Method.String()).
			Str("reason", rule.Reason).
			Msg("routing rule")
	}
}

func allKeys() []ruleKey {
	keys := make([]ruleKey, 0, 16)
	for _, m := range activity.TripModes() {
		keys = append(keys, ruleKey{activity.CategoryTrip, string(m)})
	}
	keys = append(keys, ruleKey{activity.CategoryElectricity, activity.GridKey})
	for _, c := range []activity.ExpenseCategory{
		activity.ExpenseGroceries, activity.ExpenseApparel, activity.ExpenseElectronics,
		activity.ExpenseDining, activity.ExpenseOther,
	} {
		keys = append(keys, ruleKey{activity.CategoryExpense, string(c)})
	}
	for _, d := range []activity.DietType{
		activity.DietMeatHeavy, activity.DietMixed, activity.DietVegetarian, activity.DietVegan,
	} {
		keys = append(keys, ruleKey{activity.CategoryMeal, string(d)})
	}
	return keys
}

func categoryOrder(c activity.Category) int {
	switch c {
	case activity.CategoryTrip:
		return 0
	case activity.CategoryElectricity:
		return 1
	case activity.CategoryExpense:
		return 2
	default:
		return 3
	}
}
