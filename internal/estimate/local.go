// Package estimate turns activity records into kg CO2e, either locally from
// the factor table or through an external estimation capability.
package estimate

import (
	"errors"
	"fmt"
	"math"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/factors"
)

// Local estimates emissions from a factor table without any I/O.
type Local struct {
	table *factors.Table
}

// NewLocal returns a Local estimator over table. A nil table selects the
// built-in defaults.
func NewLocal(table *factors.Table) *Local {
	if table == nil {
		table = factors.Default()
	}
	return &Local{table: table}
}

// Estimate returns quantity × factor for r, unrounded. Records with a
// non-positive quantity yield 0. A product that is not finite is reported as
// KindOverflow. A key missing from the table falls back to
// the category default key; an error is only returned when the category
// itself has no factors.
func (l *Local) Estimate(r activity.Record) (float64, error) {
	if !activity.IsPositive(r) {
		return 0, nil
	}
	f, err := l.Factor(r)
	if err != nil {
		return 0, err
	}
	kg := r.Quantity() * f.KgPerUnit
	if math.IsInf(kg, 0) || math.IsNaN(kg) {
		return 0, &Error{
			Kind:     KindOverflow,
			Category: r.Kind(),
			Key:      r.Key(),
			Err:      fmt.Errorf("%g %s at %g kg per unit", r.Quantity(), r.Unit(), f.KgPerUnit),
		}
	}
	return kg, nil
}

// Factor returns the factor applied to r.
func (l *Local) Factor(r activity.Record) (factors.Factor, error) {
	f, err := l.table.Lookup(r.Kind(), r.Key())
	if errors.Is(err, factors.ErrNotFound) {
		f, err = l.table.Lookup(r.Kind(), activity.DefaultKey(r.Kind()))
	}
	if err != nil {
		return factors.Factor{}, fmt.Errorf("local estimate: %w", err)
	}
	return f, nil
}
