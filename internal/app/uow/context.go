package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type unitKey struct{}

// ContextWithUnitOfWork carries the unit so handlers invoked inside a
// transaction middleware share its boundary.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, unitKey{}, unit)
}

// FromContext returns the ambient unit of work, if any.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	val := ctx.Value(unitKey{})
	if val == nil {
		return nil, false
	}
	unit, ok := val.(UnitOfWork)
	return unit, ok
}
