package policies

import "context"

// SelfValidating is implemented by commands that can check their own shape
// before any handler or transaction work happens.
type SelfValidating interface {
	Validate() error
}

// SelfValidation adapts self-validating commands to the bus middleware.
// Messages that do not implement SelfValidating pass through untouched.
type SelfValidation struct{}

func (SelfValidation) Validate(ctx context.Context, message any) error {
	if v, ok := message.(SelfValidating); ok {
		return v.Validate()
	}
	return nil
}
