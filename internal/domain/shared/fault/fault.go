package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to choose between a retry,
// a state refresh, or an operator escalation.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindForbidden         Kind = "FORBIDDEN"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindValidation        Kind = "VALIDATION"
	KindPaymentMismatch   Kind = "PAYMENT_MISMATCH"
	KindPaymentNotFound   Kind = "PAYMENT_NOT_FOUND"
	KindUnavailable       Kind = "UNAVAILABLE"
)

// Fault is an error carrying a Kind. Two faults compare equal under errors.Is
// when their kinds match, so packages can export kind-level sentinels.
type Fault struct {
	Kind Kind
	Msg  string
	Err  error
}

func New(kind Kind, msg string) *Fault {
	return &Fault{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Fault {
	return &Fault{Kind: kind, Msg: msg, Err: err}
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return f.Msg + ": " + f.Err.Error()
	}
	return f.Msg
}

func (f *Fault) Unwrap() error { return f.Err }

func (f *Fault) Is(target error) bool {
	t, ok := target.(*Fault)
	return ok && t.Kind == f.Kind
}

// KindOf extracts the Kind from an error chain, or "" for untyped errors.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// IsKind reports whether any error in the chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether the caller should retry the operation unchanged.
func Retryable(err error) bool {
	return IsKind(err, KindUnavailable)
}
