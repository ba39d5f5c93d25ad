package market

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransientNetwork covers timeouts, connection failures and non-2xx responses.
	// It is never retried within the same call.
	ErrTransientNetwork = errors.New("transient network error")
	// ErrDataValidation marks a single record missing required identity fields.
	ErrDataValidation = errors.New("data validation error")
	// ErrPersistence marks an upsert or select failure in the datastore.
	ErrPersistence = errors.New("persistence error")
	// ErrComputationDegenerate marks zero variance or insufficient samples.
	// Analysis and indicator code resolves it to fallback values instead of returning it.
	ErrComputationDegenerate = errors.New("degenerate computation")
)

// Error carries the failing operation and key alongside a taxonomy kind.
type Error struct {
	Kind error
	Op   string
	Key  string
	Err  error
}

// NewError wraps err with a kind and operation context.
func NewError(kind error, op, key string, err error) *Error {
	return &Error{Kind: kind, Op: op, Key: key, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " key=%s", e.Key)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Classified reports whether err belongs to the known taxonomy.
func Classified(err error) bool {
	return errors.Is(err, ErrTransientNetwork) ||
		errors.Is(err, ErrDataValidation) ||
		errors.Is(err, ErrPersistence) ||
		errors.Is(err, ErrComputationDegenerate)
}
