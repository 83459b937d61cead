package retry

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure classes the executor understands.
type Kind int

const (
	// KindUnknown marks an error nobody classified. It is never retried.
	KindUnknown Kind = iota
	// KindRecoverable marks a transient failure such as a network blip or 5xx.
	KindRecoverable
	// KindNonRecoverable marks a permanent failure such as a bad request or
	// rejected credentials.
	KindNonRecoverable
)

func (k Kind) String() string {
	switch k {
	case KindRecoverable:
		return "recoverable"
	case KindNonRecoverable:
		return "non_recoverable"
	default:
		return "unknown"
	}
}

// ErrRetryExhausted matches every error returned after the retry budget of a
// recoverable failure ran out.
var ErrRetryExhausted = errors.New("retry attempts exhausted")

// Error attaches a Kind to an underlying error.
type Error struct {
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Recoverable marks err as worth retrying.
func Recoverable(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindRecoverable, Err: err}
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindNonRecoverable, Err: err}
}

// Classified is implemented by errors that know their own Kind.
type Classified interface {
	RetryKind() Kind
}

// KindOf returns the first Kind found in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var kindErr *Error
	if errors.As(err, &kindErr) {
		return kindErr.Kind
	}

	var classified Classified
	if errors.As(err, &classified) {
		return classified.RetryKind()
	}

	return KindUnknown
}

// ExhaustedError is returned when a recoverable failure persisted past the
// policy's MaxRetries. It matches ErrRetryExhausted and the last error.
type ExhaustedError struct {
	Operation string
	Attempts  int
	Last      error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: %v after %d attempts: %v", e.Operation, ErrRetryExhausted, e.Attempts, e.Last)
}

// Unwrap exposes both the sentinel and the last underlying error.
func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrRetryExhausted, e.Last}
}
