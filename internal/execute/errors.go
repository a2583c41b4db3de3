package execute

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel failures. A program's own non-zero exit is never one of these;
// it is reported through Result.ExitCode.
var (
	ErrInvalidInput = errors.New("invalid execution input")
	ErrTimeout      = errors.New("execution timed out")
	ErrCanceled     = errors.New("execution canceled")
)

// Kind classifies an execution failure.
type Kind int

const (
	KindInvalidInput Kind = iota + 1
	KindTimeout
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindTimeout:
		return ErrTimeout
	case KindCanceled:
		return ErrCanceled
	default:
		return nil
	}
}

// Error is a typed execution failure. Index is the snippet position the
// failure belongs to, or -1 when it concerns the whole call.
type Error struct {
	Kind  Kind
	Index int
	Err   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s (snippet %d)", msg, e.Index)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// InvalidInput builds a KindInvalidInput error for snippet index.
func InvalidInput(index int, format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Index: index, Err: fmt.Errorf(format, args...)}
}

// ContextError maps a finished context to a typed failure and returns nil
// while ctx is still live. A deadline, or a cancel whose cause is
// ErrTimeout, is a timeout; any other cancel is a cancellation.
func ContextError(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	cause := context.Cause(ctx)
	if errors.Is(cause, ErrTimeout) || errors.Is(cause, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Index: -1, Err: cause}
	}
	return &Error{Kind: KindCanceled, Index: -1, Err: cause}
}

// WithBudget derives a context that expires after d with ErrTimeout as its
// cause. A non-positive d only adds a cancel func.
func WithBudget(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeoutCause(ctx, d, ErrTimeout)
}
