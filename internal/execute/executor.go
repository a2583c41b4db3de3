// Package execute defines the contract between the snippet pipeline and the
// backends that run snippets. Backends live in subpackages.
package execute

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/hyperifyio/fencerun/internal/snippet"
)

// Result is the aggregate outcome of one ExecuteCodeBlocks call.
type Result struct {
	// ExitCode is the executed program's status; 0 means success.
	ExitCode int
	// Output is the combined output of the snippets that ran, in order.
	Output string
}

// Executor runs ordered snippets and owns whatever session state it keeps
// between calls.
//
// ExecuteCodeBlocks with no snippets returns a zero Result and no error.
// Failures of the pipeline itself are *Error values matching ErrInvalidInput,
// ErrTimeout or ErrCanceled. Each implementation documents whether it halts
// on the first non-zero exit.
//
// Restart resets session state and may be called at any time. It returns an
// error only when tearing the state down failed; the executor is fresh
// afterwards regardless.
type Executor interface {
	ExecuteCodeBlocks(ctx context.Context, snippets []snippet.Snippet) (Result, error)
	Restart(ctx context.Context) error
}

// Validate checks that every snippet was produced by a Normalizer and has
// something to run.
func Validate(snippets []snippet.Snippet) error {
	for i, s := range snippets {
		if s.IsZero() {
			return InvalidInput(i, "snippet has no language")
		}
		if strings.TrimSpace(s.Text()) == "" {
			return InvalidInput(i, "snippet is empty")
		}
	}
	return nil
}

// JoinOutputs combines per-snippet outputs in submission order.
func JoinOutputs(outputs []string) string {
	return strings.Join(outputs, "\n")
}

// State is the session state of an executor.
type State int

const (
	Fresh State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "fresh"
}

// Session implements the executor state machine and serializes calls: one
// execution in flight at a time, and Restart waits for it. Waiting honours
// the caller's context. The zero value is a Fresh session.
type Session struct {
	once  sync.Once
	slot  chan struct{}
	mu    sync.Mutex
	state State
	runs  int
}

// RunFunc runs a validated, non-empty batch. fresh is true when no batch ran
// since the session started or was last restarted.
type RunFunc func(ctx context.Context, snippets []snippet.Snippet, fresh bool) (Result, error)

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Runs returns how many batches ran since the last restart.
func (s *Session) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// Execute validates snippets, waits for the session, and calls run. An empty
// batch returns a zero Result without touching the state, even when ctx is
// already done. If ctx finishes
// while run is in flight, any untyped error run returns is replaced by the
// matching timeout or cancellation failure.
func (s *Session) Execute(ctx context.Context, snippets []snippet.Snippet, run RunFunc) (Result, error) {
	if len(snippets) == 0 {
		return Result{}, nil
	}
	if err := ContextError(ctx); err != nil {
		return Result{}, err
	}
	if err := Validate(snippets); err != nil {
		return Result{}, err
	}
	if err := s.acquire(ctx); err != nil {
		return Result{}, err
	}
	defer s.release()

	fresh := s.State() == Fresh
	res, err := run(ctx, snippets, fresh)

	s.mu.Lock()
	s.state = Ready
	s.runs++
	s.mu.Unlock()

	if err != nil {
		var typed *Error
		if !errors.As(err, &typed) {
			if cerr := ContextError(ctx); cerr != nil {
				return res, cerr
			}
		}
		return res, err
	}
	return res, nil
}

// Restart waits for any in-flight execution, calls reset (which may be nil)
// and returns the session to Fresh even when reset fails.
func (s *Session) Restart(ctx context.Context, reset func() error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	var err error
	if reset != nil {
		err = reset()
	}
	s.mu.Lock()
	s.state = Fresh
	s.runs = 0
	s.mu.Unlock()
	return err
}

func (s *Session) acquire(ctx context.Context) error {
	s.once.Do(func() { s.slot = make(chan struct{}, 1) })
	select {
	case s.slot <- struct{}{}:
		return nil
	default:
	}
	select {
	case s.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ContextError(ctx)
	}
}

func (s *Session) release() { <-s.slot }
