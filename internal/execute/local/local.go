// Package local runs snippets as child processes of the current user. It
// does not sandbox anything.
package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/fencerun/internal/execute"
	"github.com/hyperifyio/fencerun/internal/snippet"
)

// Config configures an Executor.
type Config struct {
	// WorkDir is the parent of the per-session directory. Empty means the
	// system temp dir.
	WorkDir string
	// Timeout bounds one ExecuteCodeBlocks call. Zero means no budget.
	Timeout time.Duration
	// Commands maps a language to the argv prefix that runs a snippet file.
	// The file path is appended. Nil means DefaultCommands.
	Commands map[snippet.Language][]string
	// Extensions maps a language to the snippet file suffix.
	Extensions map[snippet.Language]string
	// Env holds extra KEY=VALUE pairs added to the inherited environment.
	Env    []string
	Logger *zerolog.Logger
}

// DefaultCommands runs python with python3 and sh with sh.
func DefaultCommands() map[snippet.Language][]string {
	return map[snippet.Language][]string{
		snippet.Python: {"python3"},
		snippet.Sh:     {"sh"},
	}
}

var defaultExtensions = map[snippet.Language]string{
	snippet.Python: ".py",
	snippet.Sh:     ".sh",
}

// Executor writes each snippet into a session directory and runs it with the
// configured command, in order. It halts on the first non-zero exit: the
// result carries that exit code and the output of every snippet run so far,
// including the failing one. Each snippet's output is stdout and stderr
// interleaved, with trailing newlines removed.
//
// The session directory is created on first use and shared by later calls
// until Restart removes it, so files written by one snippet are visible to
// the next.
type Executor struct {
	cfg     Config
	session execute.Session

	mu  sync.Mutex // guards dir
	dir string
	seq int
}

var _ execute.Executor = (*Executor)(nil)

// New returns an Executor for cfg.
func New(cfg Config) *Executor {
	if cfg.Commands == nil {
		cfg.Commands = DefaultCommands()
	}
	return &Executor{cfg: cfg}
}

// State reports the session state.
func (e *Executor) State() execute.State { return e.session.State() }

// Dir returns the current session directory, or "" when none exists. It is
// safe to call while an execution or restart is in flight.
func (e *Executor) Dir() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dir
}

// ExecuteCodeBlocks implements execute.Executor.
func (e *Executor) ExecuteCodeBlocks(ctx context.Context, snippets []snippet.Snippet) (execute.Result, error) {
	ctx, cancel := execute.WithBudget(ctx, e.cfg.Timeout)
	defer cancel()
	return e.session.Execute(ctx, snippets, e.run)
}

// Restart removes the session directory.
func (e *Executor) Restart(ctx context.Context) error {
	return e.session.Restart(ctx, e.reset)
}

func (e *Executor) run(ctx context.Context, snippets []snippet.Snippet, fresh bool) (execute.Result, error) {
	for i, s := range snippets {
		if argv := e.cfg.Commands[s.Language()]; len(argv) == 0 {
			return execute.Result{}, execute.InvalidInput(i, "no command for language %q", s.Language())
		}
	}
	dir, err := e.ensureDir()
	if err != nil {
		return execute.Result{}, err
	}
	logger := e.logger()
	if fresh {
		logger.Debug().Str("dir", dir).Msg("session started")
	}

	outputs := make([]string, 0, len(snippets))
	for i, s := range snippets {
		e.seq++
		path := filepath.Join(dir, fmt.Sprintf("snippet_%d%s", e.seq, e.extension(s.Language())))
		if err := os.WriteFile(path, []byte(s.Text()+"\n"), 0o600); err != nil {
			return execute.Result{}, fmt.Errorf("write snippet %d: %w", i, err)
		}
		argv := append(append([]string{}, e.cfg.Commands[s.Language()]...), path)
		start := time.Now()
		code, out, err := e.runOne(ctx, dir, argv)
		if err != nil {
			res := execute.Result{Output: execute.JoinOutputs(outputs)}
			if cerr := execute.ContextError(ctx); cerr != nil {
				var typed *execute.Error
				if errors.As(cerr, &typed) {
					typed.Index = i
				}
				return res, cerr
			}
			return res, fmt.Errorf("run snippet %d: %w", i, err)
		}
		outputs = append(outputs, out)
		logger.Debug().
			Int("index", i).
			Str("language", string(s.Language())).
			Int("exit", code).
			Dur("elapsed", time.Since(start)).
			Msg("snippet finished")
		if code != 0 {
			return execute.Result{ExitCode: code, Output: execute.JoinOutputs(outputs)}, nil
		}
	}
	return execute.Result{Output: execute.JoinOutputs(outputs)}, nil
}

func (e *Executor) runOne(ctx context.Context, dir string, argv []string) (int, string, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), e.cfg.Env...)
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = time.Second

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	if ctx.Err() != nil {
		return 0, "", ctx.Err()
	}
	text := strings.TrimRight(out.String(), "\n")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), text, nil
		}
		return 0, "", err
	}
	return 0, text, nil
}

func (e *Executor) ensureDir() (string, error) {
	if dir := e.Dir(); dir != "" {
		return dir, nil
	}
	parent := e.cfg.WorkDir
	if parent == "" {
		parent = os.TempDir()
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	dir := filepath.Join(parent, "fencerun-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	e.mu.Lock()
	e.dir = dir
	e.mu.Unlock()
	return dir, nil
}

func (e *Executor) reset() error {
	e.mu.Lock()
	dir := e.dir
	e.dir = ""
	e.mu.Unlock()
	e.seq = 0
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove session dir: %w", err)
	}
	e.logger().Debug().Str("dir", dir).Msg("session removed")
	return nil
}

func (e *Executor) extension(lang snippet.Language) string {
	if ext, ok := e.cfg.Extensions[lang]; ok {
		return ext
	}
	if ext, ok := defaultExtensions[lang]; ok {
		return ext
	}
	return ".txt"
}

func (e *Executor) logger() *zerolog.Logger {
	if e.cfg.Logger != nil {
		return e.cfg.Logger
	}
	return &log.Logger
}
