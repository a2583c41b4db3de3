// Package format runs an external code formatter over snippet bodies.
package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/hyperifyio/fencerun/internal/cache"
)

// Formatter rewrites code into canonical layout.
type Formatter interface {
	Format(ctx context.Context, code string) (string, error)
}

// DefaultArgv formats Python read from stdin with black.
var DefaultArgv = []string{"black", "-", "--quiet", "--fast"}

// Command pipes code through an external program: code on stdin, formatted
// code on stdout, non-zero exit means failure.
type Command struct {
	Argv []string
	// Timeout bounds a single invocation. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// Format implements Formatter.
func (c *Command) Format(ctx context.Context, code string) (string, error) {
	if len(c.Argv) == 0 || strings.TrimSpace(c.Argv[0]) == "" {
		return "", errors.New("formatter command not configured")
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	cmd.Stdin = strings.NewReader(code)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("%s: %w", c.Argv[0], err)
		}
		return "", fmt.Errorf("%s: %w: %s", c.Argv[0], err, msg)
	}
	out := stdout.String()
	if strings.TrimSpace(out) == "" && strings.TrimSpace(code) != "" {
		return "", fmt.Errorf("%s: empty output", c.Argv[0])
	}
	return out, nil
}

// String returns the command line, used as the cache identity.
func (c *Command) String() string {
	return strings.Join(c.Argv, " ")
}

// Cached memoizes successful results of Inner. Failures are never cached so
// a fixed formatter installation is picked up on the next run.
type Cached struct {
	Inner Formatter
	Store *cache.Store
	// Identity distinguishes formatters sharing one store.
	Identity string
}

// Format implements Formatter.
func (c *Cached) Format(ctx context.Context, code string) (string, error) {
	if c.Store == nil {
		return c.Inner.Format(ctx, code)
	}
	key := cache.KeyFrom("format", c.Identity, code)
	if raw, ok, _ := c.Store.Get(ctx, key); ok {
		return string(raw), nil
	}
	out, err := c.Inner.Format(ctx, code)
	if err != nil {
		return "", err
	}
	_ = c.Store.Save(ctx, key, []byte(out))
	return out, nil
}
