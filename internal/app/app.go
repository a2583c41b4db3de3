// Package app wires the snippet pipeline for the command line: read a
// document, extract and normalize its snippets, optionally run them, and
// write a transcript.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/fencerun/internal/cache"
	"github.com/hyperifyio/fencerun/internal/classify"
	"github.com/hyperifyio/fencerun/internal/execute"
	"github.com/hyperifyio/fencerun/internal/execute/local"
	"github.com/hyperifyio/fencerun/internal/extract"
	"github.com/hyperifyio/fencerun/internal/format"
	"github.com/hyperifyio/fencerun/internal/llm"
	"github.com/hyperifyio/fencerun/internal/report"
	"github.com/hyperifyio/fencerun/internal/snippet"
)

type App struct {
	cfg        Config
	normalizer *snippet.Normalizer
	executor   execute.Executor
	store      *cache.Store

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// New builds the pipeline. Classifier artifacts are loaded here, once; a
// failed load is logged and leaves the classifier unset so every
// normalization fails with snippet.ErrClassifierUnavailable.
func New(ctx context.Context, cfg Config) (*App, error) {
	a := &App{cfg: cfg, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}

	if cfg.CacheDir != "" {
		// Cache maintenance is best-effort
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
			log.Warn().Err(err).Msg("cache purge failed")
		} else if n > 0 {
			log.Debug().Int("removed", n).Msg("purged stale cache entries")
		}
		if n, err := cache.EnforceLimits(cfg.CacheDir, cfg.CacheMaxEntries); err != nil {
			log.Warn().Err(err).Msg("cache limit enforcement failed")
		} else if n > 0 {
			log.Debug().Int("removed", n).Msg("evicted cache entries")
		}
		a.store = &cache.Store{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	extra := make([]snippet.Language, 0, len(cfg.ExtraLanguages))
	for _, l := range cfg.ExtraLanguages {
		extra = append(extra, snippet.Language(l))
	}
	languages := snippet.DefaultLanguages().With(extra...)

	n := &snippet.Normalizer{Languages: languages}
	switch cfg.Classifier {
	case ClassifierLLM:
		provider := llm.NewOpenAI(cfg.LLMBaseURL, cfg.LLMAPIKey)
		preflight(ctx, provider)
		labels := make([]string, 0, languages.Len())
		for _, l := range languages.List() {
			labels = append(labels, string(l))
		}
		n.Classifier = &classify.LLM{Client: provider, Model: cfg.LLMModel, Labels: labels, Cache: a.store}
	default:
		nb, err := classify.Load(cfg.ModelDir)
		if err != nil {
			log.Error().Err(err).Str("dir", cfg.ModelDir).Msg("language classifier unavailable")
		} else {
			n.Classifier = nb
			log.Debug().Strs("labels", nb.Labels()).Msg("language classifier loaded")
		}
	}

	if !cfg.DisableFormat {
		cmd := &format.Command{Argv: strings.Fields(cfg.FormatCommand), Timeout: cfg.FormatTimeout}
		n.Formatter = &format.Cached{Inner: cmd, Store: a.store, Identity: cmd.String()}
	}
	a.normalizer = n

	if cfg.Execute {
		a.executor = local.New(local.Config{
			WorkDir: cfg.ExecWorkDir,
			Timeout: cfg.ExecTimeout,
			Commands: map[snippet.Language][]string{
				snippet.Python: strings.Fields(cfg.PythonCommand),
				snippet.Sh:     strings.Fields(cfg.ShCommand),
			},
		})
	}
	return a, nil
}

// preflight lists models to surface connectivity problems early. It never
// fails the run.
func preflight(ctx context.Context, lister llm.ModelLister) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := lister.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	log.Debug().Int("count", len(models.Models)).Msg("LLM models available")
}

// SetIO replaces the standard streams, for tests and embedding.
func (a *App) SetIO(stdin io.Reader, stdout, stderr io.Writer) {
	a.stdin, a.stdout, a.stderr = stdin, stdout, stderr
}

// Close releases executor state.
func (a *App) Close() {
	if a.executor == nil {
		return
	}
	if err := a.executor.Restart(context.Background()); err != nil {
		log.Warn().Err(err).Msg("executor cleanup failed")
	}
}

// Run processes the input document. The returned Result holds the executed
// program's exit status; errors are pipeline failures (unreadable input,
// classification, execution timeout or cancellation, unwritable output).
func (a *App) Run(ctx context.Context) (execute.Result, error) {
	doc, err := a.readInput()
	if err != nil {
		return execute.Result{}, err
	}

	pairs, err := extract.Pairs(ctx, a.extractor(), doc, a.normalizer)
	if err != nil {
		return execute.Result{}, fmt.Errorf("normalize: %w", err)
	}
	log.Info().Int("snippets", len(pairs)).Str("classifier", a.cfg.Classifier).Msg("extracted snippets")

	run := report.Run{
		ID:          uuid.NewString(),
		Source:      a.cfg.InputPath,
		Classifier:  a.cfg.Classifier,
		GeneratedAt: time.Now(),
		Entries:     make([]report.Entry, 0, len(pairs)),
	}
	snippets := make([]snippet.Snippet, 0, len(pairs))
	for _, p := range pairs {
		run.Entries = append(run.Entries, report.Entry{Declared: p.Region.Declared(), Raw: p.Region.Body, Snippet: p.Snippet})
		snippets = append(snippets, p.Snippet)
	}

	if a.cfg.ShowDiff {
		for i, e := range run.Entries {
			d, err := report.NormalizationDiff(i, e)
			if err != nil {
				log.Warn().Err(err).Int("index", i).Msg("diff failed")
				continue
			}
			if d != "" {
				_, _ = io.WriteString(a.stderr, d)
			}
		}
	}

	var execErr error
	if a.executor != nil {
		run.Executed = true
		run.Result, execErr = a.executor.ExecuteCodeBlocks(ctx, snippets)
		run.Err = execErr
		log.Info().Int("exit", run.Result.ExitCode).Err(execErr).Msg("execution finished")
	}

	if err := a.writeOutputs(run); err != nil {
		return run.Result, err
	}
	if execErr != nil {
		return run.Result, fmt.Errorf("execute: %w", execErr)
	}
	return run.Result, nil
}

func (a *App) readInput() (string, error) {
	if a.cfg.InputPath == "-" {
		b, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(a.cfg.InputPath)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(b), nil
}

func (a *App) extractor() extract.Extractor {
	switch a.cfg.InputFormat {
	case "html":
		return extract.HTML{}
	case "markdown":
		return extract.Markdown{}
	}
	switch strings.ToLower(filepath.Ext(a.cfg.InputPath)) {
	case ".html", ".htm":
		return extract.HTML{}
	}
	return extract.Markdown{}
}

func (a *App) writeOutputs(run report.Run) error {
	md := report.Markdown(run)
	if a.cfg.OutputPath == "-" {
		if _, err := io.WriteString(a.stdout, md); err != nil {
			return fmt.Errorf("write transcript: %w", err)
		}
	} else if err := writeFileAtomic(a.cfg.OutputPath, []byte(md)); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}

	if a.cfg.OutputPDFPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(a.cfg.OutputPDFPath), 0o755); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	f, err := os.Create(a.cfg.OutputPDFPath)
	if err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	if err := report.WritePDF(md, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write pdf: %w", err)
	}
	return f.Close()
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".fencerun-*")
	if err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
