package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/fencerun/internal/app"
)

// exitPipelineFailure is returned when the pipeline itself fails, as opposed
// to an executed program exiting non-zero.
const exitPipelineFailure = 2

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := realMain(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

// realMain parses args, runs the pipeline and returns the process exit code.
func realMain(ctx context.Context, args []string, stdout io.Writer) int {
	cfg, showVersion, err := parseConfig(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		log.Error().Err(err).Msg("invalid configuration")
		return exitPipelineFailure
	}
	if showVersion {
		fmt.Fprintln(stdout, app.VersionString())
		return 0
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	exitCode, err := run(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		return exitPipelineFailure
	}
	return exitCode
}

// parseConfig builds the configuration with precedence flags > env > config
// file > defaults. Dotenv files named by -env are loaded into the
// environment first.
func parseConfig(args []string) (app.Config, bool, error) {
	fs := flag.NewFlagSet("fencerun", flag.ContinueOnError)
	def := app.DefaultConfig()
	var (
		cfg         app.Config
		configPath  string
		envFiles    string
		extraLangs  string
		showVersion bool
	)

	fs.StringVar(&cfg.InputPath, "input", def.InputPath, "Document to read; '-' reads stdin")
	fs.StringVar(&cfg.InputFormat, "input.format", "", "Input format: markdown or html (default: by file extension)")
	fs.StringVar(&cfg.OutputPath, "output", def.OutputPath, "Where to write the Markdown transcript; '-' writes stdout")
	fs.StringVar(&cfg.OutputPDFPath, "outputPDF", "", "Optional path for a PDF rendering of the transcript")
	fs.StringVar(&cfg.ModelDir, "model.dir", def.ModelDir, "Directory holding the classifier artifacts")
	fs.StringVar(&cfg.Classifier, "classifier", def.Classifier, "Language classifier: bayes or llm")
	fs.StringVar(&cfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL for the llm classifier")
	fs.StringVar(&cfg.LLMModel, "llm.model", "", "Model name for the llm classifier")
	fs.StringVar(&cfg.LLMAPIKey, "llm.key", "", "API key for the OpenAI-compatible server")
	fs.StringVar(&extraLangs, "languages.extra", "", "Comma-separated labels accepted in addition to python, sh and markdown")
	fs.StringVar(&cfg.FormatCommand, "format.command", def.FormatCommand, "Python formatter command; code on stdin, result on stdout")
	fs.DurationVar(&cfg.FormatTimeout, "format.timeout", def.FormatTimeout, "Timeout for one formatter invocation")
	fs.BoolVar(&cfg.DisableFormat, "format.disable", false, "Skip external formatting")
	fs.BoolVar(&cfg.Execute, "exec", false, "Run the extracted snippets locally (no sandbox)")
	fs.StringVar(&cfg.ExecWorkDir, "exec.workDir", "", "Parent directory for session work dirs (default: system temp)")
	fs.DurationVar(&cfg.ExecTimeout, "exec.timeout", def.ExecTimeout, "Time budget for running all snippets; 0 disables")
	fs.StringVar(&cfg.PythonCommand, "exec.python", def.PythonCommand, "Command that runs a python snippet file")
	fs.StringVar(&cfg.ShCommand, "exec.sh", def.ShCommand, "Command that runs a sh snippet file")
	fs.StringVar(&cfg.CacheDir, "cache.dir", def.CacheDir, "Cache directory for formatter and llm results; empty disables")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this at startup; 0 disables")
	fs.IntVar(&cfg.CacheMaxEntries, "cache.maxEntries", 0, "Keep at most this many cache entries; 0 disables")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear the cache directory before the run")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.BoolVar(&cfg.ShowDiff, "diff", false, "Print a unified diff of each snippet's normalization to stderr")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	fs.StringVar(&configPath, "config", "", "Optional YAML, JSON or TOML config file")
	fs.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return cfg, false, err
	}
	if showVersion {
		return cfg, true, nil
	}
	if fs.NArg() == 1 && cfg.InputPath == def.InputPath {
		cfg.InputPath = fs.Arg(0)
	} else if fs.NArg() > 0 {
		return cfg, false, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if s := strings.TrimSpace(extraLangs); s != "" {
		for _, p := range strings.Split(s, ",") {
			if v := strings.TrimSpace(p); v != "" {
				cfg.ExtraLanguages = append(cfg.ExtraLanguages, v)
			}
		}
	}

	loaded, err := app.LoadEnvFiles(strings.Split(envFiles, ",")...)
	if err != nil {
		return cfg, false, fmt.Errorf("load env: %w", err)
	}
	if len(loaded) > 0 {
		log.Debug().Strs("files", loaded).Msg("loaded env files")
	}
	app.ApplyEnvToConfig(&cfg)
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return cfg, false, fmt.Errorf("load config: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	if err := app.ValidateConfig(cfg); err != nil {
		return cfg, false, err
	}
	return cfg, false, nil
}

// run executes the pipeline and returns the executed program's exit code.
func run(ctx context.Context, cfg app.Config) (int, error) {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return 0, fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	res, err := a.Run(ctx)
	if err != nil {
		return 0, err
	}
	return res.ExitCode, nil
}
