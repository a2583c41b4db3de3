package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// InputPath is the document to read; "-" reads stdin.
	InputPath string
	// InputFormat is "markdown", "html", or empty to pick by file extension.
	InputFormat string
	// OutputPath receives the Markdown transcript; "-" writes stdout.
	OutputPath    string
	OutputPDFPath string

	// Classification
	ModelDir   string
	Classifier string
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
	// ExtraLanguages extends the accepted label set.
	ExtraLanguages []string

	// Formatting
	FormatCommand string
	FormatTimeout time.Duration
	DisableFormat bool

	// Execution
	Execute       bool
	ExecWorkDir   string
	ExecTimeout   time.Duration
	PythonCommand string
	ShCommand     string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheMaxEntries  int
	CacheClear       bool
	CacheStrictPerms bool

	// Behavior
	Verbose  bool
	ShowDiff bool
}

// Classifier names.
const (
	ClassifierBayes = "bayes"
	ClassifierLLM   = "llm"
)

// Flag defaults. Overlays treat a field still holding its default as unset.
const (
	DefaultInputPath     = "-"
	DefaultOutputPath    = "-"
	DefaultModelDir      = "model"
	DefaultClassifier    = ClassifierBayes
	DefaultFormatCommand = "black - --quiet --fast"
	DefaultFormatTimeout = 30 * time.Second
	DefaultExecTimeout   = 60 * time.Second
	DefaultPython        = "python3"
	DefaultSh            = "sh"
	DefaultCacheDir      = ".fencerun-cache"
)

// DefaultConfig returns a Config holding every flag default.
func DefaultConfig() Config {
	return Config{
		InputPath:     DefaultInputPath,
		OutputPath:    DefaultOutputPath,
		ModelDir:      DefaultModelDir,
		Classifier:    DefaultClassifier,
		FormatCommand: DefaultFormatCommand,
		FormatTimeout: DefaultFormatTimeout,
		ExecTimeout:   DefaultExecTimeout,
		PythonCommand: DefaultPython,
		ShCommand:     DefaultSh,
		CacheDir:      DefaultCacheDir,
	}
}
