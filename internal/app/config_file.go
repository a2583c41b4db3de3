package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	yaml "gopkg.in/yaml.v3"
)

// Duration decodes "90s"-style strings from YAML, JSON and TOML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to the dotted flag names.
type FileConfig struct {
	Input       string `yaml:"input" json:"input" toml:"input"`
	InputFormat string `yaml:"inputFormat" json:"inputFormat" toml:"inputFormat"`
	Output      string `yaml:"output" json:"output" toml:"output"`
	OutputPDF   string `yaml:"outputPDF" json:"outputPDF" toml:"outputPDF"`

	Model struct {
		Dir string `yaml:"dir" json:"dir" toml:"dir"`
	} `yaml:"model" json:"model" toml:"model"`

	Classifier string `yaml:"classifier" json:"classifier" toml:"classifier"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base" toml:"base"`
		Model   string `yaml:"model" json:"model" toml:"model"`
		APIKey  string `yaml:"key" json:"key" toml:"key"`
	} `yaml:"llm" json:"llm" toml:"llm"`

	Format struct {
		Command string   `yaml:"command" json:"command" toml:"command"`
		Timeout Duration `yaml:"timeout" json:"timeout" toml:"timeout"`
		Disable bool     `yaml:"disable" json:"disable" toml:"disable"`
	} `yaml:"format" json:"format" toml:"format"`

	Exec struct {
		Enable  bool     `yaml:"enable" json:"enable" toml:"enable"`
		WorkDir string   `yaml:"workDir" json:"workDir" toml:"workDir"`
		Timeout Duration `yaml:"timeout" json:"timeout" toml:"timeout"`
		Python  string   `yaml:"python" json:"python" toml:"python"`
		Sh      string   `yaml:"sh" json:"sh" toml:"sh"`
	} `yaml:"exec" json:"exec" toml:"exec"`

	Cache struct {
		Dir         string   `yaml:"dir" json:"dir" toml:"dir"`
		MaxAge      Duration `yaml:"maxAge" json:"maxAge" toml:"maxAge"`
		MaxEntries  int      `yaml:"maxEntries" json:"maxEntries" toml:"maxEntries"`
		Clear       bool     `yaml:"clear" json:"clear" toml:"clear"`
		StrictPerms bool     `yaml:"strictPerms" json:"strictPerms" toml:"strictPerms"`
	} `yaml:"cache" json:"cache" toml:"cache"`

	Languages struct {
		Extra []string `yaml:"extra" json:"extra" toml:"extra"`
	} `yaml:"languages" json:"languages" toml:"languages"`

	Verbose bool `yaml:"verbose" json:"verbose" toml:"verbose"`
	Diff    bool `yaml:"diff" json:"diff" toml:"diff"`
}

// LoadConfigFile reads YAML, JSON or TOML into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse toml: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are unset or still hold their flag default. Explicit flags win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setString(&cfg.InputPath, DefaultInputPath, fc.Input)
	setString(&cfg.InputFormat, "", fc.InputFormat)
	setString(&cfg.OutputPath, DefaultOutputPath, fc.Output)
	setString(&cfg.OutputPDFPath, "", fc.OutputPDF)

	setString(&cfg.ModelDir, DefaultModelDir, fc.Model.Dir)
	setString(&cfg.Classifier, DefaultClassifier, fc.Classifier)
	setString(&cfg.LLMBaseURL, "", fc.LLM.BaseURL)
	setString(&cfg.LLMModel, "", fc.LLM.Model)
	setString(&cfg.LLMAPIKey, "", fc.LLM.APIKey)
	if len(cfg.ExtraLanguages) == 0 && len(fc.Languages.Extra) > 0 {
		cfg.ExtraLanguages = append([]string{}, fc.Languages.Extra...)
	}

	setString(&cfg.FormatCommand, DefaultFormatCommand, fc.Format.Command)
	setDuration(&cfg.FormatTimeout, DefaultFormatTimeout, fc.Format.Timeout)
	if !cfg.DisableFormat && fc.Format.Disable {
		cfg.DisableFormat = true
	}

	if !cfg.Execute && fc.Exec.Enable {
		cfg.Execute = true
	}
	setString(&cfg.ExecWorkDir, "", fc.Exec.WorkDir)
	setDuration(&cfg.ExecTimeout, DefaultExecTimeout, fc.Exec.Timeout)
	setString(&cfg.PythonCommand, DefaultPython, fc.Exec.Python)
	setString(&cfg.ShCommand, DefaultSh, fc.Exec.Sh)

	setString(&cfg.CacheDir, DefaultCacheDir, fc.Cache.Dir)
	setDuration(&cfg.CacheMaxAge, 0, fc.Cache.MaxAge)
	if cfg.CacheMaxEntries == 0 && fc.Cache.MaxEntries > 0 {
		cfg.CacheMaxEntries = fc.Cache.MaxEntries
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}

	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
	if !cfg.ShowDiff && fc.Diff {
		cfg.ShowDiff = true
	}
}

func setString(dst *string, def, v string) {
	if (*dst == "" || *dst == def) && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setDuration(dst *time.Duration, def time.Duration, v Duration) {
	if (*dst == 0 || *dst == def) && v > 0 {
		*dst = time.Duration(v)
	}
}

// ValidateConfig performs minimal validation of required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.InputPath) == "" {
		return errors.New("config: input path is required")
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		return errors.New("config: output path is required")
	}
	switch cfg.InputFormat {
	case "", "markdown", "html":
	default:
		return fmt.Errorf("config: unknown input format %q", cfg.InputFormat)
	}
	switch cfg.Classifier {
	case ClassifierBayes:
		if strings.TrimSpace(cfg.ModelDir) == "" {
			return errors.New("config: model.dir is required for the bayes classifier")
		}
	case ClassifierLLM:
		if strings.TrimSpace(cfg.LLMModel) == "" {
			return errors.New("config: llm.model is required (or set LLM_MODEL)")
		}
	default:
		return fmt.Errorf("config: unknown classifier %q", cfg.Classifier)
	}
	if !cfg.DisableFormat && len(strings.Fields(cfg.FormatCommand)) == 0 {
		return errors.New("config: format.command is empty (use format.disable to skip formatting)")
	}
	if cfg.Execute {
		if len(strings.Fields(cfg.PythonCommand)) == 0 || len(strings.Fields(cfg.ShCommand)) == 0 {
			return errors.New("config: exec.python and exec.sh must name a command")
		}
	}
	if cfg.ExecTimeout < 0 || cfg.FormatTimeout < 0 || cfg.CacheMaxAge < 0 || cfg.CacheMaxEntries < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}
