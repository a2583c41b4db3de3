package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// A field still holding its flag default counts as unset; explicit values
// take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	setString(&cfg.ModelDir, DefaultModelDir, os.Getenv("MODEL_DIR"))
	setString(&cfg.Classifier, DefaultClassifier, os.Getenv("CLASSIFIER"))
	setString(&cfg.LLMBaseURL, "", os.Getenv("LLM_BASE_URL"))
	setString(&cfg.LLMModel, "", os.Getenv("LLM_MODEL"))
	setString(&cfg.LLMAPIKey, "", os.Getenv("LLM_API_KEY"))
	setString(&cfg.FormatCommand, DefaultFormatCommand, os.Getenv("FORMAT_COMMAND"))
	setString(&cfg.ExecWorkDir, "", os.Getenv("EXEC_WORKDIR"))
	setString(&cfg.PythonCommand, DefaultPython, os.Getenv("EXEC_PYTHON"))
	setString(&cfg.ShCommand, DefaultSh, os.Getenv("EXEC_SH"))
	setString(&cfg.CacheDir, DefaultCacheDir, os.Getenv("CACHE_DIR"))

	if len(cfg.ExtraLanguages) == 0 {
		cfg.ExtraLanguages = splitList(os.Getenv("LANGUAGES_EXTRA"))
	}

	// Optional durations
	envDuration := func(dst *time.Duration, def time.Duration, key string) {
		if *dst != 0 && *dst != def {
			return
		}
		if s := strings.TrimSpace(os.Getenv(key)); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				*dst = d
			}
		}
	}
	envDuration(&cfg.FormatTimeout, DefaultFormatTimeout, "FORMAT_TIMEOUT")
	envDuration(&cfg.ExecTimeout, DefaultExecTimeout, "EXEC_TIMEOUT")
	envDuration(&cfg.CacheMaxAge, 0, "CACHE_MAX_AGE")

	if cfg.CacheMaxEntries == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("CACHE_MAX_ENTRIES"))); err == nil && n > 0 {
			cfg.CacheMaxEntries = n
		}
	}

	// Booleans
	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			if s == "1" || s == "true" || s == "yes" || s == "on" {
				*dst = true
			}
		}
	}
	setBool(&cfg.DisableFormat, "FORMAT_DISABLE")
	setBool(&cfg.Execute, "EXEC_ENABLE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.Verbose, "VERBOSE")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
