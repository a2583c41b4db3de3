package snippet

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Classifier predicts a language label for a piece of source text.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// Formatter rewrites source text into a canonical layout. Failures are
// reported to the caller, who decides whether they are fatal.
type Formatter interface {
	Format(ctx context.Context, code string) (string, error)
}

// Normalizer turns a raw fenced body and its declared tag into a Snippet.
// It holds only read-only collaborators and is safe for concurrent use.
type Normalizer struct {
	// Classifier chooses the final language. Nil means the classifier failed
	// to load and every Normalize call fails with ErrClassifierUnavailable.
	Classifier Classifier
	// Formatter is applied to python bodies. Nil leaves them as-is.
	Formatter Formatter
	// Languages is the accepted label set. Zero value means DefaultLanguages.
	Languages LanguageSet
	// Logger receives formatting warnings. Nil uses the global logger.
	Logger *zerolog.Logger
}

// Normalize builds a Snippet from raw text. The declared language only picks
// the formatting rule; the final label always comes from the classifier run
// on the formatted text.
func (n *Normalizer) Normalize(ctx context.Context, raw string, declared string) (Snippet, error) {
	if n.Classifier == nil {
		return Snippet{}, ErrClassifierUnavailable
	}
	text := strings.TrimSpace(raw)
	switch formattingRule(declared) {
	case Sh:
		text = trimLineStarts(text)
	case Python:
		text = n.formatPython(ctx, text)
	default:
		text = trimGeneric(text)
	}

	label, err := n.Classifier.Classify(ctx, text)
	if err != nil {
		return Snippet{}, fmt.Errorf("classify: %w", err)
	}
	lang, ok := n.languages().Lookup(label)
	if !ok {
		return Snippet{}, &LanguageError{Label: label}
	}
	return Snippet{text: text, language: lang}, nil
}

func (n *Normalizer) languages() LanguageSet {
	if n.Languages.Len() == 0 {
		return DefaultLanguages()
	}
	return n.Languages
}

func (n *Normalizer) logger() *zerolog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return &log.Logger
}

func (n *Normalizer) formatPython(ctx context.Context, text string) string {
	if n.Formatter == nil {
		return text
	}
	out, err := n.Formatter.Format(ctx, text)
	if err != nil {
		n.logger().Warn().Err(err).Int("len", len(text)).Msg("python formatting failed; keeping original")
		return text
	}
	return strings.TrimSpace(out)
}

// formattingRule maps a declared tag to the rule that formats it. Unknown
// tags, including the markdown placeholder, use the generic rule.
func formattingRule(declared string) Language {
	switch strings.ToLower(strings.TrimSpace(declared)) {
	case "sh", "bash", "shell", "zsh":
		return Sh
	case "python", "py", "python3":
		return Python
	default:
		return ""
	}
}

// trimLineStarts strips leading whitespace from every line.
func trimLineStarts(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimLeftFunc(line, unicode.IsSpace)
	}
	return strings.Join(lines, "\n")
}

// trimGeneric strips leading whitespace from a single line, or trailing
// whitespace from each line of a multi-line body.
func trimGeneric(text string) string {
	if !strings.Contains(text, "\n") {
		return strings.TrimLeftFunc(text, unicode.IsSpace)
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	return strings.Join(lines, "\n")
}
