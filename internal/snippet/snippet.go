// Package snippet defines the normalized, language-labeled code unit handed
// to executors and the Normalizer that builds it.
package snippet

import (
	"sort"
	"strings"
)

// Language is a language label attached to a Snippet.
type Language string

const (
	Python   Language = "python"
	Sh       Language = "sh"
	Markdown Language = "markdown"
)

// Snippet is one normalized, language-labeled unit of code. The zero value is
// not a valid snippet; build one with Normalizer.Normalize.
type Snippet struct {
	text     string
	language Language
}

// Text returns the normalized source.
func (s Snippet) Text() string { return s.text }

// Language returns the classified language label.
func (s Snippet) Language() Language { return s.language }

// IsZero reports whether s was not produced by a Normalizer.
func (s Snippet) IsZero() bool { return s.language == "" }

// LanguageSet is the closed set of labels a Normalizer accepts from its
// classifier. Extend it with With; a set is never mutated in place.
type LanguageSet struct {
	labels map[Language]struct{}
}

// DefaultLanguages returns the set {python, sh, markdown}.
func DefaultLanguages() LanguageSet {
	return NewLanguageSet(Python, Sh, Markdown)
}

// NewLanguageSet builds a set from labels. Labels are lower-cased and blank
// entries are skipped.
func NewLanguageSet(labels ...Language) LanguageSet {
	set := LanguageSet{labels: make(map[Language]struct{}, len(labels))}
	for _, l := range labels {
		l = Language(strings.ToLower(strings.TrimSpace(string(l))))
		if l == "" {
			continue
		}
		set.labels[l] = struct{}{}
	}
	return set
}

// With returns a copy of the set extended by extra labels.
func (s LanguageSet) With(extra ...Language) LanguageSet {
	all := append(s.List(), extra...)
	return NewLanguageSet(all...)
}

// Lookup maps a raw classifier label to a Language. ok is false when the label
// is not in the set.
func (s LanguageSet) Lookup(label string) (Language, bool) {
	l := Language(strings.ToLower(strings.TrimSpace(label)))
	if l == "" {
		return "", false
	}
	_, ok := s.labels[l]
	return l, ok
}

// List returns the labels in sorted order.
func (s LanguageSet) List() []Language {
	out := make([]Language, 0, len(s.labels))
	for l := range s.labels {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of labels in the set.
func (s LanguageSet) Len() int { return len(s.labels) }
