// Package extract finds fenced code regions in agent replies and turns them
// into normalized snippets.
package extract

import (
	"context"
	"strings"

	"github.com/hyperifyio/fencerun/internal/snippet"
)

// Region is one code region as written by the author. Body is trimmed; Tag
// is the fence tag and is empty when the author gave none.
type Region struct {
	Body string
	Tag  string
}

// Declared returns the tag, or the markdown placeholder for untagged regions.
func (r Region) Declared() string {
	if r.Tag == "" {
		return string(snippet.Markdown)
	}
	return r.Tag
}

// Executable reports whether the region should become a snippet. Regions
// the author tagged as markdown are parsed but never executed; untagged
// regions are classified like any other.
func (r Region) Executable() bool {
	return !strings.EqualFold(r.Tag, "markdown") && !strings.EqualFold(r.Tag, "md")
}

// Extractor finds code regions in a document. Implementations never fail:
// malformed input yields fewer regions.
type Extractor interface {
	Regions(document string) []Region
}

// Pair keeps a region next to the snippet built from it.
type Pair struct {
	Region  Region
	Snippet snippet.Snippet
}

// Pairs extracts executable regions from document and normalizes each one,
// in document order. Normalization errors abort the extraction.
func Pairs(ctx context.Context, ex Extractor, document string, n *snippet.Normalizer) ([]Pair, error) {
	if n == nil {
		n = &snippet.Normalizer{}
	}
	var out []Pair
	for _, r := range ex.Regions(document) {
		if !r.Executable() {
			continue
		}
		s, err := n.Normalize(ctx, r.Body, r.Declared())
		if err != nil {
			return nil, err
		}
		out = append(out, Pair{Region: r, Snippet: s})
	}
	return out, nil
}

// Extract is Pairs without the source regions.
func Extract(ctx context.Context, ex Extractor, document string, n *snippet.Normalizer) ([]snippet.Snippet, error) {
	pairs, err := Pairs(ctx, ex, document, n)
	if err != nil {
		return nil, err
	}
	out := make([]snippet.Snippet, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.Snippet)
	}
	return out, nil
}

// FromMarkdown extracts snippets from a markdown document.
func FromMarkdown(ctx context.Context, document string, n *snippet.Normalizer) ([]snippet.Snippet, error) {
	return Extract(ctx, Markdown{}, document, n)
}
