package report

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// NormalizationDiff returns a unified diff from the raw region body to the
// normalized snippet text. It is empty when normalization changed nothing.
func NormalizationDiff(index int, e Entry) (string, error) {
	if e.Raw == e.Snippet.Text() {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(e.Raw),
		B:        difflib.SplitLines(e.Snippet.Text()),
		FromFile: fmt.Sprintf("snippet %d (%s, raw)", index+1, e.Declared),
		ToFile:   fmt.Sprintf("snippet %d (%s, normalized)", index+1, e.Snippet.Language()),
		Context:  3,
	}
	out, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff snippet %d: %w", index+1, err)
	}
	return out, nil
}
