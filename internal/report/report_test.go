package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/fencerun/internal/execute"
	"github.com/hyperifyio/fencerun/internal/snippet"
)

type labelClassifier string

func (l labelClassifier) Classify(context.Context, string) (string, error) { return string(l), nil }

func entry(t *testing.T, declared, raw, label string) Entry {
	t.Helper()
	n := &snippet.Normalizer{Classifier: labelClassifier(label)}
	s, err := n.Normalize(context.Background(), raw, declared)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return Entry{Declared: declared, Raw: raw, Snippet: s}
}

func TestMarkdown_Executed(t *testing.T) {
	run := Run{
		ID:          "run-1",
		Source:      "reply.md",
		Classifier:  "bayes",
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Entries: []Entry{
			entry(t, "bash", "echo hi\n   echo bye", "sh"),
			entry(t, "markdown", "print(1)", "python"),
		},
		Executed: true,
		Result:   execute.Result{ExitCode: 0, Output: "hi\nbye\n1"},
	}
	md := Markdown(run)
	for _, want := range []string{
		"# fencerun transcript",
		"- Run: run-1",
		"- Generated: 2024-05-01T12:00:00Z",
		"- Snippets: 2",
		"## Snippet 1\n\n- Declared: bash\n- Classified: sh\n",
		"```sh\necho hi\necho bye\n```",
		"## Snippet 2\n\n- Declared: markdown\n- Classified: python\n",
		"- Exit code: 0",
		"```text\nhi\nbye\n1\n```",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("transcript missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdown_DisabledAndFailed(t *testing.T) {
	e := entry(t, "sh", "sleep 10", "sh")
	md := Markdown(Run{Entries: []Entry{e}})
	if !strings.Contains(md, "Execution disabled.") {
		t.Fatalf("expected disabled marker:\n%s", md)
	}
	if strings.Contains(md, "- Run:") {
		t.Fatalf("empty fields must be omitted:\n%s", md)
	}

	failed := Markdown(Run{
		Entries:  []Entry{e},
		Executed: true,
		Result:   execute.Result{Output: "partial"},
		Err:      &execute.Error{Kind: execute.KindTimeout, Index: 0, Err: errors.New("budget")},
	})
	if !strings.Contains(failed, "- Failure: timeout (snippet 0): budget") || !strings.Contains(failed, "partial") {
		t.Fatalf("failure not rendered:\n%s", failed)
	}
	if strings.Contains(failed, "Exit code") {
		t.Fatalf("failed run must not report an exit code:\n%s", failed)
	}
}

func TestMarkdown_FenceInsideSnippet(t *testing.T) {
	e := entry(t, "sh", "cat <<EOF\n```\nEOF", "sh")
	md := Markdown(Run{Entries: []Entry{e}})
	if !strings.Contains(md, "~~~~sh\ncat <<EOF\n```\nEOF\n~~~~") {
		t.Fatalf("expected tilde fence:\n%s", md)
	}
}

func TestNormalizationDiff(t *testing.T) {
	e := entry(t, "sh", "echo a\n    echo b", "sh")
	d, err := NormalizationDiff(0, e)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	for _, want := range []string{"--- snippet 1 (sh, raw)", "+++ snippet 1 (sh, normalized)", "-    echo b", "+echo b"} {
		if !strings.Contains(d, want) {
			t.Fatalf("diff missing %q:\n%s", want, d)
		}
	}

	same := entry(t, "sh", "echo a", "sh")
	if d, err := NormalizationDiff(1, same); err != nil || d != "" {
		t.Fatalf("unchanged snippet: %q, %v", d, err)
	}
}

func TestWritePDF(t *testing.T) {
	run := Run{
		ID:       "run-2",
		Entries:  []Entry{entry(t, "python", "def f():\n\treturn 1", "python")},
		Executed: true,
		Result:   execute.Result{ExitCode: 1, Output: "Traceback: naïve error"},
	}
	var buf bytes.Buffer
	if err := WritePDF(Markdown(run), &buf); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:16])
	}
}
