package extract

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperifyio/fencerun/internal/snippet"
)

// keywordClassifier labels text containing print/def/import as python and
// everything else as sh.
type keywordClassifier struct{}

func (keywordClassifier) Classify(_ context.Context, text string) (string, error) {
	for _, kw := range []string{"print", "def ", "import "} {
		if strings.Contains(text, kw) {
			return "python", nil
		}
	}
	return "sh", nil
}

func newNormalizer() *snippet.Normalizer {
	return &snippet.Normalizer{Classifier: keywordClassifier{}}
}

func TestMarkdown_NoFences(t *testing.T) {
	docs := []string{"", "just prose", "inline `code` only", "``` not a fence on one line ```"}
	for _, doc := range docs {
		if got := (Markdown{}).Regions(doc); len(got) != 0 {
			t.Fatalf("doc %q: expected no regions, got %v", doc, got)
		}
		snippets, err := FromMarkdown(context.Background(), doc, nil)
		if err != nil {
			t.Fatalf("doc %q: unexpected error %v", doc, err)
		}
		if len(snippets) != 0 {
			t.Fatalf("doc %q: expected no snippets, got %d", doc, len(snippets))
		}
	}
}

func TestMarkdown_Regions(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []Region
	}{
		{
			name: "tagged and untagged in order",
			doc:  "a\n```python\nprint(1)\n```\nb\n```\nls\n```\n",
			want: []Region{{Body: "print(1)", Tag: "python"}, {Body: "ls"}},
		},
		{
			name: "unterminated fence ignored",
			doc:  "```sh\necho hi\n",
			want: nil,
		},
		{
			name: "empty body dropped",
			doc:  "```sh\n   \n\t\n```\n```sh\necho x\n```",
			want: []Region{{Body: "echo x", Tag: "sh"}},
		},
		{
			name: "whole body trimmed once",
			doc:  "```\n\n  x\n    y  \n\n```",
			want: []Region{{Body: "x\n    y"}},
		},
		{
			name: "tag with symbols",
			doc:  "```c++\nint x;\n```",
			want: []Region{{Body: "int x;", Tag: "c++"}},
		},
		{
			name: "crlf line endings",
			doc:  "```sh\r\necho hi\r\n```\r\n",
			want: []Region{{Body: "echo hi", Tag: "sh"}},
		},
		{
			name: "shortest span per region",
			doc:  "```sh\na\n```\ntext\n```python\nb\n```",
			want: []Region{{Body: "a", Tag: "sh"}, {Body: "b", Tag: "python"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := (Markdown{}).Regions(tt.doc)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("regions = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestRegion_Declared(t *testing.T) {
	if (Region{}).Declared() != "markdown" {
		t.Fatal("untagged region should declare the markdown placeholder")
	}
	if (Region{Tag: "sh"}).Declared() != "sh" {
		t.Fatal("tagged region should declare its tag")
	}
}

func TestFromMarkdown_ShScenario(t *testing.T) {
	doc := "Run:\n```sh\n  echo hi\n  echo bye\n```\n"
	snippets, err := FromMarkdown(context.Background(), doc, newNormalizer())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(snippets) != 1 {
		t.Fatalf("expected one snippet, got %d", len(snippets))
	}
	if snippets[0].Language() != snippet.Sh {
		t.Fatalf("language = %q, want sh", snippets[0].Language())
	}
	if snippets[0].Text() != "echo hi\necho bye" {
		t.Fatalf("text = %q", snippets[0].Text())
	}
}

func TestFromMarkdown_MarkdownTaggedExcluded(t *testing.T) {
	doc := "Intro\n```markdown\n# Title\n\nSome prose about the plan.\n```\n```sh\nls\n```\n"
	regions := (Markdown{}).Regions(doc)
	if len(regions) != 2 || regions[0].Tag != "markdown" {
		t.Fatalf("markdown region should still be parsed, got %v", regions)
	}
	snippets, err := FromMarkdown(context.Background(), doc, newNormalizer())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(snippets) != 1 || snippets[0].Text() != "ls" {
		t.Fatalf("expected only the sh snippet, got %v", snippets)
	}
}

func TestFromMarkdown_UntaggedIsClassified(t *testing.T) {
	doc := "```python\nprint('a')\n```\nthen\n```\n   echo done\n```\n"
	snippets, err := FromMarkdown(context.Background(), doc, newNormalizer())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(snippets) != 2 {
		t.Fatalf("expected two snippets, got %d", len(snippets))
	}
	if snippets[0].Language() != snippet.Python || snippets[1].Language() != snippet.Sh {
		t.Fatalf("languages = %q, %q", snippets[0].Language(), snippets[1].Language())
	}
	if snippets[1].Text() != "echo done" {
		t.Fatalf("text = %q", snippets[1].Text())
	}
}

func TestFromMarkdown_NormalizationErrorsPropagate(t *testing.T) {
	doc := "```sh\necho hi\n```"
	_, err := FromMarkdown(context.Background(), doc, &snippet.Normalizer{})
	if !errors.Is(err, snippet.ErrClassifierUnavailable) {
		t.Fatalf("err = %v, want ErrClassifierUnavailable", err)
	}
	_, err = FromMarkdown(context.Background(), doc, nil)
	if !errors.Is(err, snippet.ErrClassifierUnavailable) {
		t.Fatalf("nil normalizer: err = %v, want ErrClassifierUnavailable", err)
	}
}

func TestPairs_KeepsSourceRegion(t *testing.T) {
	doc := "```bash\n   ls\n   pwd\n```"
	pairs, err := Pairs(context.Background(), Markdown{}, doc, newNormalizer())
	if err != nil {
		t.Fatalf("pairs: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected one pair, got %d", len(pairs))
	}
	if pairs[0].Region.Body != "ls\n   pwd" || pairs[0].Snippet.Text() != "ls\npwd" {
		t.Fatalf("unexpected pair %+v / %q", pairs[0].Region, pairs[0].Snippet.Text())
	}
}
