package extract

import (
	"context"
	"strconv"
	"strings"
	"testing"
)

func makeReply(blocks int) string {
	var b strings.Builder
	for i := 0; i < blocks; i++ {
		b.WriteString("Step explanation with some prose.\n\n```sh\n  echo step\n  ls -la /tmp\n```\n\n")
		b.WriteString("```python\nfor i in range(3):\n    print(i)\n```\n\n")
	}
	return b.String()
}

func BenchmarkMarkdownRegions(b *testing.B) {
	for _, n := range []int{1, 20, 200} {
		doc := makeReply(n)
		b.Run(strconv.Itoa(n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = (Markdown{}).Regions(doc)
			}
		})
	}
}

func BenchmarkFromMarkdown(b *testing.B) {
	doc := makeReply(20)
	n := newNormalizer()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := FromMarkdown(context.Background(), doc, n); err != nil {
			b.Fatal(err)
		}
	}
}
