package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// HTML extracts <pre> blocks from a rendered reply. The declared language
// comes from a language-xxx or lang-xxx class on the <pre> or its <code>.
type HTML struct{}

// Regions implements Extractor.
func (HTML) Regions(document string) []Region {
	node, err := html.Parse(strings.NewReader(document))
	if err != nil || node == nil {
		return nil
	}
	var out []Region
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "pre") {
			if r, ok := preRegion(n); ok {
				out = append(out, r)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return out
}

func preRegion(pre *html.Node) (Region, bool) {
	var b strings.Builder
	collectText(&b, pre)
	body := strings.TrimSpace(b.String())
	if body == "" {
		return Region{}, false
	}
	tag := classLanguage(pre)
	if tag == "" {
		if code := findFirst(pre, "code"); code != nil {
			tag = classLanguage(code)
		}
	}
	return Region{Body: body, Tag: tag}, true
}

func collectText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
	case html.ElementNode:
		if strings.EqualFold(n.Data, "br") {
			b.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

func classLanguage(n *html.Node) string {
	for _, attr := range n.Attr {
		if !strings.EqualFold(attr.Key, "class") {
			continue
		}
		for _, class := range strings.Fields(attr.Val) {
			for _, prefix := range []string{"language-", "lang-"} {
				if strings.HasPrefix(class, prefix) && len(class) > len(prefix) {
					return class[len(prefix):]
				}
			}
		}
	}
	return ""
}

func findFirst(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && strings.EqualFold(c.Data, tag) {
			return c
		}
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}
