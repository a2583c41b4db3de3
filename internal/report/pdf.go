package report

import (
	"bufio"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF renders a Markdown transcript as a plain PDF. Headings are bold,
// fenced blocks use a monospace font, and everything else is wrapped text.
// It is not a Markdown layout engine.
func WritePDF(markdown string, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	inCode := false
	fence := ""
	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		s := strings.TrimSpace(line)
		if inCode {
			if s == fence {
				inCode = false
				pdf.SetFont("Helvetica", "", 11)
				pdf.Ln(3)
				continue
			}
			pdf.MultiCell(0, 4.5, tr(expandTabs(line)), "", "L", true)
			continue
		}
		if f := openingFence(s); f != "" {
			inCode = true
			fence = f
			pdf.SetFont("Courier", "", 9)
			pdf.SetFillColor(242, 242, 242)
			continue
		}
		if s == "" {
			pdf.Ln(4)
			continue
		}
		if strings.HasPrefix(s, "#") {
			i := 0
			for i < len(s) && s[i] == '#' {
				i++
			}
			text := strings.TrimSpace(s[i:])
			if text == "" {
				continue
			}
			size := 15.0
			if i >= 2 {
				size = 12.0
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		pdf.MultiCell(0, 5, tr(s), "", "L", false)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func openingFence(s string) string {
	for _, f := range []string{"~~~~", "```"} {
		if strings.HasPrefix(s, f) {
			return f
		}
	}
	return ""
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
