// Package report renders the transcript of a run as Markdown, PDF, or a
// per-snippet normalization diff.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/hyperifyio/fencerun/internal/execute"
	"github.com/hyperifyio/fencerun/internal/snippet"
)

// Entry is one extracted snippet together with what the author wrote.
type Entry struct {
	// Declared is the fence tag, or the markdown placeholder.
	Declared string
	// Raw is the trimmed region body before normalization.
	Raw     string
	Snippet snippet.Snippet
}

// Run describes one pipeline run.
type Run struct {
	ID          string
	Source      string
	Classifier  string
	GeneratedAt time.Time
	Entries     []Entry
	// Executed is false when execution was disabled.
	Executed bool
	Result   execute.Result
	// Err is the execution failure, if any.
	Err error
}

// Markdown renders run as a Markdown transcript.
func Markdown(run Run) string {
	var b strings.Builder
	b.WriteString("# fencerun transcript\n\n")
	writeField(&b, "Run", run.ID)
	writeField(&b, "Source", run.Source)
	writeField(&b, "Classifier", run.Classifier)
	if !run.GeneratedAt.IsZero() {
		writeField(&b, "Generated", run.GeneratedAt.UTC().Format(time.RFC3339))
	}
	writeField(&b, "Snippets", strconv.Itoa(len(run.Entries)))

	for i, e := range run.Entries {
		b.WriteString("\n## Snippet ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString("\n\n")
		writeField(&b, "Declared", e.Declared)
		writeField(&b, "Classified", string(e.Snippet.Language()))
		writeField(&b, "SHA-256", digest(e.Snippet.Text()))
		b.WriteString("\n")
		writeBlock(&b, string(e.Snippet.Language()), e.Snippet.Text())
	}

	b.WriteString("\n## Execution\n\n")
	switch {
	case !run.Executed:
		b.WriteString("Execution disabled.\n")
	case run.Err != nil:
		writeField(&b, "Failure", run.Err.Error())
		if run.Result.Output != "" {
			b.WriteString("\n")
			writeBlock(&b, "text", run.Result.Output)
		}
	default:
		writeField(&b, "Exit code", strconv.Itoa(run.Result.ExitCode))
		b.WriteString("\n")
		writeBlock(&b, "text", run.Result.Output)
	}
	return b.String()
}

func writeField(b *strings.Builder, name, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	b.WriteString("- ")
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(strings.TrimSpace(value))
	b.WriteString("\n")
}

// writeBlock fences text, switching to tildes when the text holds backticks
// fences itself.
func writeBlock(b *strings.Builder, tag, text string) {
	fence := "```"
	if strings.Contains(text, "```") {
		fence = "~~~~"
	}
	b.WriteString(fence)
	b.WriteString(tag)
	b.WriteString("\n")
	b.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(fence)
	b.WriteString("\n")
}

func digest(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
