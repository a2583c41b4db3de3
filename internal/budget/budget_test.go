package budget

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
	}
	for _, c := range cases {
		if got := EstimateTokens(c.in); got != c.want {
			t.Fatalf("EstimateTokens(%d chars) = %d, want %d", len(c.in), got, c.want)
		}
	}
	// system(6)->2, user(12)->3, 3->1, 4->1
	if got := EstimatePromptTokens("system", "user message", "abc", "defg"); got != 7 {
		t.Fatalf("EstimatePromptTokens() = %d, want 7", got)
	}
}

func TestModelContextTokens(t *testing.T) {
	if ModelContextTokens("") != 8192 {
		t.Fatal("empty model should default to 8192")
	}
	if ModelContextTokens("LLAMA-3.1") != 128_000 {
		t.Fatal("lookup must be case-insensitive")
	}
	if ModelContextTokens("mystery-512k") != 512_000 {
		t.Fatal("size suffix should map to its token count")
	}
	if ModelContextTokens("qwen-coder-mini") != 128_000 {
		t.Fatal("mini models default to 128k")
	}
}

func TestRemaining(t *testing.T) {
	if got := Remaining("", 0, 0); got != 8192-512 {
		t.Fatalf("Remaining = %d, want %d", got, 8192-512)
	}
	if got := Remaining("gpt-oss-20b", 100, 10_000); got != 0 {
		t.Fatalf("overflow must clamp to 0, got %d", got)
	}
	if h := HeadroomTokens("gpt-4o"); h < 6400 || h > 6401 {
		t.Fatalf("headroom for gpt-4o = %d, want 5%% of 128k", h)
	}
}

func TestClip(t *testing.T) {
	text := "line one\nline two\nline three"
	if got, cut := Clip(text, 100); got != text || cut {
		t.Fatalf("short text must not change: %q %v", got, cut)
	}
	got, cut := Clip(text, 4)
	if !cut || got != "line one" {
		t.Fatalf("Clip = %q %v, want first line", got, cut)
	}
	if got, cut := Clip(text, 0); got != "" || !cut {
		t.Fatalf("zero budget = %q %v", got, cut)
	}
	multi := strings.Repeat("é", 10)
	got, _ = Clip(multi, 1)
	if !utf8.ValidString(got) || got != "éé" {
		t.Fatalf("Clip split a rune: %q", got)
	}
}
