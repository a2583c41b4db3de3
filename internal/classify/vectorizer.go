package classify

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Vectorizer is a fitted TF-IDF vectorizer. Field names follow the
// scikit-learn attributes it is exported from.
type Vectorizer struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	Lowercase   bool           `json:"lowercase"`
	StripAccent string         `json:"strip_accents,omitempty"`
	SublinearTF bool           `json:"sublinear_tf,omitempty"`
	Norm        string         `json:"norm,omitempty"`
	NgramRange  []int          `json:"ngram_range,omitempty"`
}

// tokenPattern matches runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Dim returns the feature dimension.
func (v *Vectorizer) Dim() int { return len(v.IDF) }

// Transform maps text to a sparse feature vector keyed by feature index.
func (v *Vectorizer) Transform(text string) map[int]float64 {
	counts := make(map[int]float64)
	for _, term := range v.terms(text) {
		if idx, ok := v.Vocabulary[term]; ok {
			counts[idx]++
		}
	}
	for idx, tf := range counts {
		if v.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		counts[idx] = tf * v.IDF[idx]
	}
	switch v.Norm {
	case "l2":
		var sum float64
		for _, x := range counts {
			sum += x * x
		}
		scale(counts, math.Sqrt(sum))
	case "l1":
		var sum float64
		for _, x := range counts {
			sum += math.Abs(x)
		}
		scale(counts, sum)
	}
	return counts
}

func scale(vec map[int]float64, by float64) {
	if by == 0 {
		return
	}
	for idx := range vec {
		vec[idx] /= by
	}
}

// terms runs preprocessing, tokenization and n-gram expansion.
func (v *Vectorizer) terms(text string) []string {
	if v.StripAccent == "unicode" {
		text = stripAccents(text)
	}
	if v.Lowercase {
		// Casers carry state; one per call keeps Transform safe for concurrent use.
		text = cases.Lower(language.Und).String(text)
	}
	tokens := tokenPattern.FindAllString(text, -1)
	lo, hi := 1, 1
	if len(v.NgramRange) == 2 {
		lo, hi = v.NgramRange[0], v.NgramRange[1]
	}
	if lo <= 0 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	if lo == 1 && hi == 1 {
		return tokens
	}
	out := make([]string, 0, len(tokens)*(hi-lo+1))
	for n := lo; n <= hi; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// stripAccents decomposes text and drops combining marks.
func stripAccents(text string) string {
	decomposed := norm.NFKD.String(text)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
