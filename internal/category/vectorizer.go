package category

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Vectorizer turns normalized titles into a bounded-size TF-IDF
// representation. The vocabulary is fixed at fit time: terms are ranked by
// document frequency (ties alphabetical) and capped at MaxFeatures.
type Vectorizer struct {
	MaxFeatures int            `json:"max_features"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
}

// NewVectorizer returns an unfitted vectorizer with the given vocabulary
// bound. A bound of 0 defaults to 500.
func NewVectorizer(maxFeatures int) *Vectorizer {
	if maxFeatures == 0 {
		maxFeatures = 500
	}
	return &Vectorizer{MaxFeatures: maxFeatures}
}

// normalizeTitle lower-cases and strips punctuation, keeping letters,
// digits, and spaces.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '/':
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func tokenize(title string) []string {
	return strings.Fields(normalizeTitle(title))
}

// Fit builds the vocabulary and inverse document frequencies.
func (v *Vectorizer) Fit(titles []string) {
	df := make(map[string]int)
	for _, title := range titles {
		seen := make(map[string]bool)
		for _, tok := range tokenize(title) {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(a, b int) bool {
		if df[terms[a]] != df[terms[b]] {
			return df[terms[a]] > df[terms[b]]
		}
		return terms[a] < terms[b]
	})
	if len(terms) > v.MaxFeatures {
		terms = terms[:v.MaxFeatures]
	}

	n := float64(len(titles))
	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	for i, t := range terms {
		v.Vocabulary[t] = i
		// Smoothed IDF so unseen-document terms never divide by zero.
		v.IDF[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
}

// Transform produces one L2-normalized TF-IDF vector per title.
func (v *Vectorizer) Transform(titles []string) [][]float64 {
	out := make([][]float64, len(titles))
	for i, title := range titles {
		vec := make([]float64, len(v.IDF))
		for _, tok := range tokenize(title) {
			if j, ok := v.Vocabulary[tok]; ok {
				vec[j]++
			}
		}
		norm := 0.0
		for j := range vec {
			vec[j] *= v.IDF[j]
			norm += vec[j] * vec[j]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range vec {
				vec[j] /= norm
			}
		}
		out[i] = vec
	}
	return out
}

// Dim returns the vector length after fitting.
func (v *Vectorizer) Dim() int { return len(v.IDF) }
