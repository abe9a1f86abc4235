package reconcile

import (
	"sort"
	"strings"
)

const (
	// maxSuggestions caps suggested_alternatives per invalid SKU.
	maxSuggestions = 3
	// minSimilarity is the normalized score floor for a near-miss.
	minSimilarity = 0.5
)

// levenshtein computes the edit distance between two strings using two rows
// instead of the full matrix.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Keep a as the shorter string
	if len(a) > len(b) {
		a, b = b, a
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(b); j++ {
		curr[0] = j
		for i := 1; i <= len(a); i++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[i] = min3(
				prev[i]+1,      // deletion
				curr[i-1]+1,    // insertion
				prev[i-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(a)]
}

// similarity is 1 - distance/max(len), computed over upper-cased SKUs so
// case differences in merchant data don't mask near-misses.
func similarity(a, b string) float64 {
	a = strings.ToUpper(a)
	b = strings.ToUpper(b)
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

// suggestAlternatives returns up to maxSuggestions known SKUs similar to the
// invalid one, best score first, ties broken by lexical order. Deterministic
// for a given mirror SKU set.
func suggestAlternatives(sku string, known []string) []string {
	type scored struct {
		sku   string
		score float64
	}
	var candidates []scored
	for _, k := range known {
		if k == sku {
			continue
		}
		if score := similarity(sku, k); score >= minSimilarity {
			candidates = append(candidates, scored{sku: k, score: score})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].sku < candidates[j].sku
	})

	n := len(candidates)
	if n > maxSuggestions {
		n = maxSuggestions
	}
	out := make([]string, 0, n)
	for _, c := range candidates[:n] {
		out = append(out, c.sku)
	}
	return out
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
