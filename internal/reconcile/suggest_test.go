package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"WINE-MERLOT-2020", "WINE-MERLOT-2020", 0},
		{"", "ABC", 3},
		{"ABC", "", 3},
		{"WINE-MERLOT-2020", "WINE-MERLOT-2021", 1},
		{"GIFT-BOX-STANDARD", "GIFT-BOX-PREMIUM", 8},
		{"kitten", "sitting", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, levenshtein(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestSuggestAlternativesCapAndTieBreak(t *testing.T) {
	known := []string{
		"WINE-MERLOT-2021",
		"WINE-MERLOT-2022",
		"WINE-MERLOT-2023",
		"WINE-MERLOT-2024",
		"GIFT-BOX-PREMIUM",
	}
	got := suggestAlternatives("WINE-MERLOT-2020", known)

	// Capped at three; the four vintage variants all score identically so the
	// tie breaks lexically.
	assert.Equal(t, []string{"WINE-MERLOT-2021", "WINE-MERLOT-2022", "WINE-MERLOT-2023"}, got)
}

func TestSuggestAlternativesNoNearMisses(t *testing.T) {
	got := suggestAlternatives("COMPLETELY-DIFFERENT", []string{"X1", "Y2"})
	assert.Empty(t, got)
}

func TestSuggestAlternativesCaseInsensitive(t *testing.T) {
	got := suggestAlternatives("wine-merlot-2020", []string{"WINE-MERLOT-2021"})
	assert.Equal(t, []string{"WINE-MERLOT-2021"}, got)
}
