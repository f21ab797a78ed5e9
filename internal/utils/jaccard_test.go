package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordJaccard(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{"identical strings", "bir cola istiyorum", "bir cola istiyorum", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "bir cola", "", 0.0},
		{"disjoint sets", "bir cola", "iki su", 0.0},
		{"case insensitive match", "Bir Cola", "bir cola istiyorum", 2.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, WordJaccard(tt.a, tt.b), 0.0001)
		})
	}
}
