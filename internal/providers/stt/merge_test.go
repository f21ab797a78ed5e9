package stt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeTranscripts(t *testing.T) {
	tests := []struct {
		name     string
		old      string
		incoming string
		expected string
	}{
		{"empty old returns new", "", "bir cola istiyorum", "bir cola istiyorum"},
		{"empty new returns old", "bir cola istiyorum", "", "bir cola istiyorum"},
		{"both empty", "", "", ""},
		{"one-word overlap of old suffix and new prefix", "bir cola istiyorum", "istiyorum lütfen", "bir cola istiyorum lütfen"},
		{"no overlap concatenates with space", "merhaba", "bir su istiyorum", "merhaba bir su istiyorum"},
		{"three-word overlap is not duplicated", "a b c d e f g", "e f g h", "a b c d e f g h"},
		{"case-insensitive overlap match", "Bir Cola", "cola istiyorum", "Bir Cola istiyorum"},
		{"identical repeat yields no growth", "bir cola", "bir cola", "bir cola"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MergeTranscripts(tt.old, tt.incoming))
		})
	}
}
