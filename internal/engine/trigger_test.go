package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEarlyTriggerFires(t *testing.T) {
	silence := 400 * time.Millisecond

	tests := []struct {
		name           string
		transcript     string
		lastChunkAgo   time.Duration
		zeroLastChunk  bool
		expected       bool
	}{
		{"empty transcript never fires", "", 0, true, false},
		{"sentence-ending punctuation fires immediately", "bir cola istiyorum.", 0, true, true},
		{"question mark fires immediately", "menüde ne var?", 0, true, true},
		{"short utterance without silence does not fire", "bir cola", 0, false, false},
		{"three words with enough silence fires", "bir cola istiyorum", 500 * time.Millisecond, false, true},
		{"three words with insufficient silence does not fire", "bir cola istiyorum", 100 * time.Millisecond, false, false},
		{"two words never fires on silence alone", "bir cola", time.Second, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lastChunk time.Time
			if !tt.zeroLastChunk {
				lastChunk = time.Now().Add(-tt.lastChunkAgo)
			}
			got := earlyTriggerFires(tt.transcript, lastChunk, silence)
			assert.Equal(t, tt.expected, got)
		})
	}
}
