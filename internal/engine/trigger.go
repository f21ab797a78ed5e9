package engine

import (
	"strings"
	"time"
)

// earlyTriggerFires implements §4.7: the transcript ends in sentence
// punctuation, or has at least 3 words and the client has been silent
// for at least silenceThreshold.
func earlyTriggerFires(transcript string, lastChunkTime time.Time, silenceThreshold time.Duration) bool {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		return false
	}

	last := rune(trimmed[len(trimmed)-1])
	if last == '.' || last == '!' || last == '?' {
		return true
	}

	words := strings.Fields(trimmed)
	if len(words) < 3 {
		return false
	}
	if lastChunkTime.IsZero() {
		return false
	}
	return time.Since(lastChunkTime) >= silenceThreshold
}
