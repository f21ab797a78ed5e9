package stt

import "strings"

// maxOverlapWords bounds how far back into old we look for a suffix
// that matches new's prefix, per §4.1's merge algorithm.
const maxOverlapWords = 5

// MergeTranscripts implements merge(old, new): find the longest suffix
// of old that is a word-level prefix of new (up to maxOverlapWords
// words) and splice new's remainder onto old; otherwise concatenate
// with a separating space. Because the whole audio buffer is resent on
// every partial-STT call, successive transcripts largely overlap and
// this keeps the running transcript from duplicating words.
func MergeTranscripts(old, incoming string) string {
	newTrimmed := strings.TrimSpace(incoming)
	if newTrimmed == "" {
		return old
	}
	oldTrimmed := strings.TrimSpace(old)
	if oldTrimmed == "" {
		return newTrimmed
	}

	oldWords := strings.Fields(oldTrimmed)
	newWords := strings.Fields(newTrimmed)

	maxOverlap := maxOverlapWords
	if maxOverlap > len(oldWords) {
		maxOverlap = len(oldWords)
	}
	if maxOverlap > len(newWords) {
		maxOverlap = len(newWords)
	}

	for n := maxOverlap; n > 0; n-- {
		if wordsEqual(oldWords[len(oldWords)-n:], newWords[:n]) {
			remainder := strings.Join(newWords[n:], " ")
			if remainder == "" {
				return oldTrimmed
			}
			return oldTrimmed + " " + remainder
		}
	}

	return oldTrimmed + " " + newTrimmed
}

func wordsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
