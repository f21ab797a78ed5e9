package engine

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tabletalk/voicegate/internal/models"
)

// sentenceBoundary matches the first `.`, `!` or `?` followed by
// whitespace or end-of-string in an accumulating LLM output (§4.8 step 3,
// glossary "Sentence boundary").
var sentenceBoundary = regexp.MustCompile(`[.!?](\s|$)`)

// firstSentenceBoundary returns the index just past the first sentence
// boundary in text, or -1 if none is present yet.
func firstSentenceBoundary(text string) int {
	loc := sentenceBoundary.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[1]
}

// spokenResponsePattern is the permissive fallback extractor for a
// still-open JSON object (§9 "Dynamic JSON streaming").
var spokenResponsePattern = regexp.MustCompile(`"spoken_response"\s*:\s*"([^"]*)"`)

// spokenResponseOpenPattern matches a spoken_response value whose closing
// quote has not streamed in yet, taking everything up to end of text.
var spokenResponseOpenPattern = regexp.MustCompile(`"spoken_response"\s*:\s*"([^"]*)$`)

// extractSpokenResponse best-effort slices spoken_response out of a
// possibly-incomplete JSON object accumulated so far. It first tries a
// full JSON decode (works once the object is complete or, for many
// streaming responses, once the spoken_response field itself is
// complete and quoted), then falls back to the regex, and finally to a
// spoken_response string that is still open at the end of the text.
func extractSpokenResponse(fullText string) (string, bool) {
	if obj, ok := tryParseIntent(fullText); ok && obj.SpokenResponse != "" {
		return obj.SpokenResponse, true
	}
	if m := spokenResponsePattern.FindStringSubmatch(fullText); m != nil {
		return m[1], true
	}
	if m := spokenResponseOpenPattern.FindStringSubmatch(fullText); m != nil {
		return m[1], true
	}
	return "", false
}

// tryParseIntent attempts a permissive parse: slice between the first
// '{' and the last '}' seen so far, then unmarshal.
func tryParseIntent(text string) (models.StructuredIntent, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return models.StructuredIntent{}, false
	}

	var out models.StructuredIntent
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return models.StructuredIntent{}, false
	}
	out.Intent = models.ParseIntentKind(string(out.Intent))
	return out, true
}

// finalizeIntent parses the completed LLM output into a StructuredIntent,
// falling back to a bare "other" intent carrying whatever text was
// recovered so the turn still completes cleanly (§7: never leave the
// client hanging).
func finalizeIntent(fullText string) models.StructuredIntent {
	if obj, ok := tryParseIntent(fullText); ok {
		return obj
	}
	spoken, _ := extractSpokenResponse(fullText)
	if spoken == "" {
		spoken = "Üzgünüm, anlayamadım. Tekrar söyler misiniz?"
	}
	return models.StructuredIntent{SpokenResponse: spoken, Intent: models.IntentOther}
}
