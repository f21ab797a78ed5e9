package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tabletalk/voicegate/internal/models"
)

func TestFirstSentenceBoundary(t *testing.T) {
	assert.Equal(t, -1, firstSentenceBoundary("Elbette, hemen bakıyorum"))
	assert.True(t, firstSentenceBoundary("Elbette, hemen bakıyorum. Menüde") > 0)
	assert.True(t, firstSentenceBoundary("Bunu ister misiniz?") > 0)
}

func TestExtractSpokenResponseFromCompleteJSON(t *testing.T) {
	text := `{"spoken_response": "Bir cola ekliyorum.", "intent": "add", "product_name": "Cola", "quantity": 1}`
	spoken, ok := extractSpokenResponse(text)
	assert.True(t, ok)
	assert.Equal(t, "Bir cola ekliyorum.", spoken)
}

func TestExtractSpokenResponseFromPartialJSON(t *testing.T) {
	text := `{"spoken_response": "Bir cola ekliyorum.`
	spoken, ok := extractSpokenResponse(text)
	assert.True(t, ok)
	assert.Equal(t, "Bir cola ekliyorum.", spoken)
}

func TestExtractSpokenResponseMissing(t *testing.T) {
	_, ok := extractSpokenResponse(`{"intent": "greet"}`)
	assert.False(t, ok)
}

func TestFinalizeIntentParsesCompleteJSON(t *testing.T) {
	text := `{"spoken_response": "Merhaba!", "intent": "greet"}`
	got := finalizeIntent(text)
	assert.Equal(t, models.IntentGreet, got.Intent)
	assert.Equal(t, "Merhaba!", got.SpokenResponse)
}

func TestFinalizeIntentUnknownIntentBecomesOther(t *testing.T) {
	text := `{"spoken_response": "Tamam.", "intent": "dance"}`
	got := finalizeIntent(text)
	assert.Equal(t, models.IntentOther, got.Intent)
}

func TestFinalizeIntentNeverEmpty(t *testing.T) {
	got := finalizeIntent("garbled non-json output")
	assert.Equal(t, models.IntentOther, got.Intent)
	assert.NotEmpty(t, got.SpokenResponse)
}
