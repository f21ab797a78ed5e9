package llm

import "context"

// Chunk is one incremental token plus the accumulated text so far,
// matching §4.2's "lazy sequence of {token, full_text}".
type Chunk struct {
	Token    string
	FullText string
}

// Provider is the remote-LLM client contract (§4.2). A stream is finite
// and not restartable: cancelling the context must stop token
// production within one read of the underlying SDK stream.
type Provider interface {
	StreamAnswer(ctx context.Context, userMessage, menuContext string) (chunks <-chan Chunk, errs <-chan error)
	Close() error
}

// systemPrompt is the compact instruction the original garson bot uses:
// Turkish, short, friendly, JSON-only, spoken_response capped for TTS.
const systemPrompt = "Sen GarsonAI. Türkçe, kısa, samimi, sadece düz JSON yanıt ver. " +
	"Yanıtın tek bir JSON nesnesi olsun: spoken_response (en fazla 10 kelime), " +
	"intent (add, info, greet, check, recommend, other), product_name, quantity."

// buildPrompt assembles the single-shot prompt sent to the model: system
// instructions, the cached menu context, then the current customer turn.
func buildPrompt(userMessage, menuContext string) string {
	prompt := systemPrompt + "\n\n"
	if menuContext != "" {
		prompt += "Menü:\n" + menuContext + "\n\n"
	}
	prompt += "Müşteri: " + userMessage + "\n\nYanıt ver (JSON formatında):"
	return prompt
}
