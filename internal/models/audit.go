package models

import "time"

// SessionEvent is a single lifecycle transition of a voice session
// (connect, barge-in, disconnect), persisted to Mongo for
// observability. Non-goal (b) forbids feeding this back into LLM
// context — it is write-only from the engine's perspective.
type SessionEvent struct {
	SessionID string    `bson:"session_id" json:"session_id"`
	QRToken   string    `bson:"qr_token" json:"qr_token"`
	Event     string    `bson:"event" json:"event"` // "connected", "barge_in", "disconnected"
	Detail    string    `bson:"detail,omitempty" json:"detail,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// TurnRecord captures one completed conversational turn for audit and
// debugging purposes: the committed transcript, the structured intent
// the LLM produced, and coarse timing. Never re-read by the engine.
type TurnRecord struct {
	SessionID      string    `bson:"session_id" json:"session_id"`
	QRToken        string    `bson:"qr_token" json:"qr_token"`
	Transcript     string    `bson:"transcript" json:"transcript"`
	SpokenResponse string    `bson:"spoken_response" json:"spoken_response"`
	Intent         string    `bson:"intent" json:"intent"`
	ProductName    string    `bson:"product_name,omitempty" json:"product_name,omitempty"`
	Quantity       int       `bson:"quantity,omitempty" json:"quantity,omitempty"`
	CorrectiveRestart bool   `bson:"corrective_restart" json:"corrective_restart"`
	STTLatencyMS   int64     `bson:"stt_latency_ms" json:"stt_latency_ms"`
	LLMLatencyMS   int64     `bson:"llm_latency_ms" json:"llm_latency_ms"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt      time.Time `bson:"expires_at" json:"expires_at"`
}
