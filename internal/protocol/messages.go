// Package protocol defines the §6.1 duplex-channel JSON control message
// schemas shared between the engine (which produces/consumes them) and
// the WebSocket driver (which frames them onto the wire).
package protocol

import "github.com/tabletalk/voicegate/internal/models"

// Inbound control message types.
const (
	InboundAudioEnd          = "audio_end"
	InboundInterrupt         = "interrupt"
	InboundPing              = "ping"
	InboundPlaybackComplete  = "playback_complete"
)

// InboundEnvelope is used only to sniff the "type" field of an inbound
// JSON control message before decoding it fully.
type InboundEnvelope struct {
	Type string `json:"type"`
}

// Outbound control message types (§6.1).
const (
	OutboundGreeting          = "greeting"
	OutboundStatus            = "status"
	OutboundPartialTranscript = "partial_transcript"
	OutboundTranscript        = "transcript"
	OutboundAIToken           = "ai_token"
	OutboundAIComplete        = "ai_complete"
	OutboundRecommendation    = "recommendation"
	OutboundTTSStart          = "tts_start"
	OutboundTTSComplete       = "tts_complete"
	OutboundInterruptAck      = "interrupt_ack"
	OutboundError             = "error"
	OutboundPong              = "pong"
)

// Status values carried by an OutboundStatus message.
const (
	StatusReceiving    = "receiving"
	StatusTranscribing = "transcribing"
	StatusThinking     = "thinking"
	StatusProcessing   = "processing"
)

type Greeting struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func NewGreeting(text string) Greeting { return Greeting{Type: OutboundGreeting, Text: text} }

type Status struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewStatus(message string) Status { return Status{Type: OutboundStatus, Message: message} }

type PartialTranscript struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	IsFinal    bool    `json:"is_final"`
}

func NewPartialTranscript(text string, confidence float64) PartialTranscript {
	return PartialTranscript{Type: OutboundPartialTranscript, Text: text, Confidence: confidence, IsFinal: false}
}

type Transcript struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

func NewTranscript(text string) Transcript {
	return Transcript{Type: OutboundTranscript, Text: text, IsFinal: true}
}

type AIToken struct {
	Type     string `json:"type"`
	Token    string `json:"token"`
	FullText string `json:"full_text"`
}

func NewAIToken(token, fullText string) AIToken {
	return AIToken{Type: OutboundAIToken, Token: token, FullText: fullText}
}

type AIComplete struct {
	Type string                  `json:"type"`
	Data models.StructuredIntent `json:"data"`
}

func NewAIComplete(data models.StructuredIntent) AIComplete {
	return AIComplete{Type: OutboundAIComplete, Data: data}
}

type Recommendation struct {
	Type    string         `json:"type"`
	Product models.Product `json:"product"`
}

func NewRecommendation(p models.Product) Recommendation {
	return Recommendation{Type: OutboundRecommendation, Product: p}
}

type Simple struct {
	Type string `json:"type"`
}

func NewTTSStart() Simple     { return Simple{Type: OutboundTTSStart} }
func NewTTSComplete() Simple  { return Simple{Type: OutboundTTSComplete} }
func NewInterruptAck() Simple { return Simple{Type: OutboundInterruptAck} }
func NewPong() Simple         { return Simple{Type: OutboundPong} }

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewError(message string) Error { return Error{Type: OutboundError, Message: message} }
