package tts

import "context"

// Provider is the remote-TTS client contract (§4.3): a finite,
// not-restartable lazy sequence of raw PCM16 mono 16kHz audio frames.
// Cancelling ctx must tear down the underlying stream promptly.
type Provider interface {
	SpeakStream(ctx context.Context, text string) (frames <-chan []byte, errs <-chan error)
	Close() error
}
