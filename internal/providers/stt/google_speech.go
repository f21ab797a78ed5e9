package stt

import (
	"bytes"
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/google/uuid"
	"github.com/tabletalk/voicegate/internal/storage"
)

// inlineContentLimit is the practical ceiling for sending audio bytes
// directly in the RecognizeRequest; larger buffers are uploaded to GCS
// first and referenced by URI, matching §4.1 rule 3's "upload to a CDN"
// fallback path.
const inlineContentLimit = 512 * 1024

// GoogleSpeech is the raw Google Cloud Speech-to-Text client. It has no
// rate limiting, retry or skip logic of its own — RateLimitedSTT wraps
// it to provide the §4.1 contract.
type GoogleSpeech struct {
	c      *speech.Client
	upload storage.Uploader
	bucket string

	Encoding     speechpb.RecognitionConfig_AudioEncoding
	SampleRateHz int32
}

func NewGoogleSpeech(ctx context.Context, upload storage.Uploader, bucket string) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{
		c:            c,
		upload:       upload,
		bucket:       bucket,
		Encoding:     speechpb.RecognitionConfig_LINEAR16,
		SampleRateHz: 16000,
	}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

// recognize performs a single-shot call: it is the "operation" the
// retry policy wraps, and returns the best transcript alternative.
func (g *GoogleSpeech) recognize(ctx context.Context, audio []byte, language string) (string, float64, error) {
	if language == "" {
		language = "tr-TR"
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   g.Encoding,
			SampleRateHertz:            g.SampleRateHz,
			LanguageCode:               language,
			EnableAutomaticPunctuation: true,
		},
	}

	if len(audio) <= inlineContentLimit || g.upload == nil {
		req.Audio = &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		}
	} else {
		objectName := fmt.Sprintf("stt-uploads/%s.raw", uuid.NewString())
		if _, err := g.upload.Upload(ctx, objectName, "application/octet-stream", bytes.NewReader(audio)); err != nil {
			return "", 0, err
		}
		req.Audio = &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: "gs://" + g.bucket + "/" + objectName},
		}
	}

	resp, err := g.c.Recognize(ctx, req)
	if err != nil {
		return "", 0, err
	}

	var bestText string
	var bestConf float32
	for _, r := range resp.Results {
		for _, alt := range r.Alternatives {
			if alt.Transcript != "" && alt.Confidence >= bestConf {
				bestText = alt.Transcript
				bestConf = alt.Confidence
			}
		}
	}
	return bestText, float64(bestConf), nil
}
