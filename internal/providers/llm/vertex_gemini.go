package llm

import (
	"context"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
)

// VertexGemini streams from Vertex AI's Gemini models. It is a thin
// adapter: prompt assembly and JSON-shape concerns live in llm.go and
// in the engine's streaming bridge, not here.
type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	m.GenerationConfig.ResponseMIMEType = "application/json"

	return &VertexGemini{client: c, model: m}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) StreamAnswer(ctx context.Context, userMessage, menuContext string) (<-chan Chunk, <-chan error) {
	out := make(chan Chunk, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		prompt := buildPrompt(userMessage, menuContext)
		it := v.model.GenerateContentStream(ctx, vertexgenai.Text(prompt))

		var full string
		for {
			resp, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				select {
				case errs <- err:
				case <-ctx.Done():
				}
				return
			}

			for _, cand := range resp.Candidates {
				if cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					t, ok := part.(vertexgenai.Text)
					if !ok || string(t) == "" {
						continue
					}
					full += string(t)
					select {
					case out <- Chunk{Token: string(t), FullText: full}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out, errs
}
