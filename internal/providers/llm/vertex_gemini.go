package llm

import (
	"context"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
)

// AnalystPreamble frames the reasoning calls made by the background worker:
// the model acts as a passive observer of the conversation, not a
// participant.
const AnalystPreamble = `You are a background conversation analyst. For each ` +
	`conversation turn you receive, assess tone, topic evolution, user intent, ` +
	`response quality, and conversation flow across the full history you have ` +
	`seen so far. Provide thoughtful, constructive feedback.`

// ChatPreamble frames the text-mode fallback, where the model answers the
// user directly instead of the voice engine.
const ChatPreamble = `You are a helpful conversational assistant. Be concise ` +
	`and friendly, and answer in the language the user writes in.`

type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

// NewVertexGemini builds a streaming Gemini provider with the given system
// instruction. The same construction serves both the background analyst and
// the text chat path; only the preamble differs.
func NewVertexGemini(ctx context.Context, projectID, location, modelName, systemInstruction string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	if systemInstruction != "" {
		m.SystemInstruction = &vertexgenai.Content{
			Parts: []vertexgenai.Part{vertexgenai.Text(systemInstruction)},
		}
	}
	return &VertexGemini{client: c, model: m}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) StreamAnswer(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		it := v.model.GenerateContentStream(ctx, vertexgenai.Text(prompt))
		for {
			resp, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				errs <- err
				return
			}

			for _, cand := range resp.Candidates {
				if cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					if t, ok := part.(vertexgenai.Text); ok && string(t) != "" {
						out <- string(t)
					}
				}
			}
		}
	}()

	return out, errs
}
