package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	genai "google.golang.org/genai"
)

// ErrInvalidJSON is returned when a structured Gemini completion is not
// decodable JSON.
var ErrInvalidJSON = errors.New("llm: invalid JSON from model")

// GeminiClient is a thin wrapper around the official genai client. Structured
// function-call requests are mapped to JSON-mode generation: the declared
// parameter schema is embedded in the prompt and the JSON reply is decoded as
// the function arguments.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli}, nil
}

func (g *GeminiClient) Name() string { return "Gemini" }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) Complete(ctx context.Context, req Request) (Completion, error) {
	var sb strings.Builder
	for _, m := range req.Messages {
		sb.WriteString("[" + strings.ToUpper(string(m.Role)) + "]\n")
		sb.WriteString(m.Content)
		sb.WriteString("\n\n")
	}

	cfg := &genai.GenerateContentConfig{}
	structured := len(req.Functions) > 0
	if structured {
		schema, _ := json.MarshalIndent(req.Functions[0].Parameters, "", "  ")
		sb.WriteString("Respond with a single JSON object matching this JSON Schema exactly:\n")
		sb.Write(schema)
		sb.WriteString("\n")
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := g.cli.Models.GenerateContent(ctx, req.Model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: sb.String()}}}},
		cfg,
	)
	if err != nil {
		return Completion{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Completion{}, ErrEmptyResponse
	}
	text := resp.Candidates[0].Content.Parts[0].Text
	if !structured {
		if text == "" {
			return Completion{}, ErrEmptyResponse
		}
		return Completion{Content: text}, nil
	}
	args := map[string]any{}
	if err := json.Unmarshal([]byte(text), &args); err != nil {
		return Completion{}, ErrInvalidJSON
	}
	return Completion{FunctionCall: args}, nil
}
