package web

import (
	"context"
	"log"
	"os"

	"uismith/internal/llm"
	"uismith/internal/pipeline"
	"uismith/internal/token"
)

// Generator runs the component pipelines. Handlers depend on this interface
// so tests can script outcomes without a completion provider.
type Generator interface {
	Generate(ctx context.Context, apiKey string, req pipeline.GenerationRequest) (pipeline.GeneratedArtifact, error)
}

// LLMGenerator builds a completion client per call with the requesting
// user's own API key. Clients are cheap: one http.Client under the hood.
type LLMGenerator struct {
	engine   *pipeline.Engine
	counter  token.Counter
	provider string
	baseURL  string
}

// NewLLMGenerator picks the backend by provider name: "gemini" or any
// OpenAI-compatible endpoint (the default).
func NewLLMGenerator(engine *pipeline.Engine, counter token.Counter, provider, baseURL string) *LLMGenerator {
	return &LLMGenerator{engine: engine, counter: counter, provider: provider, baseURL: baseURL}
}

func (g *LLMGenerator) Generate(ctx context.Context, apiKey string, req pipeline.GenerationRequest) (pipeline.GeneratedArtifact, error) {
	inner, err := g.newClient(ctx, apiKey)
	if err != nil {
		return pipeline.GeneratedArtifact{}, err
	}
	client := llm.Wrap(
		inner,
		llm.WithLogging(log.New(os.Stderr, "", log.LstdFlags), g.counter),
		llm.WithHooks(),
	)
	defer client.Close()
	return g.engine.Generate(ctx, client, req)
}

func (g *LLMGenerator) newClient(ctx context.Context, apiKey string) (llm.Client, error) {
	if g.provider == "gemini" {
		return llm.NewGeminiClient(ctx, apiKey)
	}
	return llm.NewOpenAIClient(apiKey, g.baseURL), nil
}
