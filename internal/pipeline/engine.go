package pipeline

import (
	"context"
	"fmt"

	"uismith/internal/catalog"
	"uismith/internal/llm"
	"uismith/internal/token"
)

// Completer is the completion capability handed to every stage.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (llm.Completion, error)
}

// Config tunes an Engine.
type Config struct {
	// DesignModel is the lower-cost model used for the structured design call.
	DesignModel string
	// GenerateModel is the higher-capability model used for code generation.
	GenerateModel string
	// ExampleTokenLimit caps cumulative example tokens per context block.
	ExampleTokenLimit int
	// Language tags the fenced blocks of the component file (default "tsx").
	Language string
}

const defaultExampleTokenLimit = 100

// Engine builds and runs the generation pipelines. It holds no per-run
// state; one GenerationRequest flows through exactly once.
type Engine struct {
	catalog catalog.Loader
	counter token.Counter
	cfg     Config
}

func NewEngine(loader catalog.Loader, counter token.Counter, cfg Config) *Engine {
	if cfg.ExampleTokenLimit <= 0 {
		cfg.ExampleTokenLimit = defaultExampleTokenLimit
	}
	if cfg.Language == "" {
		cfg.Language = "tsx"
	}
	if counter == nil {
		counter = token.Heuristic{}
	}
	return &Engine{catalog: loader, counter: counter, cfg: cfg}
}

// stage is one named step. Inputs and outputs are typed per stage via
// stageOf; the interpreter below only threads them through in order.
type stage struct {
	name string
	run  func(ctx context.Context, in any, complete Completer) (any, error)
}

func stageOf[In, Out any](name string, fn func(ctx context.Context, in In, complete Completer) (Out, error)) stage {
	return stage{
		name: name,
		run: func(ctx context.Context, in any, complete Completer) (any, error) {
			typed, ok := in.(In)
			if !ok {
				return nil, inputErrf("stage %s: unexpected input %T", name, in)
			}
			return fn(ctx, typed, complete)
		},
	}
}

// Pipeline is an ordered list of stages executed strictly sequentially.
// Any stage failure aborts the remainder; no partial result is returned.
type Pipeline struct {
	name   string
	stages []stage
}

func (p *Pipeline) Run(ctx context.Context, complete Completer, req GenerationRequest) (GeneratedArtifact, error) {
	var in any = req
	for _, s := range p.stages {
		out, err := s.run(llm.WithStage(ctx, s.name), in, complete)
		if err != nil {
			return GeneratedArtifact{}, fmt.Errorf("%s/%s: %w", p.name, s.name, err)
		}
		in = out
	}
	artifact, ok := in.(GeneratedArtifact)
	if !ok {
		return GeneratedArtifact{}, inputErrf("pipeline %s: final stage produced %T", p.name, in)
	}
	return artifact, nil
}

// Create is the new-component pipeline.
func (e *Engine) Create() *Pipeline {
	return &Pipeline{
		name: "create-component",
		stages: []stage{
			stageOf("build-library-context", e.buildLibraryContext),
			stageOf("design-component", e.designComponent),
			stageOf("build-component-context", e.buildComponentContext),
			stageOf("generate-component", e.generateComponent),
			stageOf("extract-code", e.extractStage),
		},
	}
}

// Iterate is the modify-existing pipeline. It shares the first and last two
// stages with Create; only the design and generation prompts differ.
func (e *Engine) Iterate() *Pipeline {
	return &Pipeline{
		name: "iterate-component",
		stages: []stage{
			stageOf("build-library-context", e.buildLibraryContext),
			stageOf("design-iteration", e.designIteration),
			stageOf("build-component-context", e.buildComponentContext),
			stageOf("generate-iteration", e.generateIteration),
			stageOf("extract-code", e.extractStage),
		},
	}
}

// Generate routes the request to the matching pipeline.
func (e *Engine) Generate(ctx context.Context, complete Completer, req GenerationRequest) (GeneratedArtifact, error) {
	if req.Existing != nil {
		return e.Iterate().Run(ctx, complete, req)
	}
	return e.Create().Run(ctx, complete, req)
}

// buildLibraryContext loads the catalog and normalizes the request. Pure
// besides the catalog load.
func (e *Engine) buildLibraryContext(_ context.Context, req GenerationRequest, _ Completer) (libraryContext, error) {
	lib, err := e.catalog()
	if err != nil {
		return libraryContext{}, err
	}
	if req.Existing != nil {
		if req.Existing.Name == "" || req.Existing.Code == "" {
			return libraryContext{}, inputErrf("iteration request missing component name or code")
		}
	}
	return libraryContext{Prompt: req.Prompt, Existing: req.Existing, Library: lib}, nil
}

func (e *Engine) extractStage(_ context.Context, d draft, _ Completer) (GeneratedArtifact, error) {
	return GeneratedArtifact{
		Name:        d.Name,
		Description: d.Description,
		Prompt:      d.Prompt,
		Code:        ExtractCode(d.Raw, e.cfg.Language),
	}, nil
}
