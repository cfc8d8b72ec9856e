// Package pipeline turns a free-text prompt into compilable UI component
// source through a fixed sequence of prompt-construction and model-call
// stages. Two pipelines exist: creating a new component and iterating on an
// existing one; they share every stage except the design and generation
// prompts.
package pipeline

import (
	"uismith/internal/catalog"
	"uismith/internal/llm"
)

// ExistingComponent carries the component being iterated on.
type ExistingComponent struct {
	Name        string
	Description string
	Code        string
}

// GenerationRequest is the immutable input to one pipeline run. Existing is
// nil for the create flow and set for the iterate flow.
type GenerationRequest struct {
	Prompt   string
	Existing *ExistingComponent
}

// DesignDecision is the structured output of the design stage. Icons and
// Components are nil when the model judged none are needed or returned an
// empty list; downstream code treats "needs resolution" as non-nil and
// non-empty, never distinguishing nil from empty.
type DesignDecision struct {
	Name        string
	Description string
	Icons       []string
	Components  []string
}

// GeneratedArtifact is the unit handed to persistence as one revision.
// Code carries no fence markers and no surrounding whitespace.
type GeneratedArtifact struct {
	Name        string
	Description string
	Prompt      string
	Code        string
}

// libraryContext is the design stage's input: the normalized request plus
// the catalog loaded once for this run.
type libraryContext struct {
	Prompt   string
	Existing *ExistingComponent
	Library  *catalog.Library
}

// designed is the design stage's output.
type designed struct {
	libraryContext
	Decision DesignDecision
}

// contextualized adds the per-component usage context blocks.
type contextualized struct {
	designed
	Blocks []llm.Message
}

// draft is the raw model answer for the generation stage, pre-extraction.
type draft struct {
	Name        string
	Description string
	Prompt      string
	Raw         string
}
