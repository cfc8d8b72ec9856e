// Package llm is the completion gateway: the abstraction over a
// language-model request/response call, supporting free text and structured
// function-call outputs.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned by providers when the model produced neither
// text content nor a function call.
var ErrEmptyResponse = errors.New("llm: empty response from model")

// Role of a prompt message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"
)

// Message is one entry of an ordered prompt.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Function declares a structured output the model must emit arguments for.
// Parameters is a JSON-Schema-like object shape, including enum constraints.
type Function struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request is one completion call.
type Request struct {
	Model     string
	Messages  []Message
	Functions []Function
}

// Completion is the model's answer. When the request declared functions,
// FunctionCall carries the decoded arguments and Content is usually empty;
// a nil FunctionCall in that case must be treated as failure by the caller.
type Completion struct {
	Content      string
	FunctionCall map[string]any
}

// Client invokes a language model.
type Client interface {
	Name() string
	Close() error
	Complete(ctx context.Context, req Request) (Completion, error)
}
