package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"
)

// OpenAIClient calls an OpenAI-compatible Chat Completions API, including
// function calling for structured outputs.
type OpenAIClient struct {
	http    *http.Client
	apiKey  string
	baseURL string
}

const defaultOpenAIBaseURL = "https://api.openai.com/v1/chat/completions"

// NewOpenAIClient creates a client for the given credential. If apiKey is
// empty, it falls back to the OPENAI_API_KEY env var. baseURL may be empty
// for the default endpoint (or point at any compatible provider).
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIClient{
		http:    &http.Client{Timeout: 120 * time.Second},
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

func (c *OpenAIClient) Name() string { return "OpenAI" }
func (c *OpenAIClient) Close() error { return nil }

type openAIChatReq struct {
	Model        string          `json:"model"`
	Messages     []openAIMessage `json:"messages"`
	Functions    []Function      `json:"functions,omitempty"`
	FunctionCall map[string]any  `json:"function_call,omitempty"`
	Temperature  float32         `json:"temperature,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResp struct {
	Choices []struct {
		Message struct {
			Content      string `json:"content"`
			FunctionCall *struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function_call"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the messages as-is. When functions are declared, the model
// is forced to call the first declared function, and its arguments string is
// decoded into Completion.FunctionCall.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Completion, error) {
	body := openAIChatReq{Model: req.Model}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, openAIMessage{Role: string(m.Role), Content: m.Content})
	}
	if len(req.Functions) > 0 {
		body.Functions = req.Functions
		body.FunctionCall = map[string]any{"name": req.Functions[0].Name}
	}

	b, err := json.Marshal(body)
	if err != nil {
		return Completion{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(b))
	if err != nil {
		return Completion{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Completion{}, err
	}
	defer resp.Body.Close()

	var out openAIChatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Completion{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if out.Error != nil && out.Error.Message != "" {
			return Completion{}, errors.New("openai: " + out.Error.Message)
		}
		return Completion{}, errors.New("openai: unexpected status " + resp.Status)
	}
	if len(out.Choices) == 0 {
		return Completion{}, ErrEmptyResponse
	}

	msg := out.Choices[0].Message
	completion := Completion{Content: msg.Content}
	if msg.FunctionCall != nil {
		args := map[string]any{}
		if err := json.Unmarshal([]byte(msg.FunctionCall.Arguments), &args); err != nil {
			return Completion{}, errors.New("openai: malformed function call arguments")
		}
		completion.FunctionCall = args
	}
	if completion.Content == "" && completion.FunctionCall == nil {
		return Completion{}, ErrEmptyResponse
	}
	return completion, nil
}
