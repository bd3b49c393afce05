// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Generator produces editor-ready HTML from an author's instructions.
//
// It is an injected collaborator like the auth mailer: deployments without a
// model provider leave it nil and the drafting endpoints report unavailable.
type Generator interface {
	// Generate writes a fresh draft body for the given topic description.
	Generate(ctx context.Context, prompt string) (string, error)

	// Improve rewrites an existing draft body per the given instruction,
	// keeping its core idea.
	Improve(ctx context.Context, body, instruction string) (string, error)
}

// # Model Parameters

const (
	generationTemperature = 0.7
	generationMaxTokens   = 1500
	generationTimeout     = 60 * time.Second
)

const draftSystemPrompt = `You are a professional blog writer. From the ` +
	`user's description, produce a detailed, SEO-friendly, engaging blog ` +
	`draft of at least three paragraphs with a suggested title, an ` +
	`introduction, a main body, and a conclusion. Respond in HTML so the ` +
	`result can be inserted directly into the blog editor.`

const improveSystemPrompt = `You are a professional blog editor. Revise the ` +
	`given draft according to the user's instruction while preserving its ` +
	`core idea. Respond in HTML so the result can be inserted directly into ` +
	`the blog editor.`

// OpenAIGenerator implements [Generator] against an OpenAI-compatible
// chat-completions API.
type OpenAIGenerator struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewOpenAIGenerator creates a generator talking to baseURL (e.g.
// "https://api.openai.com/v1").
func NewOpenAIGenerator(baseURL, apiKey, model string) *OpenAIGenerator {
	return &OpenAIGenerator{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: generationTimeout},
	}
}

// Generate implements [Generator].
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	user := "Write a detailed blog post about the following topic:\n\n" + prompt
	return g.complete(ctx, draftSystemPrompt, user)
}

// Improve implements [Generator].
func (g *OpenAIGenerator) Improve(ctx context.Context, body, instruction string) (string, error) {
	user := fmt.Sprintf("Revise this draft per the instruction %q:\n\n%s", instruction, body)
	return g.complete(ctx, improveSystemPrompt, user)
}

// # Wire Types

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *OpenAIGenerator) complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: generationTemperature,
		MaxTokens:   generationMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generator: encode request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("generator: build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+g.apiKey)

	response, err := g.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("generator: call model: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return "", fmt.Errorf("generator: model returned %d: %s", response.StatusCode, payload)
	}

	var decoded chatResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("generator: decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("generator: model returned no choices")
	}

	return decoded.Choices[0].Message.Content, nil
}
