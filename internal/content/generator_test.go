// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenpress/lumen/internal/platform/apperr"
)

// # Test Fakes

type fakeGenerator struct {
	output          string
	err             error
	lastPrompt      string
	lastInstruction string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func (f *fakeGenerator) Improve(_ context.Context, _, instruction string) (string, error) {
	f.lastInstruction = instruction
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

// # Assisted Drafting

func TestGenerateDraft(t *testing.T) {
	f := newContentFixture(t)
	generator := &fakeGenerator{output: "<p>Generated draft.</p>"}
	f.service.generator = generator

	draft, err := f.service.GenerateDraft(context.Background(), "a post about toy safety")
	require.NoError(t, err)
	assert.Equal(t, "<p>Generated draft.</p>", draft)
	assert.Equal(t, "a post about toy safety", generator.lastPrompt)
}

func TestGenerateDraft_RequiresPrompt(t *testing.T) {
	f := newContentFixture(t)
	f.service.generator = &fakeGenerator{output: "<p>x</p>"}

	_, err := f.service.GenerateDraft(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

func TestGenerateDraft_Unconfigured(t *testing.T) {
	f := newContentFixture(t) // fixture wires no generator

	_, err := f.service.GenerateDraft(context.Background(), "anything")
	require.Error(t, err)
	assert.Equal(t, "SERVICE_UNAVAILABLE", apperr.As(err).Code)
}

/*
TestGenerateDraft_ProviderFailure verifies that model-provider errors never
leak to the client: the response carries the generic retry message while the
real cause stays in the logs.
*/
func TestGenerateDraft_ProviderFailure(t *testing.T) {
	f := newContentFixture(t)
	f.service.generator = &fakeGenerator{err: assert.AnError}

	_, err := f.service.GenerateDraft(context.Background(), "anything")
	require.Error(t, err)
	assert.Equal(t, "SERVICE_UNAVAILABLE", apperr.As(err).Code)
	assert.Equal(t, generationUnavailableMessage, err.Error())
	assert.NotContains(t, err.Error(), assert.AnError.Error())
}

func TestImproveDraft(t *testing.T) {
	f := newContentFixture(t)
	generator := &fakeGenerator{output: "<p>Tighter draft.</p>"}
	f.service.generator = generator

	improved, err := f.service.ImproveDraft(context.Background(),
		"<p>Rambling draft.</p>", "make it concise")
	require.NoError(t, err)
	assert.Equal(t, "<p>Tighter draft.</p>", improved)
	assert.Equal(t, "make it concise", generator.lastInstruction)

	_, err = f.service.ImproveDraft(context.Background(), "", "make it concise")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

// # Provider Client

/*
TestOpenAIGenerator verifies the wire client against a stub provider: the
request carries the bearer key and model, and the first choice's content
comes back verbatim.
*/
func TestOpenAIGenerator(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "<p>Draft.</p>"}},
			},
		})
	}))
	defer server.Close()

	generator := NewOpenAIGenerator(server.URL, "test-key", "test-model")

	draft, err := generator.Generate(context.Background(), "toy safety")
	require.NoError(t, err)
	assert.Equal(t, "<p>Draft.</p>", draft)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotBody.Model)
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Contains(t, gotBody.Messages[1].Content, "toy safety")
}

func TestOpenAIGenerator_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	generator := NewOpenAIGenerator(server.URL, "test-key", "test-model")

	_, err := generator.Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
