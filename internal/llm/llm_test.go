// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	goopenai "github.com/meguminnnnnnnnn/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/labscout/pkg/types"
)

func TestMain(m *testing.M) {
	BackoffBase = time.Millisecond
	os.Exit(m.Run())
}

// failNTimesProvider fails the first N calls, then succeeds.
type failNTimesProvider struct {
	failures  int
	callCount int
	err       error
}

func (f *failNTimesProvider) Name() string { return "fake" }

func (f *failNTimesProvider) Complete(_ context.Context, _, _ string, _ float32, _ int) (string, error) {
	f.callCount++
	if f.callCount <= f.failures {
		if f.err != nil {
			return "", f.err
		}
		return "", fmt.Errorf("transient error (call %d)", f.callCount)
	}
	return "ok", nil
}

// --- CompleteWithRetry ---

func TestCompleteWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		failures   int
		maxRetries int
		wantErr    bool
	}{
		{"succeeds first try", 0, 2, false},
		{"succeeds after 1 failure", 1, 2, false},
		{"succeeds on last retry", 2, 2, false},
		{"fails after exhausting retries", 3, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &failNTimesProvider{failures: tt.failures}
			text, err := CompleteWithRetry(context.Background(), p, "sys", "user", 0.2, 100, tt.maxRetries)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.maxRetries+1, p.callCount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", text)
		})
	}
}

func TestCompleteWithRetry_StopsOnPermanentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"not configured", ErrNotConfigured},
		{"client error", &APIError{Provider: "fake", StatusCode: 400, Body: "bad request"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &failNTimesProvider{failures: 5, err: tt.err}
			_, err := CompleteWithRetry(context.Background(), p, "", "u", 0, 0, 3)
			require.Error(t, err)
			assert.Equal(t, 1, p.callCount)
			assert.True(t, errors.Is(err, tt.err) || errors.As(err, new(*APIError)))
		})
	}
}

func TestCompleteWithRetry_RetriesServerErrors(t *testing.T) {
	p := &failNTimesProvider{failures: 1, err: &APIError{Provider: "fake", StatusCode: 503}}
	text, err := CompleteWithRetry(context.Background(), p, "", "u", 0, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 2, p.callCount)
}

// --- New ---

func TestNew(t *testing.T) {
	_, err := New(types.AIConfig{Provider: "openai"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	p, err := New(types.AIConfig{Provider: "anthropic", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())
	claude, ok := p.(*ClaudeProvider)
	require.True(t, ok)
	require.NotNil(t, claude.Client)
	assert.Equal(t, types.DefaultLLMTimeout, claude.Client.Timeout)

	p, err = New(types.AIConfig{Provider: "claude", APIKey: "k", Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, p.(*ClaudeProvider).Client.Timeout)

	_, err = New(types.AIConfig{Provider: "bogus", APIKey: "k"})
	assert.Error(t, err)
}

// --- ClaudeProvider ---

func TestClaudeProvider_Complete(t *testing.T) {
	var got claudeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"content":[{"type":"text","text":"Here you go: "},{"type":"text","text":"{\"a\":1}"}]}`)
	}))
	defer srv.Close()

	orig := claudeAPIURL
	claudeAPIURL = srv.URL
	defer func() { claudeAPIURL = orig }()

	p := &ClaudeProvider{APIKey: "test-key", Model: "test-model"}
	text, err := p.Complete(context.Background(), "be precise", "find papers", 0.2, 800)
	require.NoError(t, err)
	assert.Equal(t, `Here you go: {"a":1}`, text)

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 800, got.MaxTokens)
	assert.Equal(t, "be precise", got.System)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.2, *got.Temperature, 1e-6)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "find papers", got.Messages[0].Content)
}

func TestClaudeProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":"rate limited"}`)
	}))
	defer srv.Close()

	orig := claudeAPIURL
	claudeAPIURL = srv.URL
	defer func() { claudeAPIURL = orig }()

	p := &ClaudeProvider{APIKey: "k"}
	_, err := p.Complete(context.Background(), "", "q", 0, 0)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.True(t, apiErr.Retryable())
	assert.Contains(t, apiErr.Error(), "rate limited")
}

func TestClaudeProvider_NoKey(t *testing.T) {
	p := &ClaudeProvider{}
	_, err := p.Complete(context.Background(), "", "q", 0, 0)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// --- OpenAIProvider ---

type fakeChatModel struct {
	input []*schema.Message
	opts  *model.Options
	reply string
	err   error
	calls int
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.calls++
	f.input = input
	f.opts = model.GetCommonOptions(nil, opts...)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func TestOpenAIProvider_Complete(t *testing.T) {
	fake := &fakeChatModel{reply: "[1,2]"}
	p := &OpenAIProvider{model: fake}

	text, err := p.Complete(context.Background(), "system", "user", 0.7, 2000)
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", text)

	require.Len(t, fake.input, 2)
	assert.Equal(t, schema.System, fake.input[0].Role)
	assert.Equal(t, schema.User, fake.input[1].Role)
	require.NotNil(t, fake.opts.Temperature)
	assert.InDelta(t, 0.7, *fake.opts.Temperature, 1e-6)
	require.NotNil(t, fake.opts.MaxTokens)
	assert.Equal(t, 2000, *fake.opts.MaxTokens)
}

func TestOpenAIProvider_EmptyReply(t *testing.T) {
	p := &OpenAIProvider{model: &fakeChatModel{}}
	_, err := p.Complete(context.Background(), "", "user", 0, 0)
	assert.Error(t, err)
}

func TestNewOpenAIProvider_NoKey(t *testing.T) {
	_, err := NewOpenAIProvider(context.Background(), types.AIConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// --- JSON extraction ---

func TestExtractObject(t *testing.T) {
	var v struct {
		PrimaryQuery string   `json:"primary_query"`
		Keywords     []string `json:"keywords"`
	}
	text := "Sure!\n```json\n{\"primary_query\": \"q\", \"keywords\": [\"a\", \"b\"]}\n```"
	require.NoError(t, ExtractObject(text, &v))
	assert.Equal(t, "q", v.PrimaryQuery)
	assert.Equal(t, []string{"a", "b"}, v.Keywords)
}

func TestExtractArray(t *testing.T) {
	var v []map[string]any
	require.NoError(t, ExtractArray(`Papers: [{"title":"A"},{"title":"B"}] done`, &v))
	assert.Len(t, v, 2)
}

func TestExtract_Errors(t *testing.T) {
	var v map[string]any
	assert.Error(t, ExtractObject("no json here", &v))
	assert.Error(t, ExtractObject("} backwards {", &v))
	assert.Error(t, ExtractObject("{not json}", &v))
}

func TestClaudeErrorMessage(t *testing.T) {
	assert.Equal(t, "overloaded_error: Overloaded",
		claudeErrorMessage([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)))
	assert.Equal(t, "upstream down", claudeErrorMessage([]byte("upstream down")))
}

func TestClaudeProvider_EmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"content":[],"stop_reason":"max_tokens"}`)
	}))
	defer srv.Close()

	orig := claudeAPIURL
	claudeAPIURL = srv.URL
	defer func() { claudeAPIURL = orig }()

	_, err := (&ClaudeProvider{APIKey: "k"}).Complete(context.Background(), "", "q", 0, 0)
	assert.ErrorContains(t, err, "max_tokens")
}

func TestOpenAIProvider_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCalls int
		wantCode  int
	}{
		{
			name:      "unauthorized stops at once",
			err:       fmt.Errorf("failed to create chat completion: %w", &goopenai.APIError{HTTPStatusCode: 401, Message: "bad key"}),
			wantCalls: 1,
			wantCode:  401,
		},
		{
			name:      "bad request stops at once",
			err:       fmt.Errorf("failed to create chat completion: %w", &goopenai.RequestError{HTTPStatusCode: 400, Body: []byte("bad")}),
			wantCalls: 1,
			wantCode:  400,
		},
		{
			name:      "server error is retried",
			err:       fmt.Errorf("failed to create chat completion: %w", &goopenai.APIError{HTTPStatusCode: 502, Message: "gateway"}),
			wantCalls: 3,
			wantCode:  502,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeChatModel{err: tt.err}
			p := &OpenAIProvider{model: fake}

			_, err := CompleteWithRetry(context.Background(), p, "", "user", 0, 0, 2)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.StatusCode)
			assert.Equal(t, "openai", apiErr.Provider)
			assert.Equal(t, tt.wantCalls, fake.calls)
		})
	}
}

func TestOpenAIProvider_TransportErrorIsRetried(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("connection reset")}
	_, err := CompleteWithRetry(context.Background(), &OpenAIProvider{model: fake}, "", "user", 0, 0, 1)
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.Equal(t, 2, fake.calls)
}
