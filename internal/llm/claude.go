// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/labscout/pkg/types"
)

// claudeAPIURL is the Anthropic Messages endpoint; tests replace it.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

var defaultClaudeClient = &http.Client{Timeout: types.DefaultLLMTimeout}

const (
	defaultClaudeModel = "claude-sonnet-4-20250514"
	anthropicVersion   = "2023-06-01"
	defaultMaxTokens   = 1024
)

// ClaudeProvider completes prompts with the Anthropic Messages API. A nil
// Client means a client bounded by types.DefaultLLMTimeout.
type ClaudeProvider struct {
	APIKey string
	Model  string
	Client *http.Client
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	System      string          `json:"system,omitempty"`
	Temperature *float32        `json:"temperature,omitempty"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeReply struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Name returns the provider identifier.
func (c *ClaudeProvider) Name() string { return "anthropic" }

// Complete sends userPrompt as a single user turn under systemPrompt and
// joins the text blocks of the reply.
func (c *ClaudeProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (string, error) {
	if c.APIKey == "" {
		return "", ErrNotConfigured
	}
	body := claudeRequest{
		Model:       c.Model,
		MaxTokens:   maxTokens,
		System:      systemPrompt,
		Temperature: &temperature,
		Messages:    []claudeMessage{{Role: "user", Content: userPrompt}},
	}
	if body.Model == "" {
		body.Model = defaultClaudeModel
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = defaultMaxTokens
	}

	var reply claudeReply
	if err := c.post(ctx, body, &reply); err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range reply.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("Claude reply has no text (stop_reason %q)", reply.StopReason)
	}
	return text.String(), nil
}

func (c *ClaudeProvider) post(ctx context.Context, body claudeRequest, reply *claudeReply) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding Claude request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	client := c.Client
	if client == nil {
		client = defaultClaudeClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Provider: c.Name(), StatusCode: resp.StatusCode, Body: claudeErrorMessage(raw)}
	}
	if err := json.NewDecoder(resp.Body).Decode(reply); err != nil {
		return fmt.Errorf("decoding Claude reply: %w", err)
	}
	return nil
}

// claudeErrorMessage returns error.message from an Anthropic error body,
// or the raw body when it has another shape.
func claudeErrorMessage(raw []byte) string {
	var e struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Error.Message != "" {
		return e.Error.Type + ": " + e.Error.Message
	}
	return string(raw)
}
