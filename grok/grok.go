package grok

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const grokEndpoint = "https://api.x.ai/v1/chat/completions"

// Low temperature: identification should favor determinism over creativity.
const temperature = 0.3

// ErrMissingAPIKey is returned before any network call when no credential is
// configured.
var ErrMissingAPIKey = errors.New("grok api key is not configured")

// ErrEmptyReply is returned when the endpoint answers successfully but no
// textual content can be extracted from the response.
var ErrEmptyReply = errors.New("no content in grok response")

// UpstreamError is a non-success response from the model endpoint. Body is
// kept for diagnostics.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("grok API error (status %d): %s", e.StatusCode, e.Body)
}

type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ImageContent struct {
	Type     string   `json:"type"`
	ImageURL ImageURL `json:"image_url"`
}

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client represents an xAI Grok API client
type Client struct {
	apiKey string
	model  string
	client *http.Client
}

// NewClient creates a new Grok client. A hung upstream call is bounded by
// the supplied timeout and surfaces as an upstream failure.
func NewClient(apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

// SourceName identifies this provider in saved recognitions
func (c *Client) SourceName() string {
	return "Grok"
}

// RecognizeImage submits the instruction and the image reference as a single
// user turn and returns the complete raw text the model produced.
func (c *Client) RecognizeImage(imageURL, instruction string, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	textPrompt := TextContent{
		Type: "text",
		Text: instruction,
	}

	imagePrompt := ImageContent{
		Type: "image_url",
		ImageURL: ImageURL{
			URL: imageURL,
		},
	}

	reqBody := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{
				Role: "user",
				Content: []any{
					textPrompt,
					imagePrompt,
				},
			},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", grokEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &UpstreamError{StatusCode: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", ErrEmptyReply
	}

	// Extract the text content from the response
	content := chatResp.Choices[0].Message.Content
	if contentStr, ok := content.(string); ok {
		if contentStr == "" {
			return "", ErrEmptyReply
		}
		return contentStr, nil
	}

	// Some providers return structured content parts; flatten them back to JSON
	if content == nil {
		return "", ErrEmptyReply
	}
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("failed to marshal content: %w", err)
	}

	return string(contentJSON), nil
}
