package grok

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

func newTestClient() *Client {
	return NewClient("test-key", "grok-beta", 5*time.Second)
}

func TestRecognizeImageSuccess(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	const reply = `{"title":"Inception"}`

	httpmock.RegisterResponder("POST", grokEndpoint,
		func(req *http.Request) (*http.Response, error) {
			if auth := req.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("Authorization header = %q, want bearer credential", auth)
			}

			var chatReq ChatRequest
			if err := json.NewDecoder(req.Body).Decode(&chatReq); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			if chatReq.Model != "grok-beta" {
				t.Errorf("model = %q, want grok-beta", chatReq.Model)
			}
			if chatReq.Temperature != 0.3 {
				t.Errorf("temperature = %v, want 0.3", chatReq.Temperature)
			}
			if chatReq.MaxTokens != 600 {
				t.Errorf("max_tokens = %d, want 600", chatReq.MaxTokens)
			}
			if len(chatReq.Messages) != 1 || chatReq.Messages[0].Role != "user" {
				t.Errorf("want a single user message, got %+v", chatReq.Messages)
			}

			return httpmock.NewJsonResponse(200, map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": reply}},
				},
			})
		})

	got, err := newTestClient().RecognizeImage("https://example.com/img.jpg", "identify this movie", 600)
	if err != nil {
		t.Fatalf("RecognizeImage() failed: %v", err)
	}
	if got != reply {
		t.Errorf("RecognizeImage() = %q, want raw reply untouched %q", got, reply)
	}
}

func TestRecognizeImageMissingAPIKey(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	client := NewClient("", "grok-beta", 5*time.Second)
	_, err := client.RecognizeImage("https://example.com/img.jpg", "identify", 600)
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("error = %v, want ErrMissingAPIKey", err)
	}
	if httpmock.GetTotalCallCount() != 0 {
		t.Error("network call performed despite missing credential")
	}
}

func TestRecognizeImageUpstreamError(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", grokEndpoint,
		httpmock.NewStringResponder(503, "model overloaded"))

	_, err := newTestClient().RecognizeImage("https://example.com/img.jpg", "identify", 600)

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want *UpstreamError", err)
	}
	if upstream.StatusCode != 503 {
		t.Errorf("StatusCode = %d, want 503", upstream.StatusCode)
	}
	if upstream.Body != "model overloaded" {
		t.Errorf("Body = %q, want upstream payload retained", upstream.Body)
	}
}

func TestRecognizeImageEmptyReply(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no choices", body: `{"choices":[]}`},
		{name: "empty content", body: `{"choices":[{"message":{"content":""}}]}`},
		{name: "null content", body: `{"choices":[{"message":{"content":null}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.Activate()
			defer httpmock.DeactivateAndReset()

			httpmock.RegisterResponder("POST", grokEndpoint,
				httpmock.NewStringResponder(200, tt.body))

			_, err := newTestClient().RecognizeImage("https://example.com/img.jpg", "identify", 600)
			if !errors.Is(err, ErrEmptyReply) {
				t.Errorf("error = %v, want ErrEmptyReply", err)
			}
		})
	}
}

func TestSourceName(t *testing.T) {
	if got := newTestClient().SourceName(); got != "Grok" {
		t.Errorf("SourceName() = %q, want Grok", got)
	}
}
