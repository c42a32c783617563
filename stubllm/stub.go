package stubllm

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Client is a deterministic, no-network LLM stub intended for CI and local
// end-to-end tests. It returns schema-valid JSON so downstream parsing and
// caching exercise the full pipeline.
type Client struct{}

func NewClient() *Client { return &Client{} }

func (c *Client) SourceName() string { return "Stub" }

func (c *Client) RecognizeImage(imageURL, instruction string, maxTokens int) (string, error) {
	// Make output deterministic per-input so tests are stable.
	sum := sha256.Sum256([]byte(imageURL))
	short := hex.EncodeToString(sum[:4])

	var out map[string]any
	if strings.Contains(instruction, "performer") {
		out = map[string]any{
			"name":   fmt.Sprintf("Stub Performer %s", short),
			"info":   "unknown",
			"movies": []string{"Stub Picture (2020)"},
		}
	} else {
		out = map[string]any{
			"title":          fmt.Sprintf("Stub Movie %s", short),
			"year":           "2020",
			"rating":         "7.5",
			"actors":         []string{"Stub Performer"},
			"watchLinks":     []string{"none"},
			"downloadLinks":  []string{"none"},
			"torrent":        "none",
			"description":    "Deterministic stub result.",
			"isAdultContent": false,
		}
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
