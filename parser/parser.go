package parser

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"cinelens/models"
)

const (
	maxDescriptionLen = 300
	maxInfoLen        = 600
	maxActorMovies    = 15

	// How much of the offending model output to keep in error messages.
	maxDiagnosticLen = 200
)

const unknownSentinel = "unknown"

// ParseError reports model output that could not be turned into a validated
// record. Input carries the offending text, truncated, for diagnostics.
type ParseError struct {
	Reason string
	Input  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse model output: %s (input: %q)", e.Reason, e.Input)
}

func newParseError(reason, input string) *ParseError {
	return &ParseError{Reason: reason, Input: truncate(input, maxDiagnosticLen)}
}

// ExtractJSONFromMarkdown extracts JSON from markdown code blocks
func ExtractJSONFromMarkdown(response string) string {
	// Prefer the first block explicitly labeled as JSON; a reply may carry
	// other fenced blocks (shell snippets, examples) before it.
	jsonMarker := "```json"
	if startIdx := strings.Index(response, jsonMarker); startIdx != -1 {
		rest := response[startIdx+len(jsonMarker):]
		if endIdx := strings.Index(rest, "```"); endIdx != -1 {
			return strings.TrimSpace(rest[:endIdx])
		}
	}

	// Look for JSON code blocks with ``` markers
	startMarker := "```"
	endMarker := "```"

	startIdx := strings.Index(response, startMarker)
	if startIdx == -1 {
		// No code block found, try to find JSON object directly
		startIdx = strings.Index(response, "{")
		if startIdx == -1 {
			return response
		}
		endIdx := strings.LastIndex(response, "}")
		if endIdx == -1 {
			return response
		}
		return strings.TrimSpace(response[startIdx : endIdx+1])
	}

	// Find the end of the first code block
	endIdx := strings.Index(response[startIdx+len(startMarker):], endMarker)
	if endIdx == -1 {
		return response
	}
	endIdx += startIdx + len(startMarker)

	// Extract content between the markers
	content := response[startIdx+len(startMarker) : endIdx]

	// Remove the language identifier if present (e.g., "json")
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 && (strings.TrimSpace(lines[0]) == "json" || strings.TrimSpace(lines[0]) == "") {
		content = strings.Join(lines[1:], "\n")
	}

	return strings.TrimSpace(content)
}

// Parse turns raw model output into a validated record for the requested
// mode. The model is untrusted text: the reply may be wrapped in prose or
// code fences, and its field set is checked against the mode's schema.
// Sentinel values ("unknown", "none", empty lists) are legal field values;
// only structural problems yield an error.
func Parse(raw string, mode models.Mode) (*models.RecognitionResult, error) {
	cleaned := strings.TrimSpace(raw)
	jsonContent := ExtractJSONFromMarkdown(cleaned)

	if err := checkFieldSet(jsonContent, mode); err != nil {
		return nil, err
	}

	switch mode {
	case models.ModeMovie:
		record, err := parseMovie(jsonContent)
		if err != nil {
			return nil, err
		}
		return &models.RecognitionResult{Mode: models.ModeMovie, Movie: record}, nil
	case models.ModeActor:
		record, err := parseActor(jsonContent)
		if err != nil {
			return nil, err
		}
		return &models.RecognitionResult{Mode: models.ModeActor, Actor: record}, nil
	}
	return nil, fmt.Errorf("%w: %q", models.ErrInvalidMode, mode)
}

// checkFieldSet parses the JSON object and verifies its key set matches the
// mode's schema exactly: every declared field present, no foreign fields.
func checkFieldSet(jsonContent string, mode models.Mode) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonContent), &fields); err != nil {
		return newParseError("not a JSON object: "+err.Error(), jsonContent)
	}

	schema := models.Schema(mode)
	known := make(map[string]bool, len(schema))
	for _, f := range schema {
		known[f.Name] = true
		if _, ok := fields[f.Name]; !ok {
			return newParseError(fmt.Sprintf("missing field %q for mode %q", f.Name, mode), jsonContent)
		}
	}
	for name := range fields {
		if !known[name] {
			return newParseError(fmt.Sprintf("unexpected field %q for mode %q", name, mode), jsonContent)
		}
	}
	return nil
}

func parseMovie(jsonContent string) (*models.MovieRecord, error) {
	var record models.MovieRecord
	if err := json.Unmarshal([]byte(jsonContent), &record); err != nil {
		return nil, newParseError("movie record shape mismatch: "+err.Error(), jsonContent)
	}

	if err := checkRating(record.Rating); err != nil {
		return nil, newParseError(err.Error(), jsonContent)
	}

	// Lists must be present even when empty; a JSON null unmarshals to nil.
	if record.Actors == nil {
		return nil, newParseError(`field "actors" must be an array`, jsonContent)
	}
	if record.WatchLinks == nil {
		return nil, newParseError(`field "watchLinks" must be an array`, jsonContent)
	}
	if record.DownloadLinks == nil {
		return nil, newParseError(`field "downloadLinks" must be an array`, jsonContent)
	}

	record.Description = truncate(record.Description, maxDescriptionLen)
	return &record, nil
}

func parseActor(jsonContent string) (*models.ActorRecord, error) {
	var record models.ActorRecord
	if err := json.Unmarshal([]byte(jsonContent), &record); err != nil {
		return nil, newParseError("actor record shape mismatch: "+err.Error(), jsonContent)
	}

	if record.Movies == nil {
		return nil, newParseError(`field "movies" must be an array`, jsonContent)
	}
	if len(record.Movies) > maxActorMovies {
		record.Movies = record.Movies[:maxActorMovies]
	}

	record.Info = truncate(record.Info, maxInfoLen)
	return &record, nil
}

// checkRating accepts the "unknown" sentinel or a numeric string on the
// 0-10 scale.
func checkRating(rating string) error {
	if rating == unknownSentinel || rating == "" {
		return nil
	}
	value, err := decimal.NewFromString(rating)
	if err != nil {
		return fmt.Errorf("rating %q is not numeric", rating)
	}
	if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(10)) {
		return fmt.Errorf("rating %q is outside the 0-10 scale", rating)
	}
	return nil
}

// truncate bounds s to max characters, cutting on rune boundaries so
// multibyte text never yields invalid UTF-8.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
