package models

import (
	"errors"
	"fmt"
)

// Mode selects whether the pipeline identifies a movie or a performer.
type Mode string

const (
	ModeMovie Mode = "movie"
	ModeActor Mode = "actor"
)

// ErrInvalidMode is returned when a request carries a mode outside the known set.
var ErrInvalidMode = errors.New("invalid mode")

// ParseMode validates a mode literal supplied by the caller.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeMovie, ModeActor:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// SchemaField describes one field of a mode's output schema: its JSON key,
// a human-readable type and the sentinel the model must emit when the value
// is unknown. The field list is the ground truth both for prompt rendering
// and for parser validation.
type SchemaField struct {
	Name     string
	Type     string
	Sentinel string
}

var movieSchema = []SchemaField{
	{Name: "title", Type: "string", Sentinel: `"unknown"`},
	{Name: "year", Type: "string", Sentinel: `"unknown"`},
	{Name: "rating", Type: "numeric string, 0-10", Sentinel: `"unknown"`},
	{Name: "actors", Type: "array of strings", Sentinel: `[]`},
	{Name: "watchLinks", Type: "array of strings", Sentinel: `["none"]`},
	{Name: "downloadLinks", Type: "array of strings", Sentinel: `["none"]`},
	{Name: "torrent", Type: "string", Sentinel: `"none"`},
	{Name: "description", Type: "string, at most 300 characters", Sentinel: `"unknown"`},
	{Name: "isAdultContent", Type: "boolean", Sentinel: `false`},
}

var actorSchema = []SchemaField{
	{Name: "name", Type: "string", Sentinel: `"unknown"`},
	{Name: "info", Type: "string, at most 600 characters", Sentinel: `"unknown"`},
	{Name: "movies", Type: `array of "Title (Year)" strings, at most 15 entries`, Sentinel: `[]`},
}

// Schema returns the output field list for a mode.
func Schema(mode Mode) []SchemaField {
	if mode == ModeActor {
		return actorSchema
	}
	return movieSchema
}

// MovieRecord is the validated result of a movie recognition.
type MovieRecord struct {
	Title          string   `json:"title"`
	Year           string   `json:"year"`
	Rating         string   `json:"rating"`
	Actors         []string `json:"actors"`
	WatchLinks     []string `json:"watchLinks"`
	DownloadLinks  []string `json:"downloadLinks"`
	Torrent        string   `json:"torrent"`
	Description    string   `json:"description"`
	IsAdultContent bool     `json:"isAdultContent"`
}

// ActorRecord is the validated result of a performer recognition.
type ActorRecord struct {
	Name   string   `json:"name"`
	Info   string   `json:"info"`
	Movies []string `json:"movies"`
}

// RecognitionResult carries exactly one record, matching the requested mode.
type RecognitionResult struct {
	Mode  Mode         `json:"mode"`
	Movie *MovieRecord `json:"movie,omitempty"`
	Actor *ActorRecord `json:"actor,omitempty"`
}

// Record returns the mode-specific record for JSON rendering.
func (r *RecognitionResult) Record() any {
	if r.Mode == ModeActor {
		return r.Actor
	}
	return r.Movie
}

// RecognitionEvent is the message published to downstream consumers for
// each successful recognition.
type RecognitionEvent struct {
	Mode     Mode   `json:"mode"`
	ImageURL string `json:"imageUrl"`
	Source   string `json:"source"`
	Result   any    `json:"result"`
}
