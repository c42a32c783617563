package prompt

import (
	"fmt"
	"strings"

	"cinelens/models"
)

// Spec is the full request contract for one mode: the instruction text sent
// to the model, the schema fields the reply must contain and the output
// length cap for the call.
type Spec struct {
	Instruction string
	Fields      []models.SchemaField
	MaxTokens   int
}

const (
	movieMaxTokens = 600
	actorMaxTokens = 300
)

const movieIntro = `You are an expert movie recognition AI. Analyze this movie poster or screenshot and identify the movie.`

const actorIntro = `You are an expert actor and actress recognition AI. Analyze this photo and identify the performer.`

// Select returns the prompt spec for a mode. Pure and total over valid
// modes; an unrecognized mode is a caller contract violation.
func Select(mode models.Mode) (Spec, error) {
	switch mode {
	case models.ModeMovie:
		return Spec{
			Instruction: render(movieIntro, models.Schema(models.ModeMovie)),
			Fields:      models.Schema(models.ModeMovie),
			MaxTokens:   movieMaxTokens,
		}, nil
	case models.ModeActor:
		return Spec{
			Instruction: render(actorIntro, models.Schema(models.ModeActor)),
			Fields:      models.Schema(models.ModeActor),
			MaxTokens:   actorMaxTokens,
		}, nil
	}
	return Spec{}, fmt.Errorf("%w: %q", models.ErrInvalidMode, mode)
}

// render builds the instruction text from the schema field list so the
// prompt and the parser validation can never drift apart.
func render(intro string, fields []models.SchemaField) string {
	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n\nReturn a single valid JSON object and nothing else - no markdown, no commentary.\n")
	b.WriteString("The object must contain exactly these fields, every field always present:\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "  %q: %s, use %s when unknown\n", f.Name, f.Type, f.Sentinel)
	}
	b.WriteString("Never omit a field. Use the listed sentinel value instead of leaving information out.")
	return b.String()
}
