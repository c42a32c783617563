package llm

// Client abstracts the vision-capable LLM provider used by the recognition
// pipeline. Implementations must be concurrency-safe if used across
// goroutines.
type Client interface {
	// RecognizeImage submits the instruction text plus an image reference in a
	// single turn and returns the raw textual reply, untouched.
	RecognizeImage(imageURL, instruction string, maxTokens int) (string, error)
	// SourceName returns a short provider label to persist with saved results
	// (e.g., "Grok", "Stub").
	SourceName() string
}
