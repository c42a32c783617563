package service

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/apex/log"

	"cinelens/database"
	"cinelens/grok"
	"cinelens/llm"
	"cinelens/metrics"
	"cinelens/models"
	"cinelens/parser"
	"cinelens/prompt"
	"cinelens/quota"
)

// Publisher delivers each successful recognition to downstream consumers.
// Publishing is best-effort; a failed publish never fails the recognition.
type Publisher interface {
	Publish(message any) error
}

// Service runs the recognition pipeline: quota check, prompt selection,
// model invocation, extraction, history save, event publish and result
// caching. The quota counter is committed only after the whole attempt
// succeeds.
type Service struct {
	llmClient llm.Client
	gate      *quota.Gate
	db        *database.Database // nil when history is disabled
	publisher Publisher          // nil when event publishing is disabled

	mu          sync.RWMutex
	lastResults map[models.Mode]*models.RecognitionResult
}

// NewService creates a new recognition service. db and publisher may be
// nil; both are best-effort and never fail a recognition.
func NewService(llmClient llm.Client, gate *quota.Gate, db *database.Database, publisher Publisher) *Service {
	return &Service{
		llmClient:   llmClient,
		gate:        gate,
		db:          db,
		publisher:   publisher,
		lastResults: make(map[models.Mode]*models.RecognitionResult),
	}
}

// Recognize runs one recognition attempt end to end and returns either a
// validated record or a classified error.
func (s *Service) Recognize(imageURL, modeStr string) (*models.RecognitionResult, error) {
	if imageURL == "" {
		return nil, newError(KindMissingInput, "no image URL", nil)
	}

	mode, err := models.ParseMode(modeStr)
	if err != nil {
		return nil, newError(KindInvalidMode, "mode must be \"movie\" or \"actor\"", err)
	}

	if !s.gate.CheckAndReserve() {
		metrics.QuotaDeniedTotal.Inc()
		metrics.RecognitionsTotal.WithLabelValues(string(mode), "quota_denied").Inc()
		return nil, newError(KindQuotaExceeded, "daily recognition quota exhausted", nil)
	}

	spec, err := prompt.Select(mode)
	if err != nil {
		// Unreachable after ParseMode, but classify anyway.
		return nil, newError(KindInvalidMode, err.Error(), err)
	}

	start := time.Now()
	rawText, err := s.llmClient.RecognizeImage(imageURL, spec.Instruction, spec.MaxTokens)
	metrics.ModelCallDurationSeconds.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, s.classifyModelError(mode, err)
	}

	result, err := parser.Parse(rawText, mode)
	if err != nil {
		log.Errorf("Failed to parse model output for mode %s: %v", mode, err)
		metrics.RecognitionsTotal.WithLabelValues(string(mode), "parse_error").Inc()
		return nil, newError(KindParse, "model returned an unparsable result", err)
	}

	s.saveHistory(imageURL, result, rawText)
	s.publishResult(imageURL, result)
	s.cacheResult(result)
	s.gate.Commit()

	metrics.RecognitionsTotal.WithLabelValues(string(mode), "success").Inc()
	log.Infof("Recognition succeeded: mode=%s remaining_quota=%d", mode, s.gate.Remaining())
	return result, nil
}

// LastResult returns the most recent validated record for a mode.
func (s *Service) LastResult(mode models.Mode) (*models.RecognitionResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.lastResults[mode]
	return result, ok
}

func (s *Service) cacheResult(result *models.RecognitionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResults[result.Mode] = result
}

// saveHistory persists the outcome when a database is configured. Failures
// are logged and swallowed: history must never fail a recognition.
func (s *Service) saveHistory(imageURL string, result *models.RecognitionResult, rawText string) {
	if s.db == nil {
		return
	}

	resultJSON, err := json.Marshal(result.Record())
	if err != nil {
		log.Errorf("Failed to marshal recognition result: %v", err)
		return
	}

	rec := &database.Recognition{
		Mode:       string(result.Mode),
		ImageURL:   imageURL,
		Source:     s.llmClient.SourceName(),
		RawText:    rawText,
		ResultJSON: string(resultJSON),
	}
	if err := s.db.SaveRecognition(rec); err != nil {
		log.Errorf("Failed to save recognition history: %v", err)
	}
}

// publishResult delivers the outcome to downstream consumers when a
// publisher is configured. Failures are logged and swallowed.
func (s *Service) publishResult(imageURL string, result *models.RecognitionResult) {
	if s.publisher == nil {
		return
	}

	event := models.RecognitionEvent{
		Mode:     result.Mode,
		ImageURL: imageURL,
		Source:   s.llmClient.SourceName(),
		Result:   result.Record(),
	}
	if err := s.publisher.Publish(event); err != nil {
		log.Errorf("Failed to publish recognition event: %v", err)
	} else {
		log.Infof("Published recognition event: mode=%s", result.Mode)
	}
}

// classifyModelError maps provider failures onto the pipeline taxonomy and
// keeps the upstream payload in the logs for diagnostics.
func (s *Service) classifyModelError(mode models.Mode, err error) error {
	var upstream *grok.UpstreamError
	switch {
	case errors.Is(err, grok.ErrMissingAPIKey):
		log.Error("Grok API key missing")
		metrics.RecognitionsTotal.WithLabelValues(string(mode), "config_error").Inc()
		return newError(KindConfiguration, "model API key missing", err)
	case errors.Is(err, grok.ErrEmptyReply):
		log.Errorf("Empty reply from model for mode %s", mode)
		metrics.RecognitionsTotal.WithLabelValues(string(mode), "empty_reply").Inc()
		return newError(KindEmptyReply, "model returned no content", err)
	case errors.As(err, &upstream):
		log.Errorf("Model endpoint error: status=%d body=%s", upstream.StatusCode, upstream.Body)
		metrics.RecognitionsTotal.WithLabelValues(string(mode), "upstream_error").Inc()
		return newError(KindUpstream, "model endpoint failed", err)
	default:
		log.Errorf("Model invocation failed: %v", err)
		metrics.RecognitionsTotal.WithLabelValues(string(mode), "upstream_error").Inc()
		return newError(KindUpstream, "model invocation failed", err)
	}
}
