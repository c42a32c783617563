package api

const (
	HealthEndpoint    = "/api/v1/health"
	UploadEndpoint    = "/api/v1/upload"
	RecognizeEndpoint = "/api/v1/recognize"
	ResultsEndpoint   = "/api/v1/results/:mode"
	HistoryEndpoint   = "/api/v1/history/:mode"
	QuotaEndpoint     = "/api/v1/quota"
	MetricsEndpoint   = "/metrics"
)

type RecognizeArgs struct {
	ImageURL string `json:"imageUrl"` // must be publicly fetchable.
	Mode     string `json:"mode"`     // "movie" or "actor".
}

type UploadResult struct {
	URL string `json:"url"`
}

type QuotaStatus struct {
	Remaining int `json:"remaining"`
	Limit     int `json:"limit"`
}

type ErrorResult struct {
	Error string `json:"error"`
}
