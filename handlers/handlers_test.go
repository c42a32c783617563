package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"cinelens/api"
	"cinelens/quota"
	"cinelens/service"
	"cinelens/storage"
	"cinelens/stubllm"
)

func newTestRouter(t *testing.T, dailyQuota int) (*gin.Engine, *quota.Gate) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewDiskStore(t.TempDir(), "http://localhost:8080")
	if err != nil {
		t.Fatalf("failed to create disk store: %v", err)
	}

	gate := quota.NewGate(dailyQuota)
	svc := service.NewService(stubllm.NewClient(), gate, nil, nil)
	h := NewHandlers(svc, store, gate, nil)

	router := gin.New()
	router.GET(api.HealthEndpoint, h.HealthCheck)
	router.GET(api.QuotaEndpoint, h.QuotaStatus)
	router.GET(api.ResultsEndpoint, h.LastResult)
	router.GET(api.HistoryEndpoint, h.History)
	router.POST(api.UploadEndpoint, h.Upload)
	router.POST(api.RecognizeEndpoint, h.Recognize)
	return router, gate
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router, _ := newTestRouter(t, 5)

	req := httptest.NewRequest("GET", api.HealthEndpoint, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRecognizeSuccess(t *testing.T) {
	router, _ := newTestRouter(t, 5)

	w := postJSON(router, "/api/v1/recognize", api.RecognizeArgs{
		ImageURL: "http://localhost:8080/uploads/poster.jpg",
		Mode:     "movie",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var record map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &record); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if _, ok := record["title"]; !ok {
		t.Errorf("response missing title field: %s", w.Body.String())
	}
}

func TestRecognizeMissingImageURL(t *testing.T) {
	router, _ := newTestRouter(t, 5)

	w := postJSON(router, "/api/v1/recognize", api.RecognizeArgs{Mode: "movie"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRecognizeInvalidMode(t *testing.T) {
	router, _ := newTestRouter(t, 5)

	w := postJSON(router, "/api/v1/recognize", api.RecognizeArgs{
		ImageURL: "http://localhost:8080/uploads/poster.jpg",
		Mode:     "director",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	var result api.ErrorResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil || result.Error == "" {
		t.Errorf("want error payload, got %s", w.Body.String())
	}
}

func TestRecognizeQuotaExhausted(t *testing.T) {
	router, gate := newTestRouter(t, 2)

	args := api.RecognizeArgs{
		ImageURL: "http://localhost:8080/uploads/poster.jpg",
		Mode:     "movie",
	}
	for i := 0; i < 2; i++ {
		if w := postJSON(router, "/api/v1/recognize", args); w.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d, want 200", i+1, w.Code)
		}
	}
	if gate.Remaining() != 0 {
		t.Fatalf("Remaining() = %d, want 0", gate.Remaining())
	}

	w := postJSON(router, "/api/v1/recognize", args)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
}

func TestLastResultLifecycle(t *testing.T) {
	router, _ := newTestRouter(t, 5)

	req := httptest.NewRequest("GET", "/api/v1/results/movie", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status before any recognition = %d, want 404", w.Code)
	}

	postJSON(router, "/api/v1/recognize", api.RecognizeArgs{
		ImageURL: "http://localhost:8080/uploads/poster.jpg",
		Mode:     "movie",
	})

	req = httptest.NewRequest("GET", "/api/v1/results/movie", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status after recognition = %d, want 200", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/results/singer", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status for invalid mode = %d, want 400", w.Code)
	}
}

func TestQuotaStatus(t *testing.T) {
	router, _ := newTestRouter(t, 5)

	req := httptest.NewRequest("GET", "/api/v1/quota", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var status api.QuotaStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if status.Limit != 5 || status.Remaining != 5 {
		t.Errorf("quota = %+v, want remaining 5 of 5", status)
	}
}

func TestUpload(t *testing.T) {
	router, _ := newTestRouter(t, 5)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "poster.jpg")
	if err != nil {
		t.Fatalf("failed to build multipart body: %v", err)
	}
	fw.Write([]byte("fake image bytes"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var result api.UploadResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if !strings.Contains(result.URL, "/uploads/poster-") {
		t.Errorf("url = %q, want suffixed name under /uploads/", result.URL)
	}
}

func TestUploadWithoutFile(t *testing.T) {
	router, _ := newTestRouter(t, 5)

	req := httptest.NewRequest("POST", "/api/v1/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHistoryDisabled(t *testing.T) {
	router, _ := newTestRouter(t, 5)

	req := httptest.NewRequest("GET", "/api/v1/history/movie", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when history is disabled", w.Code)
	}
}
