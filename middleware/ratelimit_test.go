package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestAllowEnforcesLimit(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Fatalf("request %d unexpectedly denied", i+1)
		}
	}
	if limiter.Allow("10.0.0.1") {
		t.Error("request past the limit allowed, want denied")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)

	if !limiter.Allow("10.0.0.1") {
		t.Fatal("first key unexpectedly denied")
	}
	if limiter.Allow("10.0.0.1") {
		t.Error("first key allowed past its limit")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Error("second key denied by the first key's usage")
	}
}

func TestAllowWindowExpiry(t *testing.T) {
	limiter := NewRateLimiter(1, 20*time.Millisecond)

	if !limiter.Allow("10.0.0.1") {
		t.Fatal("first request unexpectedly denied")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("second request inside the window allowed")
	}

	time.Sleep(30 * time.Millisecond)

	if !limiter.Allow("10.0.0.1") {
		t.Error("request denied after the window expired")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(2, time.Minute))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	doGet := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := doGet(); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}

	w := doGet()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}

	var payload struct {
		Error      string `json:"error"`
		RetryAfter int    `json:"retry_after"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if payload.Error == "" {
		t.Error("429 payload missing error message")
	}
	if payload.RetryAfter != 60 {
		t.Errorf("retry_after = %d, want 60", payload.RetryAfter)
	}
}
