package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/gin-gonic/gin"
)

var canonicalUTC = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`)

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name     string
		handler  *Handler
		pipeline string
		alerts   string
	}{
		{"read only", New(testTracer, &stubSentiment{}, nil, nil), "disabled", "disabled"},
		{"fully wired", New(testTracer, &stubSentiment{}, &stubRunner{}, &stubSubscriptions{}), "enabled", "enabled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", tc.handler.Health)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/health", nil)
			r.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}

			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["status"] != "healthy" {
				t.Errorf("status = %q", body["status"])
			}
			if body["pipeline"] != tc.pipeline || body["alerts"] != tc.alerts {
				t.Errorf("pipeline/alerts = %q/%q, want %q/%q", body["pipeline"], body["alerts"], tc.pipeline, tc.alerts)
			}
			if !canonicalUTC.MatchString(body["time_utc"]) {
				t.Errorf("time_utc = %q", body["time_utc"])
			}
		})
	}
}
