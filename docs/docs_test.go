package docs

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSwaggerInfoRegistered(t *testing.T) {
	if SwaggerInfo == nil {
		t.Fatal("swagger info not initialized")
	}
	if SwaggerInfo.Title != "Market Mood API" {
		t.Fatalf("unexpected title %q", SwaggerInfo.Title)
	}
}

func TestSwaggerDocumentsSentimentRoutes(t *testing.T) {
	doc := SwaggerInfo.ReadDoc()

	var swagger struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &swagger); err != nil {
		t.Fatalf("swagger doc is not valid JSON: %v", err)
	}
	for _, path := range []string{
		"/health",
		"/api/sentiment/latest",
		"/api/sentiment/history",
		"/api/news",
		"/api/pipeline/run",
		"/api/alerts/subscriptions",
		"/api/alerts/unsubscribe/{token}",
	} {
		if _, ok := swagger.Paths[path]; !ok {
			t.Errorf("swagger doc missing %s", path)
		}
	}
	if !strings.Contains(doc, "X-API-Key") {
		t.Error("swagger doc missing API key definition")
	}
}
