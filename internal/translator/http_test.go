package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/valpere/batchtran/internal"
)

var testBatchRequest = BatchRequest{
	Segments: []internal.Segment{
		{ID: "seg-1", Source: "焦炉装煤"},
		{ID: "seg-2", Source: "推焦"},
	},
	SourceLang: "zh-CN",
	TargetLang: "en-US",
}

func TestDeepSeekService_TranslateBatch(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)

		reply := "[ID: seg-1]\nCoal charging\n\n[ID: seg-2]\nCoke pushing"
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": reply}},
			},
		})
	}))
	defer server.Close()

	svc := NewDeepSeekService("test-key", server.URL, "")
	result, err := svc.TranslateBatch(context.Background(), ServiceConfig{}, testBatchRequest)
	if err != nil {
		t.Fatalf("TranslateBatch failed: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody["model"] != "deepseek-chat" {
		t.Errorf("model = %v, want default", gotBody["model"])
	}

	if result.ServiceName != "deepseek" {
		t.Errorf("service name = %q", result.ServiceName)
	}
	if len(result.Translations) != 2 {
		t.Fatalf("expected 2 translations, got %d", len(result.Translations))
	}
	if result.Translations[0].Target == nil || *result.Translations[0].Target != "Coal charging" {
		t.Errorf("unexpected first translation: %+v", result.Translations[0])
	}
	if result.Latency <= 0 {
		t.Error("latency not recorded")
	}
}

func TestDeepSeekService_PromptCarriesSegments(t *testing.T) {
	var userContent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		for _, m := range body.Messages {
			if m.Role == "user" {
				userContent = m.Content
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "[ID: seg-1]\nx\n\n[ID: seg-2]\ny"}},
			},
		})
	}))
	defer server.Close()

	svc := NewDeepSeekService("k", server.URL, "")
	if _, err := svc.TranslateBatch(context.Background(), ServiceConfig{}, testBatchRequest); err != nil {
		t.Fatalf("TranslateBatch failed: %v", err)
	}

	if !strings.Contains(userContent, "[ID: seg-1]") || !strings.Contains(userContent, "焦炉装煤") {
		t.Errorf("user prompt missing segment content:\n%s", userContent)
	}
}

func TestDeepSeekService_MissingKey(t *testing.T) {
	svc := NewDeepSeekService("", "http://unused", "")
	result, err := svc.TranslateBatch(context.Background(), ServiceConfig{}, testBatchRequest)
	if err == nil {
		t.Fatal("expected error without API key")
	}
	if result.Error == "" {
		t.Error("result.Error not populated")
	}
	if err := svc.IsAvailable(context.Background()); err == nil {
		t.Error("IsAvailable should fail without key")
	}
}

func TestDeepSeekService_ConfigKeyFallback(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "[ID: seg-1]\nx\n\n[ID: seg-2]\ny"}},
			},
		})
	}))
	defer server.Close()

	svc := NewDeepSeekService("", server.URL, "")
	if _, err := svc.TranslateBatch(context.Background(), ServiceConfig{APIKey: "cfg-key"}, testBatchRequest); err != nil {
		t.Fatalf("TranslateBatch failed: %v", err)
	}
	if gotAuth != "Bearer cfg-key" {
		t.Errorf("auth header = %q, want config key", gotAuth)
	}
}

func TestDeepSeekService_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"message": "rate limited"}}`)
	}))
	defer server.Close()

	svc := NewDeepSeekService("k", server.URL, "")
	result, err := svc.TranslateBatch(context.Background(), ServiceConfig{}, testBatchRequest)
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if !strings.Contains(result.Error, "429") {
		t.Errorf("result.Error = %q, should name the status", result.Error)
	}
}

func TestDeepSeekService_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	svc := NewDeepSeekService("k", server.URL, "")
	if _, err := svc.TranslateBatch(context.Background(), ServiceConfig{}, testBatchRequest); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestDeepSeekService_ConfigTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "[ID: seg-1]\nx\n\n[ID: seg-2]\ny"}},
			},
		})
	}))
	defer server.Close()

	svc := NewDeepSeekService("k", server.URL, "")

	start := time.Now()
	_, err := svc.TranslateBatch(context.Background(), ServiceConfig{Timeout: 50 * time.Millisecond}, testBatchRequest)
	if err == nil {
		t.Fatal("expected the configured timeout to abort the slow call")
	}
	if elapsed := time.Since(start); elapsed >= 300*time.Millisecond {
		t.Errorf("call ran for %v, timeout did not cut it short", elapsed)
	}

	// Without a configured timeout the same call completes.
	if _, err := svc.TranslateBatch(context.Background(), ServiceConfig{}, testBatchRequest); err != nil {
		t.Fatalf("call without timeout failed: %v", err)
	}
}

func TestOllamaService_ConfigTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"response": "[ID: seg-1]\nx"})
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, "")

	start := time.Now()
	_, err := svc.TranslateBatch(context.Background(), ServiceConfig{Timeout: 50 * time.Millisecond}, testBatchRequest)
	if err == nil {
		t.Fatal("expected the configured timeout to abort the slow call")
	}
	if elapsed := time.Since(start); elapsed >= 300*time.Millisecond {
		t.Errorf("call ran for %v, timeout did not cut it short", elapsed)
	}
}

func TestOllamaService_TranslateBatch(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{
			"response": "[ID: seg-1]\nCoal charging\n\n[ID: seg-2]\nCoke pushing",
		})
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, "custom-model")
	result, err := svc.TranslateBatch(context.Background(), ServiceConfig{}, testBatchRequest)
	if err != nil {
		t.Fatalf("TranslateBatch failed: %v", err)
	}

	if gotBody["model"] != "custom-model" {
		t.Errorf("model = %v", gotBody["model"])
	}
	if gotBody["stream"] != false {
		t.Error("streaming should be disabled")
	}
	if len(result.Translations) != 2 {
		t.Fatalf("expected 2 translations, got %d", len(result.Translations))
	}
	if *result.Translations[1].Target != "Coke pushing" {
		t.Errorf("unexpected second translation: %+v", result.Translations[1])
	}
}

func TestOllamaService_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"models": []}`)
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, "")
	if err := svc.IsAvailable(context.Background()); err != nil {
		t.Errorf("IsAvailable failed: %v", err)
	}

	server.Close()
	if err := svc.IsAvailable(context.Background()); err == nil {
		t.Error("IsAvailable should fail once the server is gone")
	}
}

func TestOllamaService_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, "")
	if _, err := svc.TranslateBatch(context.Background(), ServiceConfig{}, testBatchRequest); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
