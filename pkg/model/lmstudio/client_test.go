package lmstudio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/localagent/lmagent/pkg/model"
)

func modelsHandler(ids ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		entries := make([]map[string]string, 0, len(ids))
		for _, id := range ids {
			entries = append(entries, map[string]string{"id": id})
		}
		json.NewEncoder(w).Encode(map[string]any{"data": entries})
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(modelsHandler("qwen2.5-7b", "llama-3.1-8b"))
	defer srv.Close()

	client := New(srv.URL, "")
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[0] != "qwen2.5-7b" {
		t.Fatalf("unexpected models: %v", models)
	}
}

func TestEnsureModelAutoDetects(t *testing.T) {
	var hits int
	mux := http.NewServeMux()
	mux.HandleFunc(modelsPath, func(w http.ResponseWriter, r *http.Request) {
		hits++
		modelsHandler("first-model", "second-model")(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(srv.URL, "")
	for i := 0; i < 3; i++ {
		name, err := client.EnsureModel(context.Background())
		if err != nil {
			t.Fatalf("EnsureModel: %v", err)
		}
		if name != "first-model" {
			t.Fatalf("expected first listed model, got %q", name)
		}
	}
	if hits != 1 {
		t.Fatalf("model list should be cached after first resolution, got %d hits", hits)
	}
}

func TestEnsureModelConfiguredSkipsLookup(t *testing.T) {
	client := New("http://127.0.0.1:1", "pinned-model")
	name, err := client.EnsureModel(context.Background())
	if err != nil {
		t.Fatalf("EnsureModel: %v", err)
	}
	if name != "pinned-model" {
		t.Fatalf("got %q", name)
	}
}

func TestEnsureModelEmptyList(t *testing.T) {
	srv := httptest.NewServer(modelsHandler())
	defer srv.Close()

	client := New(srv.URL, "")
	if _, err := client.EnsureModel(context.Background()); !errors.Is(err, ErrNoModels) {
		t.Fatalf("expected ErrNoModels, got %v", err)
	}
}

func TestListModelsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	_, err := client.ListModels(context.Background())
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("wrong status: %d", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Message, "boom") {
		t.Fatalf("body not surfaced: %q", apiErr.Message)
	}
}

func TestChatBlockingParsesToolCalls(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(completionsPath, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			// Fail the streaming attempt so the client retries blocking.
			http.Error(w, "streaming unsupported", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"finish_reason": "tool_calls",
				"message": map[string]any{
					"content": "",
					"tool_calls": []map[string]any{{
						"id": "call_9",
						"function": map[string]any{
							"name":      "read_file",
							"arguments": `{"path": "a.txt"}`,
						},
					}},
				},
			}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(srv.URL, "test-model")
	resp, err := client.Chat(context.Background(), nil, nil, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Streamed {
		t.Fatalf("expected non-streamed response")
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected one call, got %d", len(resp.ToolCalls))
	}
	call := resp.ToolCalls[0]
	if call.ID != "call_9" || call.Name != "read_file" {
		t.Fatalf("unexpected call: %#v", call)
	}
	if call.Arguments["path"] != "a.txt" {
		t.Fatalf("arguments not parsed: %#v", call.Arguments)
	}
	if resp.FinishReason != "tool_calls" {
		t.Fatalf("finish reason lost: %q", resp.FinishReason)
	}
}

func TestChatBlockingEmptyArgumentsDefault(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(completionsPath, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			http.Error(w, "no", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"tool_calls": []map[string]any{{
						"function": map[string]any{"name": "tree"},
					}},
				},
			}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(srv.URL, "test-model")
	resp, err := client.Chat(context.Background(), nil, nil, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	call := resp.ToolCalls[0]
	if call.ArgumentsRaw != "{}" {
		t.Fatalf("expected default raw {}, got %q", call.ArgumentsRaw)
	}
	if call.ID == "" {
		t.Fatalf("expected a synthesized id")
	}
}

func TestChatBlockingFreeTextFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(completionsPath, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			http.Error(w, "no", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"content": `<tool name="tree">{"path": "."}</tool>`,
				},
			}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(srv.URL, "test-model")
	resp, err := client.Chat(context.Background(), nil, nil, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "tree" {
		t.Fatalf("fallback extraction failed: %#v", resp.ToolCalls)
	}
}

func TestChatSendsToolsAndHistory(t *testing.T) {
	var got chatRequest
	mux := http.NewServeMux()
	mux.HandleFunc(completionsPath, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			http.Error(w, "no", http.StatusBadRequest)
			return
		}
		got = req
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "hi"}}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(srv.URL, "test-model", WithTemperature(0.7))
	messages := []model.Message{
		{Role: "system", Content: "be helpful"},
		{Role: "user", Content: "hello"},
	}
	tools := []map[string]any{{"type": "function"}}
	if _, err := client.Chat(context.Background(), messages, tools, nil); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if got.Model != "test-model" {
		t.Fatalf("model not sent: %q", got.Model)
	}
	if got.Temperature != 0.7 {
		t.Fatalf("temperature not sent: %v", got.Temperature)
	}
	if len(got.Messages) != 2 || got.Messages[1].Content != "hello" {
		t.Fatalf("history not sent: %#v", got.Messages)
	}
	if got.Tools == nil || got.ToolChoice != "auto" {
		t.Fatalf("tools not wired: %#v tool_choice=%q", got.Tools, got.ToolChoice)
	}
}

func TestChatOmitsToolChoiceWithoutTools(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc(completionsPath, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		fmt.Fprint(w, `data: [DONE]`+"\n")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(srv.URL, "test-model")
	if _, err := client.Chat(context.Background(), nil, nil, nil); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if _, present := body["tools"]; present {
		t.Fatalf("tools should be omitted: %#v", body)
	}
	if _, present := body["tool_choice"]; present {
		t.Fatalf("tool_choice should be omitted: %#v", body)
	}
}

func TestNewTrimsBaseURL(t *testing.T) {
	client := New("  http://localhost:1234/v1/  ", "m")
	if client.baseURL != "http://localhost:1234/v1" {
		t.Fatalf("base URL not normalized: %q", client.baseURL)
	}
	if New("", "m").baseURL != defaultBaseURL {
		t.Fatalf("empty base URL should use default")
	}
}
