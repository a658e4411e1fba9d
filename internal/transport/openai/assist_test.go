package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/usecase/assist"
)

// chatCompletionResponse mirrors the OpenAI-compatible chat response.
type chatCompletionResponse struct {
	Object  string       `json:"object"`
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// capturedChatRequest holds the fields of the last request the fake server saw.
type capturedChatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func newChatServer(t *testing.T, reply string, lastReq *capturedChatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if lastReq != nil {
			if err := json.NewDecoder(r.Body).Decode(lastReq); err != nil {
				t.Errorf("decode chat request: %v", err)
			}
		}

		resp := chatCompletionResponse{Object: "chat.completion"}
		resp.Choices = []chatChoice{{
			Message:      chatMessage{Role: "assistant", Content: reply},
			FinishReason: "stop",
		}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestAssist(baseURL string) *Assist {
	return NewAssist(&AssistConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})
}

func TestAssist_ClassifyComplexity(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    bool
		wantErr bool
	}{
		{"simple", "simple", false, false},
		{"complex", "complex", true, false},
		// Регистр и пунктуация в ответе модели не должны мешать.
		{"uppercase with period", "Complex.", true, false},
		{"padded", "  simple\n", false, false},
		{"garbage", "maybe", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newChatServer(t, tt.reply, nil)
			defer server.Close()

			got, err := newTestAssist(server.URL).ClassifyComplexity(context.Background(), "red wine")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ClassifyComplexity failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestAssist_ExtractFilters(t *testing.T) {
	reply := `{"category": "Wine", "type": null, "price_min": null, "price_max": 20, "soft_categories": ["Red"]}`
	var req capturedChatRequest
	server := newChatServer(t, reply, &req)
	defer server.Close()

	set, err := newTestAssist(server.URL).ExtractFilters(context.Background(), "red wine under 20")
	if err != nil {
		t.Fatalf("ExtractFilters failed: %v", err)
	}

	if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
		t.Error("expected json_object response format")
	}

	conds := set.Must()
	if len(conds) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(conds))
	}
	// Условия отсортированы по ключу: category < price.
	if conds[0].Key() != "category" || conds[0].Match() != "wine" {
		t.Errorf("unexpected first condition: %s=%s", conds[0].Key(), conds[0].Match())
	}
	if conds[1].Key() != "price" || !conds[1].IsRange() {
		t.Fatalf("expected price range condition, got %s", conds[1].Key())
	}
	r := conds[1].Range()
	if r.GTE() != nil {
		t.Errorf("expected no lower bound, got %v", *r.GTE())
	}
	if r.LTE() == nil || *r.LTE() != 20 {
		t.Errorf("expected upper bound 20, got %v", r.LTE())
	}

	soft := set.Soft()
	if len(soft) != 1 || soft[0] != "red" {
		t.Errorf("unexpected soft hints: %v", soft)
	}
}

func TestAssist_ExtractFilters_NothingStated(t *testing.T) {
	reply := `{"category": null, "type": null, "price_min": null, "price_max": null, "soft_categories": []}`
	server := newChatServer(t, reply, nil)
	defer server.Close()

	set, err := newTestAssist(server.URL).ExtractFilters(context.Background(), "something nice")
	if err != nil {
		t.Fatalf("ExtractFilters failed: %v", err)
	}
	if !set.IsEmpty() {
		t.Errorf("expected empty filter set, got %+v", set)
	}
}

func TestAssist_ExtractFilters_MalformedPayload(t *testing.T) {
	server := newChatServer(t, "sorry, I cannot do that", nil)
	defer server.Close()

	_, err := newTestAssist(server.URL).ExtractFilters(context.Background(), "red wine")
	if err == nil {
		t.Fatal("expected error for non-JSON reply")
	}
}

func TestAssist_Rerank(t *testing.T) {
	reply := `{"ids": ["p02", "p01"]}`
	var req capturedChatRequest
	server := newChatServer(t, reply, &req)
	defer server.Close()

	candidates := []assist.Candidate{
		{ID: "p01", Name: "Rioja Reserva", Category: "wine", Price: 18.5},
		{ID: "p02", Name: "Malbec Gran Seleccion", Category: "wine", Price: 22},
	}

	ids, err := newTestAssist(server.URL).Rerank(context.Background(), "smooth red for dinner", candidates)
	if err != nil {
		t.Fatalf("Rerank failed: %v", err)
	}

	if len(ids) != 2 || ids[0] != "p02" || ids[1] != "p01" {
		t.Errorf("unexpected order: %v", ids)
	}

	if len(req.Messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(req.Messages))
	}
	user := req.Messages[1].Content
	if !strings.Contains(user, "Query: smooth red for dinner") {
		t.Errorf("user message missing query: %q", user)
	}
	if !strings.Contains(user, "1. p01 | Rioja Reserva | wine | 18.50") {
		t.Errorf("user message missing candidate line: %q", user)
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
		t.Error("expected json_object response format")
	}
}

func TestAssist_Rerank_NoCandidates(t *testing.T) {
	// Без кандидатов запрос к API не делается вообще.
	a := newTestAssist("http://unused")

	ids, err := a.Rerank(context.Background(), "anything", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids != nil {
		t.Errorf("expected nil ids, got %v", ids)
	}
}

func TestAssist_Rerank_EmptyIDs(t *testing.T) {
	server := newChatServer(t, `{"ids": []}`, nil)
	defer server.Close()

	candidates := []assist.Candidate{{ID: "p01", Name: "Rioja", Category: "wine", Price: 10}}

	_, err := newTestAssist(server.URL).Rerank(context.Background(), "red", candidates)
	if err == nil {
		t.Fatal("expected error for empty id list")
	}
}

func TestAssist_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "model overloaded",
				"type":    "server_error",
			},
		})
	}))
	defer server.Close()

	_, err := newTestAssist(server.URL).ClassifyComplexity(context.Background(), "red wine")
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("expected status code in error, got %v", err)
	}
}

func TestAssist_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletionResponse{Object: "chat.completion"})
	}))
	defer server.Close()

	_, err := newTestAssist(server.URL).ClassifyComplexity(context.Background(), "red wine")
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}
