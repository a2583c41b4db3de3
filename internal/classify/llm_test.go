package classify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/fencerun/internal/cache"
	"github.com/hyperifyio/fencerun/internal/llm"
)

type stubClient struct {
	answer string
	err    error
	calls  int
	last   openai.ChatCompletionRequest
}

func (s *stubClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: s.answer}}}}, nil
}

func TestLLM_CleansAnswer(t *testing.T) {
	client := &stubClient{answer: " `Python`.\n"}
	c := &LLM{Client: client, Model: "m", Labels: []string{"python", "sh"}}
	got, err := c.Classify(context.Background(), "print(1)")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got != "python" {
		t.Fatalf("label = %q, want python", got)
	}
	if client.last.Temperature != 0 {
		t.Fatalf("temperature = %v, want 0", client.last.Temperature)
	}
	if !strings.Contains(client.last.Messages[1].Content, "python, sh") {
		t.Fatalf("prompt must list allowed labels: %q", client.last.Messages[1].Content)
	}
}

func TestLLM_UsesCache(t *testing.T) {
	client := &stubClient{answer: "sh"}
	c := &LLM{Client: client, Model: "m", Labels: []string{"python", "sh"}, Cache: &cache.Store{Dir: t.TempDir()}}
	for i := 0; i < 3; i++ {
		got, err := c.Classify(context.Background(), "ls -la")
		if err != nil || got != "sh" {
			t.Fatalf("classify #%d = %q, %v", i, got, err)
		}
	}
	if client.calls != 1 {
		t.Fatalf("expected a single model call, got %d", client.calls)
	}
}

func TestLLM_ClipsLongSnippets(t *testing.T) {
	client := &stubClient{answer: "sh"}
	c := &LLM{Client: client, Model: "m", Labels: []string{"sh"}, MaxSnippetTokens: 3}
	if _, err := c.Classify(context.Background(), "echo one\necho two\necho three"); err != nil {
		t.Fatalf("classify: %v", err)
	}
	prompt := client.last.Messages[1].Content
	if !strings.HasSuffix(prompt, "Snippet:\necho one") {
		t.Fatalf("snippet should be clipped at a line break: %q", prompt)
	}
}

func TestLLM_Errors(t *testing.T) {
	if _, err := (&LLM{}).Classify(context.Background(), "x"); err == nil {
		t.Fatal("expected error for unconfigured classifier")
	}
	cause := errors.New("boom")
	c := &LLM{Client: &stubClient{err: cause}, Model: "m"}
	if _, err := c.Classify(context.Background(), "x"); !errors.Is(err, cause) {
		t.Fatalf("err = %v, want wrapped cause", err)
	}
}

func TestLLM_OpenAICompatibleEndpoint(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&hits, 1)
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		answer := "python"
		if strings.Contains(req.Messages[len(req.Messages)-1].Content, "echo") {
			answer = "sh"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"model":   req.Model,
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": answer}, "finish_reason": "stop"}},
		})
	}))
	defer srv.Close()

	c := &LLM{Client: llm.NewOpenAI(srv.URL+"/v1", "test"), Model: "tiny", Labels: []string{"python", "sh"}}
	got, err := c.Classify(context.Background(), "echo hi")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got != "sh" {
		t.Fatalf("label = %q, want sh", got)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected one request, got %d", hits)
	}
}
