package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New("unknown", "model")
	if err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestNew_LMStudioAlias(t *testing.T) {
	// "lmstudio" maps to the Ollama transport, which needs no API key
	g, err := New("lmstudio", "qwen2.5-coder")
	if err != nil {
		t.Fatalf("New(lmstudio) error: %v", err)
	}
	if g.Name() != "ollama" {
		t.Errorf("Name() = %q, want %q", g.Name(), "ollama")
	}
}

func TestAnthropic_Name(t *testing.T) {
	a := &Anthropic{model: "test"}
	if a.Name() != "anthropic" {
		t.Errorf("Name() = %q, want %q", a.Name(), "anthropic")
	}
}

func TestOpenAI_Name(t *testing.T) {
	o := &OpenAI{model: "test"}
	if o.Name() != "openai" {
		t.Errorf("Name() = %q, want %q", o.Name(), "openai")
	}
}

func TestYandex_Name(t *testing.T) {
	y := &Yandex{model: "test"}
	if y.Name() != "yandex" {
		t.Errorf("Name() = %q, want %q", y.Name(), "yandex")
	}
}

func TestAnthropic_ServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(500)
			w.Write([]byte(`{"error":"internal server error"}`))
			return
		}
		resp := anthropicResponse{
			Content: []anthropicBlock{{Type: "text", Text: "[]"}},
			Usage:   anthropicUsage{InputTokens: 10, OutputTokens: 5},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	a := &Anthropic{
		apiKey: "test-key",
		model:  "claude-sonnet-4-20250514",
		client: &http.Client{
			Transport: &rewriteTransport{
				base:    server.Client().Transport,
				baseURL: server.URL,
			},
		},
	}

	resp, err := a.Generate(context.Background(), Request{
		SystemPrompt: "test",
		UserPrompt:   "test",
	})
	if err != nil {
		t.Fatalf("Generate should succeed after retries: %v", err)
	}
	if resp.Content != "[]" {
		t.Errorf("Content = %q, want %q", resp.Content, "[]")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts (2 retries on 5xx), got %d", attempts)
	}
}

func TestAnthropic_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := anthropicResponse{
			Content: []anthropicBlock{}, // no text blocks
			Usage:   anthropicUsage{InputTokens: 10, OutputTokens: 0},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	a := &Anthropic{
		apiKey: "test-key",
		model:  "claude-sonnet-4-20250514",
		client: &http.Client{
			Transport: &rewriteTransport{
				base:    server.Client().Transport,
				baseURL: server.URL,
			},
		},
	}

	_, err := a.Generate(context.Background(), Request{
		SystemPrompt: "test",
		UserPrompt:   "test",
	})
	if err == nil {
		t.Error("Expected error for empty content")
	}
}

func TestOpenAI_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openaiResponse{
			Choices: []openaiChoice{
				{Message: openaiMessage{Role: "assistant", Content: ""}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	o := &OpenAI{
		apiKey:  "test-key",
		model:   "gpt-4o",
		baseURL: server.URL,
		client:  server.Client(),
	}

	_, err := o.Generate(context.Background(), Request{
		SystemPrompt: "test",
		UserPrompt:   "test",
	})
	if err == nil {
		t.Error("Expected error for empty content")
	}
}

func TestOpenAI_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openaiResponse{Choices: []openaiChoice{}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	o := &OpenAI{
		apiKey:  "test-key",
		model:   "gpt-4o",
		baseURL: server.URL,
		client:  server.Client(),
	}

	_, err := o.Generate(context.Background(), Request{
		SystemPrompt: "test",
		UserPrompt:   "test",
	})
	if err == nil {
		t.Error("Expected error for no choices")
	}
}

func TestOpenAI_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer server.Close()

	o := &OpenAI{
		apiKey:  "bad-key",
		model:   "gpt-4o",
		baseURL: server.URL,
		client:  server.Client(),
	}

	_, err := o.Generate(context.Background(), Request{
		SystemPrompt: "test",
		UserPrompt:   "test",
	})
	if err == nil {
		t.Fatal("Expected auth error")
	}
	if !IsAuthError(err) {
		t.Errorf("Expected auth error, got: %v", err)
	}
}

func TestOpenAI_ServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 1 {
			w.WriteHeader(503)
			w.Write([]byte(`{"error":"service unavailable"}`))
			return
		}
		resp := openaiResponse{
			Choices: []openaiChoice{
				{Message: openaiMessage{Role: "assistant", Content: "[]"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	o := &OpenAI{
		apiKey:  "test-key",
		model:   "gpt-4o",
		baseURL: server.URL,
		client:  server.Client(),
	}

	resp, err := o.Generate(context.Background(), Request{
		SystemPrompt: "test",
		UserPrompt:   "test",
	})
	if err != nil {
		t.Fatalf("Generate should succeed after retry: %v", err)
	}
	if resp.Content != "[]" {
		t.Errorf("Content = %q, want %q", resp.Content, "[]")
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestYandex_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(403)
		w.Write([]byte(`{"error":"forbidden"}`))
	}))
	defer server.Close()

	y := &Yandex{
		apiKey:   "bad-key",
		folderID: "b1gfolder",
		model:    "yandexgpt-lite",
		baseURL:  server.URL,
		client:   server.Client(),
	}

	_, err := y.Generate(context.Background(), Request{
		SystemPrompt: "test",
		UserPrompt:   "test",
	})
	if err == nil {
		t.Fatal("Expected auth error")
	}
	if !IsAuthError(err) {
		t.Errorf("Expected auth error, got: %v", err)
	}
}

func TestYandex_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Api-Key test-key" {
			t.Errorf("Authorization = %q, want Api-Key auth", got)
		}
		if got := r.Header.Get("x-folder-id"); got != "b1gfolder" {
			t.Errorf("x-folder-id = %q", got)
		}
		var body yandexRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.ModelURI != "gpt://b1gfolder/yandexgpt-lite" {
			t.Errorf("modelUri = %q", body.ModelURI)
		}
		resp := yandexResponse{
			Result: yandexResult{
				Alternatives: []yandexAlternative{
					{Message: yandexMessage{Role: "assistant", Text: "[]"}},
				},
				Usage: yandexUsage{TotalTokensRaw: "42"},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	y := &Yandex{
		apiKey:   "test-key",
		folderID: "b1gfolder",
		model:    "yandexgpt-lite",
		baseURL:  server.URL,
		client:   server.Client(),
	}

	resp, err := y.Generate(context.Background(), Request{
		SystemPrompt: "test",
		UserPrompt:   "test",
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Content != "[]" {
		t.Errorf("Content = %q, want %q", resp.Content, "[]")
	}
	if resp.TokensUsed != 42 {
		t.Errorf("TokensUsed = %d, want 42", resp.TokensUsed)
	}
}

func TestYandex_NoAlternatives(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := yandexResponse{Result: yandexResult{Alternatives: []yandexAlternative{}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	y := &Yandex{
		apiKey:   "test-key",
		folderID: "b1gfolder",
		model:    "yandexgpt-lite",
		baseURL:  server.URL,
		client:   server.Client(),
	}

	_, err := y.Generate(context.Background(), Request{
		SystemPrompt: "test",
		UserPrompt:   "test",
	})
	if err == nil {
		t.Error("Expected error for no alternatives")
	}
}

func TestAnthropic_DefaultMaxTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body anthropicRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.MaxTokens != 4096 {
			t.Errorf("Default MaxTokens = %d, want 4096", body.MaxTokens)
		}
		resp := anthropicResponse{
			Content: []anthropicBlock{{Type: "text", Text: "[]"}},
			Usage:   anthropicUsage{InputTokens: 10, OutputTokens: 5},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	a := &Anthropic{
		apiKey: "test-key",
		model:  "claude-sonnet-4-20250514",
		client: &http.Client{
			Transport: &rewriteTransport{
				base:    server.Client().Transport,
				baseURL: server.URL,
			},
		},
	}

	_, err := a.Generate(context.Background(), Request{
		SystemPrompt: "test",
		UserPrompt:   "test",
		MaxTokens:    0, // should default to 4096
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
}

func TestIsAuthError(t *testing.T) {
	if IsAuthError(nil) {
		t.Error("nil should not be auth error")
	}
	if IsAuthError(&rateLimitError{}) {
		t.Error("rateLimitError should not be auth error")
	}
	if !IsAuthError(&authError{message: "test"}) {
		t.Error("authError should be auth error")
	}
}

func TestIsRetryable(t *testing.T) {
	if isRetryable(&authError{message: "test"}) {
		t.Error("authError should not be retryable")
	}
	if !isRetryable(&rateLimitError{}) {
		t.Error("rateLimitError should be retryable")
	}
	if !isRetryable(&serverError{statusCode: 500}) {
		t.Error("serverError should be retryable")
	}
	if isRetryable(context.Canceled) {
		t.Error("context.Canceled should not be retryable")
	}
}

func TestErrorMessages(t *testing.T) {
	rl := &rateLimitError{}
	if rl.Error() != "rate limited" {
		t.Errorf("rateLimitError.Error() = %q", rl.Error())
	}

	se := &serverError{statusCode: 500, body: "oops"}
	if se.Error() != "server error: oops" {
		t.Errorf("serverError.Error() = %q", se.Error())
	}

	ae := &authError{message: "bad key"}
	if ae.Error() != "authentication error: bad key" {
		t.Errorf("authError.Error() = %q", ae.Error())
	}
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := retryWithBackoff(ctx, 3, func() error {
		return &rateLimitError{}
	})
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}

func TestRetryWithBackoff_NonRetryable(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(context.Background(), 3, func() error {
		attempts++
		return &authError{message: "bad"}
	})
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for auth error, got %d", attempts)
	}
	if !IsAuthError(err) {
		t.Errorf("Expected auth error, got: %v", err)
	}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	err := retryWithBackoff(context.Background(), 3, func() error {
		return nil
	})
	if err != nil {
		t.Errorf("Expected nil error, got: %v", err)
	}
}
