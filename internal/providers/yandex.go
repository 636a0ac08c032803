package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultYandexURL = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"

// Yandex implements the Generator interface for the YandexGPT Foundation
// Models completion API.
type Yandex struct {
	apiKey   string
	folderID string
	model    string
	baseURL  string
	client   *http.Client
}

// NewYandex creates a new Yandex provider. Requires YANDEX_API_KEY and
// YANDEX_FOLDER_ID to be set.
func NewYandex(model string) (*Yandex, error) {
	key := os.Getenv("YANDEX_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("YANDEX_API_KEY environment variable is not set")
	}
	folder := os.Getenv("YANDEX_FOLDER_ID")
	if folder == "" {
		return nil, fmt.Errorf("YANDEX_FOLDER_ID environment variable is not set")
	}
	baseURL := os.Getenv("REVLENS_YANDEX_BASE_URL")
	if baseURL == "" {
		baseURL = defaultYandexURL
	}
	if model == "" {
		model = "yandexgpt-lite"
	}
	return &Yandex{
		apiKey:   key,
		folderID: folder,
		model:    model,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (y *Yandex) Name() string { return "yandex" }

// modelURI returns the fully qualified model URI. A model string that already
// carries a scheme (gpt:// or ds://) is passed through unchanged.
func (y *Yandex) modelURI() string {
	if strings.Contains(y.model, "://") {
		return y.model
	}
	return fmt.Sprintf("gpt://%s/%s", y.folderID, y.model)
}

func (y *Yandex) Generate(ctx context.Context, req Request) (Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	body := yandexRequest{
		ModelURI: y.modelURI(),
		CompletionOptions: yandexCompletionOptions{
			Stream:      false,
			Temperature: temperature,
			MaxTokens:   maxTokens,
		},
	}
	if req.SystemPrompt != "" {
		body.Messages = append(body.Messages, yandexMessage{Role: "system", Text: req.SystemPrompt})
	}
	body.Messages = append(body.Messages, yandexMessage{Role: "user", Text: req.UserPrompt})

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshaling request: %w", err)
	}

	var resp Response
	err = retryWithBackoff(ctx, 3, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, "POST", y.baseURL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Api-Key "+y.apiKey)
		httpReq.Header.Set("x-folder-id", y.folderID)

		httpResp, err := y.client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if httpResp.StatusCode == 429 {
			return &rateLimitError{}
		}
		if httpResp.StatusCode == 401 || httpResp.StatusCode == 403 {
			return &authError{message: string(respBody)}
		}
		if httpResp.StatusCode >= 500 {
			return &serverError{statusCode: httpResp.StatusCode, body: string(respBody)}
		}
		if httpResp.StatusCode != 200 {
			return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
		}

		var result yandexResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}

		if len(result.Result.Alternatives) == 0 {
			return fmt.Errorf("no alternatives in response")
		}
		content := result.Result.Alternatives[0].Message.Text
		if content == "" {
			return fmt.Errorf("empty text content in API response")
		}

		resp = Response{
			Content:    content,
			TokensUsed: result.Result.Usage.TotalTokens(),
		}
		return nil
	})

	return resp, err
}

type yandexRequest struct {
	ModelURI          string                  `json:"modelUri"`
	CompletionOptions yandexCompletionOptions `json:"completionOptions"`
	Messages          []yandexMessage         `json:"messages"`
}

type yandexCompletionOptions struct {
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

type yandexMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type yandexResponse struct {
	Result yandexResult `json:"result"`
}

type yandexResult struct {
	Alternatives []yandexAlternative `json:"alternatives"`
	Usage        yandexUsage         `json:"usage"`
}

type yandexAlternative struct {
	Message yandexMessage `json:"message"`
}

// The API reports token counts as JSON strings.
type yandexUsage struct {
	InputTextTokens  string `json:"inputTextTokens"`
	CompletionTokens string `json:"completionTokens"`
	TotalTokensRaw   string `json:"totalTokens"`
}

// TotalTokens parses the string-typed token count, returning 0 when absent.
func (u yandexUsage) TotalTokens() int {
	var n int
	fmt.Sscanf(u.TotalTokensRaw, "%d", &n)
	return n
}
