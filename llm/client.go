// llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"daily-guess-system/game"
)

// Client talks to an OpenAI-compatible API: chat completions in JSON mode
// for the two judge calls, and the embeddings endpoint for vectors. It is
// passed explicitly into the services that need it — no package-level
// singleton, so tests can substitute their own implementation.
type Client struct {
	BaseURL        string
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	HTTPClient     *http.Client
}

// NewClientFromEnv builds a client from OPENAI_API_KEY, QUIZ_MODEL and
// EMBEDDING_MODEL (all required) plus optional OPENAI_BASE_URL.
func NewClientFromEnv() *Client {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("❌ OPENAI_API_KEY environment variable not set")
	}
	chatModel := os.Getenv("QUIZ_MODEL")
	if chatModel == "" {
		log.Fatal("❌ QUIZ_MODEL environment variable not set")
	}
	embeddingModel := os.Getenv("EMBEDDING_MODEL")
	if embeddingModel == "" {
		log.Fatal("❌ EMBEDDING_MODEL environment variable not set")
	}

	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	return &Client{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		APIKey:         apiKey,
		ChatModel:      chatModel,
		EmbeddingModel: embeddingModel,
		HTTPClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// CompleteJSON runs one judge call in JSON-object mode and returns the raw
// message content. Callers decode into their own shape; a decode failure
// there is ErrMalformedJudgeResponse, a transport or status failure here is
// ErrUpstreamUnavailable.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error) {
	reqBody := chatRequest{
		Model: c.ChatModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	reqBody.ResponseFormat.Type = "json_object"

	body, err := c.post(ctx, "/v1/chat/completions", reqBody)
	if err != nil {
		return nil, err
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		log.Printf("⚠️ [LLM] unusable completion payload: %s", truncate(string(body), 300))
		return nil, fmt.Errorf("%w: %v", game.ErrMalformedJudgeResponse, err)
	}
	if len(out.Choices) == 0 {
		log.Printf("⚠️ [LLM] completion with no choices: %s", truncate(string(body), 300))
		return nil, fmt.Errorf("%w: empty choices", game.ErrMalformedJudgeResponse)
	}

	return []byte(out.Choices[0].Message.Content), nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for one text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds several texts in one request. Newlines are flattened
// first; they degrade embedding quality on some models.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	input := make([]string, len(texts))
	for i, t := range texts {
		input[i] = strings.ReplaceAll(t, "\n", " ")
	}

	body, err := c.post(ctx, "/v1/embeddings", embeddingRequest{
		Model: c.EmbeddingModel,
		Input: input,
	})
	if err != nil {
		return nil, err
	}

	var out embeddingResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding embeddings: %v", game.ErrUpstreamUnavailable, err)
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
			game.ErrUpstreamUnavailable, len(texts), len(out.Data))
	}

	vectors := make([][]float64, len(out.Data))
	for i, d := range out.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", game.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		log.Printf("❌ [LLM] %s returned %d: %s", path, resp.StatusCode, truncate(string(body), 300))
		return nil, fmt.Errorf("%w: %s returned %d", game.ErrUpstreamUnavailable, path, resp.StatusCode)
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
