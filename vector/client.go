// vector/client.go
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"daily-guess-system/game"
	"daily-guess-system/utils"
)

// Client is a thin REST client for Qdrant. Like the LLM client it is handed
// to services explicitly instead of living in a package-level global.
type Client struct {
	BaseURL       string
	APIKey        string
	EmbeddingSize int
	HTTPClient    *http.Client
}

// NewClientFromEnv builds a client from QDRANT_URL and EMBEDDING_SIZE
// (required) plus optional QDRANT_API_KEY.
func NewClientFromEnv() *Client {
	baseURL := os.Getenv("QDRANT_URL")
	if baseURL == "" {
		log.Fatal("❌ QDRANT_URL environment variable not set")
	}
	sizeStr := os.Getenv("EMBEDDING_SIZE")
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size <= 0 {
		log.Fatal("❌ EMBEDDING_SIZE environment variable not set or invalid")
	}

	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		APIKey:        os.Getenv("QDRANT_API_KEY"),
		EmbeddingSize: size,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Point is one vector plus its payload, keyed by a UUID.
type Point struct {
	ID      string                 `json:"id"`
	Vector  []float64              `json:"vector"`
	Payload map[string]interface{} `json:"payload"`
}

// ScoredPoint is one search hit.
type ScoredPoint struct {
	ID      string                 `json:"id"`
	Score   float64                `json:"score"`
	Payload map[string]interface{} `json:"payload"`
}

// Text returns the fragment text carried in the point payload.
func (p ScoredPoint) Text() string {
	if t, ok := p.Payload["text"].(string); ok {
		return t
	}
	return ""
}

// EnsureCollection creates the named collection (cosine distance) and a
// keyword payload index on the scope field if they do not exist yet.
// Safe to call on every startup.
func (c *Client) EnsureCollection(ctx context.Context, name, scopeField string) error {
	exists, err := c.collectionExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		body := map[string]interface{}{
			"vectors": map[string]interface{}{
				"size":     c.EmbeddingSize,
				"distance": "Cosine",
			},
		}
		if _, err := c.do(ctx, "PUT", "/collections/"+name, body); err != nil {
			return fmt.Errorf("creating collection %s: %w", name, err)
		}
		log.Printf("✅ [VECTOR] Created collection %s", name)
	}

	// Index creation is idempotent on Qdrant's side.
	indexBody := map[string]interface{}{
		"field_name":   scopeField,
		"field_schema": "keyword",
	}
	if _, err := c.do(ctx, "PUT", "/collections/"+name+"/index", indexBody); err != nil {
		return fmt.Errorf("creating payload index on %s.%s: %w", name, scopeField, err)
	}

	return nil
}

// Search runs a filtered nearest-neighbor query, returning up to limit hits
// whose payload scope field equals scopeValue. The filter is applied by the
// index itself, so fragments of other targets can never leak into results.
func (c *Client) Search(ctx context.Context, collection string, queryVector []float64, scopeField, scopeValue string, limit int) ([]ScoredPoint, error) {
	body := map[string]interface{}{
		"query":        queryVector,
		"limit":        limit,
		"with_payload": true,
		"filter": map[string]interface{}{
			"must": []map[string]interface{}{
				{
					"key":   scopeField,
					"match": map[string]interface{}{"value": scopeValue},
				},
			},
		},
	}

	raw, err := c.do(ctx, "POST", "/collections/"+collection+"/points/query", body)
	if err != nil {
		return nil, err
	}

	var out struct {
		Result struct {
			Points []ScoredPoint `json:"points"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding search result: %v", game.ErrUpstreamUnavailable, err)
	}

	return out.Result.Points, nil
}

// UpsertPoints writes points into the collection, replacing existing ids.
func (c *Client) UpsertPoints(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	body := map[string]interface{}{"points": points}
	_, err := c.do(ctx, "PUT", "/collections/"+collection+"/points?wait=true", body)
	return err
}

// CreateSnapshot asks Qdrant to snapshot the collection and returns the
// snapshot name for download.
func (c *Client) CreateSnapshot(ctx context.Context, collection string) (string, error) {
	raw, err := c.do(ctx, "POST", "/collections/"+collection+"/snapshots", nil)
	if err != nil {
		return "", err
	}

	var out struct {
		Result struct {
			Name string `json:"name"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.Result.Name == "" {
		return "", fmt.Errorf("%w: snapshot response unusable", game.ErrUpstreamUnavailable)
	}
	return out.Result.Name, nil
}

// DownloadSnapshot fetches the snapshot archive bytes. Snapshot archives can
// be large, so this uses the shared long-timeout client instead of the
// request client.
func (c *Client) DownloadSnapshot(ctx context.Context, collection, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET",
		c.BaseURL+"/collections/"+collection+"/snapshots/"+name, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := utils.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", game.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: snapshot download returned %d", game.ErrUpstreamUnavailable, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (c *Client) collectionExists(ctx context.Context, name string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/collections/"+name, nil)
	if err != nil {
		return false, err
	}
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", game.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: collection check returned %d", game.ErrUpstreamUnavailable, resp.StatusCode)
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", game.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("❌ [VECTOR] %s %s returned %d: %s", method, path, resp.StatusCode, string(body))
		return nil, fmt.Errorf("%w: %s %s returned %d", game.ErrUpstreamUnavailable, method, path, resp.StatusCode)
	}

	return body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("api-key", c.APIKey)
	}
}
