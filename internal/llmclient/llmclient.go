// Package llmclient wraps the Ollama chat and embedding APIs used by the
// ingestion pipeline (classify/summarize) and the RAG composer, grounded on
// papercomputeco-tapes/pkg/embeddings/ollama/ollama.go (HTTP shape, timeouts)
// and pkg/llm/provider/ollama/ollama.go (request/response field naming).
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bookmarkhub/bookmarkhub/internal/apperr"
)

const (
	classifyTimeout = 120 * time.Second
	embedTimeout    = 60 * time.Second

	// EmbeddingDim is the fixed vector width bookmark hub persists (§4.4,
	// §4.6); an embedding model returning a different width is a fatal
	// configuration error, not a retryable one.
	EmbeddingDim = 768

	maxTags = 8
)

// Client wraps one Ollama instance for both chat completion and embedding.
type Client struct {
	baseURL        string
	textModel      string
	embeddingModel string

	chatHTTP  *http.Client
	embedHTTP *http.Client
}

// New builds a Client. baseURL is e.g. "http://localhost:11434".
func New(baseURL, textModel, embeddingModel string) *Client {
	return &Client{
		baseURL:        baseURL,
		textModel:      textModel,
		embeddingModel: embeddingModel,
		chatHTTP:       &http.Client{Timeout: classifyTimeout},
		embedHTTP:      &http.Client{Timeout: embedTimeout},
	}
}

// Classification is the structured result of tagging+summarizing a
// bookmark's extracted text (§4.4 stage 5).
type Classification struct {
	Tags    []string `json:"tags"`
	Summary string   `json:"summary"`
}

const classifySystemPrompt = `You are a bookmark tagging assistant. Given the text content of a saved
web page, respond with a strict JSON object of the form
{"tags": ["kebab-case-tag", ...], "summary": "one to three sentence summary"}.
Return at most 8 tags, each lowercase and kebab-case. Return nothing but the
JSON object.`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Classify asks the text model for tags and a summary of text, enforcing
// the §4.4 JSON schema and tag cap. A malformed completion is fatal (the
// model didn't follow the contract, and retrying the exact same prompt is
// unlikely to help within one ingestion attempt), while connection/5xx
// failures are transient.
func (c *Client) Classify(ctx context.Context, text string) (Classification, error) {
	reqBody := chatRequest{
		Model: c.textModel,
		Messages: []chatMessage{
			{Role: "system", Content: classifySystemPrompt},
			{Role: "user", Content: text},
		},
		Format: "json",
	}

	var resp chatResponse
	if err := c.doJSON(ctx, c.chatHTTP, "/api/chat", reqBody, &resp); err != nil {
		return Classification{}, err
	}

	var result Classification
	if err := json.Unmarshal([]byte(resp.Message.Content), &result); err != nil {
		return Classification{}, fmt.Errorf("completion is not valid classification JSON: %w", errors.Join(apperr.UpstreamFatal, err))
	}

	if len(result.Tags) > maxTags {
		result.Tags = result.Tags[:maxTags]
	}
	for i, t := range result.Tags {
		result.Tags[i] = strings.ToLower(strings.TrimSpace(t))
	}

	return result, nil
}

// Complete asks the text model to answer prompt as free-form text, with no
// JSON schema enforced and no automatic retry on a fatal completion (used
// by the RAG composer, §4.7, which only ever makes one attempt per
// question).
func (c *Client) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: c.textModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}

	var resp chatResponse
	if err := c.doJSON(ctx, c.chatHTTP, "/api/chat", reqBody, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed generates one embedding per text in texts, in one batched call.
// Returns an error wrapping apperr.UpstreamFatal if the model returns a vector width other than
// EmbeddingDim: a dimension mismatch means the deployment is misconfigured,
// not that the request should be retried.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := embedRequest{Model: c.embeddingModel, Input: texts}

	var resp embedResponse
	if err := c.doJSON(ctx, c.embedHTTP, "/api/embed", reqBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("requested %d embeddings, got %d: %w", len(texts), len(resp.Embeddings), apperr.UpstreamFatal)
	}
	for _, e := range resp.Embeddings {
		if len(e) != EmbeddingDim {
			return nil, fmt.Errorf("embedding model %q returned dimension %d, want %d: %w", c.embeddingModel, len(e), EmbeddingDim, apperr.UpstreamFatal)
		}
	}

	return resp.Embeddings, nil
}

func (c *Client) doJSON(ctx context.Context, httpClient *http.Client, path string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", errors.Join(apperr.UpstreamFatal, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", errors.Join(apperr.UpstreamFatal, err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling llm: %w", errors.Join(apperr.UpstreamTransient, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("llm returned %d: %w: %s", resp.StatusCode, apperr.UpstreamTransient, string(body))
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("llm returned %d: %w: %s", resp.StatusCode, apperr.UpstreamFatal, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decoding response: %w", errors.Join(apperr.UpstreamFatal, err))
	}
	return nil
}
