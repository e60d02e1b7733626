package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sheetpilot/sheetpilot/internal/config"
	perrors "github.com/sheetpilot/sheetpilot/internal/errors"
)

// Embedder converts texts to vectors. Implementations are interchangeable;
// the store only needs consistent dimensions within one collection.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIEmbedder embeds through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
}

// NewOpenAIEmbedder builds an embedder for the given API key.
func NewOpenAIEmbedder(apiKey string) *OpenAIEmbedder {
	return &OpenAIEmbedder{client: openai.NewClient(apiKey)}
}

func (e *OpenAIEmbedder) Name() string { return "openai" }

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.SmallEmbedding3,
	})
	if err != nil {
		return nil, perrors.NewProvider("openai", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, perrors.NewProvider("openai", fmt.Errorf("got %d embeddings for %d texts", len(resp.Data), len(texts)))
	}
	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// HTTPEmbedder calls a local embeddings service speaking the batch_embed
// contract: POST {"texts": [...]} returns {"vectors": [[...], ...]}.
type HTTPEmbedder struct {
	baseURL string
	client  *http.Client
}

// NewHTTPEmbedder builds an embedder against the given base URL.
func NewHTTPEmbedder(baseURL string) *HTTPEmbedder {
	return &HTTPEmbedder{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *HTTPEmbedder) Name() string { return "local" }

type batchEmbedRequest struct {
	Texts []string `json:"texts"`
}

type batchEmbedResponse struct {
	Vectors [][]float32 `json:"vectors"`
}

func (e *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(batchEmbedRequest{Texts: texts})
	if err != nil {
		return nil, perrors.NewInternal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/batch_embed", bytes.NewReader(body))
	if err != nil {
		return nil, perrors.NewInternal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, perrors.NewProvider("local", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, perrors.NewProvider("local", fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	}

	var out batchEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, perrors.NewProvider("local", err)
	}
	if len(out.Vectors) != len(texts) {
		return nil, perrors.NewProvider("local", fmt.Errorf("got %d vectors for %d texts", len(out.Vectors), len(texts)))
	}
	return out.Vectors, nil
}

// SelectEmbedder picks the first configured provider: OpenAI if an API key
// is present, then the local HTTP service. Absence of both is a hard error;
// retrieval cannot degrade silently to garbage vectors.
func SelectEmbedder(cfg *config.Config) (Embedder, error) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		slog.Info("using openai embeddings")
		return NewOpenAIEmbedder(key), nil
	}
	if cfg != nil && cfg.EmbeddingsURL != "" {
		slog.Info("using local embeddings service", "url", cfg.EmbeddingsURL)
		return NewHTTPEmbedder(cfg.EmbeddingsURL), nil
	}
	return nil, perrors.NewNoEmbeddings()
}
