// Package ingest drives a single leased task through fetch, clean, classify,
// chunk, embed, and persist (§4.5), grounded on original_source's
// daemon/{processor,add_bookmark,runner}.rs staging, adapted from a
// per-stage daemon pipeline into one function driven by internal/queue.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bookmarkhub/bookmarkhub/internal/apperr"
	"github.com/bookmarkhub/bookmarkhub/internal/chunk"
	"github.com/bookmarkhub/bookmarkhub/internal/llmclient"
	"github.com/bookmarkhub/bookmarkhub/internal/model"
	"github.com/bookmarkhub/bookmarkhub/internal/readability"
	"github.com/bookmarkhub/bookmarkhub/internal/store"
)

const (
	fetchTimeout = 30 * time.Second
	maxBodyBytes = 10 << 20 // 10 MB
	maxRedirects = 5
	userAgent    = "Mozilla/5.0 (compatible; BookmarkHub/1.0; +https://bookmarkhub.example/bot)"
)

// Pipeline wires the stages of §4.5 together against one user's task queue.
type Pipeline struct {
	Store       store.Gateway
	Readability *readability.Client
	LLM         *llmclient.Client
	Logger      *zap.Logger

	httpClient *http.Client
}

// New builds a Pipeline with a fetch client enforcing §4.5 stage 2's
// timeout and redirect cap.
func New(s store.Gateway, rc *readability.Client, llm *llmclient.Client, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		Store:       s,
		Readability: rc,
		LLM:         llm,
		Logger:      logger,
		httpClient: &http.Client{
			Timeout: fetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
}

// Run executes all nine stages of §4.5 for task. The returned error, if
// any, wraps apperr.Validation/UpstreamFatal/Internal (routed to FATAL by
// apperr.Classify) or apperr.UpstreamTransient (routed to RETRY).
func (p *Pipeline) Run(ctx context.Context, task model.Task) error {
	// Stage 1: URL validation.
	canonical, err := canonicalizeURL(task.URL)
	if err != nil {
		return fmt.Errorf("validating url: %w", err)
	}

	// Stage 2: fetch.
	rawHTML, err := p.fetch(ctx, canonical.String())
	if err != nil {
		return fmt.Errorf("fetching %s: %w", canonical, err)
	}

	// Stage 3: clean.
	cleaned, err := p.Readability.Process(ctx, rawHTML)
	if err != nil {
		return fmt.Errorf("cleaning %s: %w", canonical, err)
	}

	// Stage 4: bookmark id.
	bookmarkID := makeBookmarkID(canonical)

	// Stages 5 (classify) and 6-7 (chunk, embed) both only depend on the
	// cleaned text, not on each other, so they run concurrently; the first
	// stage to fail cancels the group via its shared context.
	var (
		classification llmclient.Classification
		chunks         []string
		embeddings     [][]float32
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		classification, err = p.LLM.Classify(gctx, cleaned.TextContent)
		if err != nil {
			return fmt.Errorf("classifying %s: %w", canonical, err)
		}
		return nil
	})
	g.Go(func() error {
		chunks = chunk.Split(cleaned.TextContent)
		if len(chunks) == 0 {
			return nil
		}
		var err error
		embeddings, err = p.LLM.Embed(gctx, chunks)
		if err != nil {
			return fmt.Errorf("embedding %s: %w", bookmarkID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	// User tags first so NormalizeTags' first-seen dedup lets them win on
	// conflict with model-proposed tags.
	tags := model.NormalizeTags(append(append([]string{}, task.Tags...), classification.Tags...))

	// Stage 8: persist (upsert bookmark, then replace chunks). Each store
	// call is atomic on its own; the two calls do not share a transaction.
	bookmark := model.Bookmark{
		BookmarkID:  bookmarkID,
		UserID:      task.UserID,
		URL:         canonical.String(),
		Domain:      domainFromURL(canonical),
		Title:       cleaned.Title,
		TextContent: cleaned.TextContent,
		Tags:        tags,
	}
	if classification.Summary != "" {
		bookmark.Summary = &classification.Summary
	}

	if _, err := p.Store.UpsertBookmark(ctx, bookmark); err != nil {
		return fmt.Errorf("persisting bookmark %s: %w", bookmarkID, errors.Join(apperr.Internal, err))
	}

	modelChunks := make([]model.Chunk, len(chunks))
	for i, text := range chunks {
		modelChunks[i] = model.Chunk{
			BookmarkID: bookmarkID,
			UserID:     task.UserID,
			ChunkIndex: i,
			ChunkText:  text,
			Embedding:  embeddings[i],
		}
	}
	if err := p.Store.ReplaceChunks(ctx, task.UserID, bookmarkID, modelChunks); err != nil {
		return fmt.Errorf("replacing chunks for %s: %w", bookmarkID, errors.Join(apperr.Internal, err))
	}

	p.Logger.Info("bookmark ingested",
		zap.String("bookmark_id", bookmarkID),
		zap.String("url", canonical.String()),
		zap.Int("chunk_count", len(chunks)),
		zap.Strings("tags", tags),
	)

	// Stage 9 (Ack DONE) happens in internal/queue once Run returns nil.
	return nil
}

func (p *Pipeline) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building fetch request: %w", errors.Join(apperr.Validation, err))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.UpstreamTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("non-2xx status %d: %w", resp.StatusCode, apperr.UpstreamTransient)
	}

	limited := io.LimitReader(resp.Body, maxBodyBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", errors.Join(apperr.UpstreamTransient, err))
	}
	if len(body) > maxBodyBytes {
		return "", fmt.Errorf("response body exceeds %d bytes: %w", maxBodyBytes, apperr.UpstreamFatal)
	}

	return string(body), nil
}
