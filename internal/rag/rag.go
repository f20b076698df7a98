// Package rag implements the retrieval-augmented question composer (§4.7),
// grounded on original_source/public-api/src/rag.rs's session lifecycle
// (create session → retrieve → compose → persist answer) adapted into a
// single synchronous call instead of a background job, and on
// papercomputeco-tapes/pkg/llm/provider/ollama/ollama.go's chat-completion
// request shape.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bookmarkhub/bookmarkhub/internal/llmclient"
	"github.com/bookmarkhub/bookmarkhub/internal/model"
	"github.com/bookmarkhub/bookmarkhub/internal/store"
)

const (
	// topK is the number of nearest chunks retrieved per question (§4.7).
	topK = 8
	// similarityThreshold drops retrieved chunks below this cosine
	// similarity; if every candidate is dropped the session answers with
	// insufficientContextAnswer instead of calling the LLM.
	similarityThreshold = 0.25
)

// insufficientContextAnswer is returned verbatim when no retrieved chunk
// clears similarityThreshold.
const insufficientContextAnswer = "insufficient context to answer this question"

const systemInstruction = `You are the retrieval assistant for a personal bookmark library.
Answer the user's question using only the excerpts provided below, each labeled with its source bookmark's title and URL.
If the excerpts do not contain enough information to answer, say so plainly instead of guessing.
Cite the bookmark title when you draw on a specific excerpt.`

// Composer answers questions by grounding an LLM call in a user's bookmark
// chunks.
type Composer struct {
	Store  store.Gateway
	LLM    *llmclient.Client
	Logger *zap.Logger
}

// New builds a Composer.
func New(s store.Gateway, llm *llmclient.Client, logger *zap.Logger) *Composer {
	return &Composer{Store: s, LLM: llm, Logger: logger}
}

// Ask runs the full §4.7 pipeline: create the session, embed the question,
// retrieve and threshold the nearest chunks, compose a single LLM call (no
// auto-retry), and persist the answer and the chunk ids that grounded it.
func (c *Composer) Ask(ctx context.Context, userID uuid.UUID, question string) (model.RagSession, error) {
	session, err := c.Store.CreateRagSession(ctx, userID, question)
	if err != nil {
		return model.RagSession{}, fmt.Errorf("creating rag session: %w", err)
	}

	embeddings, err := c.LLM.Embed(ctx, []string{question})
	if err != nil {
		return model.RagSession{}, fmt.Errorf("embedding question: %w", err)
	}

	hits, err := c.Store.NearestChunks(ctx, userID, embeddings[0], topK)
	if err != nil {
		return model.RagSession{}, fmt.Errorf("retrieving chunks: %w", err)
	}

	grounded := aboveThreshold(hits, similarityThreshold)
	if len(grounded) == 0 {
		return c.Store.UpdateRagSession(ctx, userID, session.SessionID, insufficientContextAnswer, nil)
	}

	answer, err := c.LLM.Complete(ctx, systemInstruction, composePrompt(question, grounded))
	if err != nil {
		// A single attempt only: the composer never retries an upstream
		// LLM failure the way the ingestion pipeline's queue does.
		return model.RagSession{}, fmt.Errorf("composing answer: %w", err)
	}

	chunkIDs := make([]uuid.UUID, len(grounded))
	for i, h := range grounded {
		chunkIDs[i] = h.ChunkID
	}

	return c.Store.UpdateRagSession(ctx, userID, session.SessionID, answer, chunkIDs)
}

// aboveThreshold filters hits to those at or above threshold similarity.
func aboveThreshold(hits []model.SemanticHit, threshold float64) []model.SemanticHit {
	out := make([]model.SemanticHit, 0, len(hits))
	for _, h := range hits {
		if h.Similarity >= threshold {
			out = append(out, h)
		}
	}
	return out
}

// composePrompt assembles the grounded excerpts, each labeled by its source
// bookmark, followed by the question, as the user turn handed to the LLM
// alongside the fixed systemInstruction.
func composePrompt(question string, hits []model.SemanticHit) string {
	var b strings.Builder

	for i, h := range hits {
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n\n", i+1, h.Bookmark.Title, h.Bookmark.URL, h.ChunkText)
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
