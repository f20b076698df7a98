// Package search implements the hybrid retrieval engine (§4.6): lexical
// full-text, tag faceting, semantic vector search, and a fused mode,
// grounded on papercomputeco-tapes/api/search/search.go's shape (embed
// query → query a driver → assemble typed results) adapted from merkle DAG
// lookups to the Storage Gateway's bookmark rows.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bookmarkhub/bookmarkhub/internal/llmclient"
	"github.com/bookmarkhub/bookmarkhub/internal/model"
	"github.com/bookmarkhub/bookmarkhub/internal/store"
)

const (
	defaultLexicalLimit  = 20
	defaultSemanticLimit = 20
)

// TagFilter names how a set of tags combines with a lexical query. No
// Engine method takes a TagFilter, and Lexical applies no tag filter.
type TagFilter int

const (
	// TagFilterNone ignores the tag set.
	TagFilterNone TagFilter = iota
	// TagFilterAnd requires every tag in the set to be present.
	TagFilterAnd
	// TagFilterOr requires at least one tag in the set to be present.
	TagFilterOr
)

// Engine runs searches against one user's scope in the Storage Gateway.
type Engine struct {
	Store  store.Gateway
	LLM    *llmclient.Client
	Logger *zap.Logger
}

// New builds an Engine.
func New(s store.Gateway, llm *llmclient.Client, logger *zap.Logger) *Engine {
	return &Engine{Store: s, LLM: llm, Logger: logger}
}

// Lexical runs a weighted full-text query over a user's bookmarks (§4.6
// "Lexical"). An empty query lists all bookmarks by recency.
func (e *Engine) Lexical(ctx context.Context, userID uuid.UUID, query string, limit int) ([]model.SearchHit, error) {
	if limit <= 0 {
		limit = defaultLexicalLimit
	}

	tsquery := BuildTSQuery(query)
	hits, err := e.Store.LexicalSearch(ctx, userID, tsquery, limit)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return hits, nil
}

// TagCounts returns per-tag counts for a user (§4.6 "Tag facet").
func (e *Engine) TagCounts(ctx context.Context, userID uuid.UUID) ([]model.TagCount, error) {
	return e.Store.TagCounts(ctx, userID)
}

// BookmarksByTag returns a user's bookmarks carrying tag, newest first.
func (e *Engine) BookmarksByTag(ctx context.Context, userID uuid.UUID, tag string) ([]model.Bookmark, error) {
	return e.Store.BookmarksByTag(ctx, userID, tag)
}

// Semantic embeds query and returns the nearest bookmarks by cosine
// similarity, one hit per bookmark keeping its best-scoring chunk (§4.6
// "Semantic").
func (e *Engine) Semantic(ctx context.Context, userID uuid.UUID, query string, limit int) ([]model.SemanticHit, error) {
	if limit <= 0 {
		limit = defaultSemanticLimit
	}

	embeddings, err := e.LLM.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// Over-fetch chunks so that after grouping to distinct bookmarks we can
	// still return up to limit of them.
	hits, err := e.Store.NearestChunks(ctx, userID, embeddings[0], limit*4)
	if err != nil {
		return nil, fmt.Errorf("nearest chunks: %w", err)
	}

	return bestPerBookmark(hits, limit), nil
}

// bestPerBookmark keeps each bookmark's highest-similarity chunk, already
// ordered by similarity descending from the store, then truncates to limit.
func bestPerBookmark(hits []model.SemanticHit, limit int) []model.SemanticHit {
	seen := make(map[string]struct{}, len(hits))
	out := make([]model.SemanticHit, 0, limit)
	for _, h := range hits {
		if _, ok := seen[h.Bookmark.BookmarkID]; ok {
			continue
		}
		seen[h.Bookmark.BookmarkID] = struct{}{}
		out = append(out, h)
		if len(out) == limit {
			break
		}
	}
	return out
}

// FusedHit is one bookmark surfaced by Fused, carrying whichever scores its
// contributing mode(s) produced.
type FusedHit struct {
	Bookmark         model.Bookmark
	LexicalRank      float64
	SemanticScore    float64
	InLexicalResults bool
	InSemanticResults bool
}

// Fused runs lexical and semantic search and merges them by bookmark,
// ranking hits that appear in both modes above single-mode hits, then by
// the sum of the lexical rank and the semantic similarity as the store
// returned them; the two scores are not normalized to a common scale.
func (e *Engine) Fused(ctx context.Context, userID uuid.UUID, query string, limit int) ([]FusedHit, error) {
	if limit <= 0 {
		limit = defaultLexicalLimit
	}

	lexical, err := e.Lexical(ctx, userID, query, limit*2)
	if err != nil {
		return nil, err
	}
	semantic, err := e.Semantic(ctx, userID, query, limit*2)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*FusedHit)
	order := make([]string, 0, len(lexical)+len(semantic))

	for _, h := range lexical {
		byID[h.Bookmark.BookmarkID] = &FusedHit{Bookmark: h.Bookmark, LexicalRank: h.Rank, InLexicalResults: true}
		order = append(order, h.Bookmark.BookmarkID)
	}
	for _, h := range semantic {
		if existing, ok := byID[h.Bookmark.BookmarkID]; ok {
			existing.SemanticScore = h.Similarity
			existing.InSemanticResults = true
			continue
		}
		byID[h.Bookmark.BookmarkID] = &FusedHit{Bookmark: h.Bookmark, SemanticScore: h.Similarity, InSemanticResults: true}
		order = append(order, h.Bookmark.BookmarkID)
	}

	out := make([]FusedHit, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}

	sort.SliceStable(out, func(i, j int) bool {
		bothI := out[i].InLexicalResults && out[i].InSemanticResults
		bothJ := out[j].InLexicalResults && out[j].InSemanticResults
		if bothI != bothJ {
			return bothI
		}
		return out[i].LexicalRank+out[i].SemanticScore > out[j].LexicalRank+out[j].SemanticScore
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// BuildTSQuery translates a free-text query into Postgres to_tsquery syntax
// (§4.6 "Lexical"): bare tokens become implicit AND, "&" is AND, "|" is OR,
// quoted substrings become phrase matches (joined with <->), and a leading
// "-" excludes a term. Returns "" for an empty query, which the store
// interprets as "list all".
func BuildTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}

	var terms []string
	for _, tok := range tokenize(query) {
		switch {
		case tok == "&" || tok == "|":
			terms = append(terms, tok)
		case strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) && len(tok) > 1:
			phrase := strings.Fields(strings.Trim(tok, `"`))
			if len(phrase) == 0 {
				continue
			}
			terms = append(terms, "("+strings.Join(phrase, " <-> ")+")")
		case strings.HasPrefix(tok, "-") && len(tok) > 1:
			terms = append(terms, "!"+tok[1:])
		default:
			terms = append(terms, tok)
		}
	}

	return joinImplicitAnd(terms)
}

// joinImplicitAnd inserts "&" between adjacent terms that have no explicit
// operator between them.
func joinImplicitAnd(terms []string) string {
	var b strings.Builder
	prevWasOperator := true // leading position behaves like "after an operator"
	for _, t := range terms {
		isOperator := t == "&" || t == "|"
		if !isOperator && !prevWasOperator {
			b.WriteString(" & ")
		} else if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(t)
		prevWasOperator = isOperator
	}
	return b.String()
}

// tokenize splits on whitespace while keeping quoted phrases intact.
func tokenize(query string) []string {
	var tokens []string
	var cur strings.Builder
	inQuotes := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range query {
		switch {
		case r == '"':
			cur.WriteRune(r)
			inQuotes = !inQuotes
			if !inQuotes {
				flush()
			}
		case r == ' ' && !inQuotes:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}
