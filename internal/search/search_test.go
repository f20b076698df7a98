package search_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bookmarkhub/bookmarkhub/internal/llmclient"
	"github.com/bookmarkhub/bookmarkhub/internal/model"
	"github.com/bookmarkhub/bookmarkhub/internal/search"
)

func TestSearch(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Search Suite")
}

var _ = Describe("BuildTSQuery", func() {
	It("returns empty for an empty query", func() {
		Expect(search.BuildTSQuery("  ")).To(Equal(""))
	})

	It("joins bare tokens with implicit AND", func() {
		Expect(search.BuildTSQuery("go concurrency")).To(Equal("go & concurrency"))
	})

	It("keeps explicit & and | operators", func() {
		Expect(search.BuildTSQuery("go | rust")).To(Equal("go | rust"))
	})

	It("turns quoted substrings into phrase matches", func() {
		Expect(search.BuildTSQuery(`"goroutine leak"`)).To(Equal("(goroutine <-> leak)"))
	})

	It("negates terms prefixed with -", func() {
		Expect(search.BuildTSQuery("go -java")).To(Equal("go & !java"))
	})
})

var _ = Describe("Engine", func() {
	var (
		fs  *fakeStore
		llm *llmclient.Client
	)

	BeforeEach(func() {
		fs = &fakeStore{}
	})

	It("forwards the built tsquery to the store for lexical search", func() {
		fs.lexicalHits = []model.SearchHit{{Bookmark: model.Bookmark{BookmarkID: "a"}, Rank: 0.5}}
		e := search.New(fs, llm, nil)

		hits, err := e.Lexical(context.Background(), uuid.New(), "go rust", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(hits).To(HaveLen(1))
		Expect(fs.lastTSQuery).To(Equal("go & rust"))
	})

	It("groups semantic hits to one best chunk per bookmark", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"embeddings": [][]float32{make([]float32, llmclient.EmbeddingDim)},
			})
		}))
		defer server.Close()
		llm = llmclient.New(server.URL, "llama3.2", "nomic-embed-text")

		fs.semanticHits = []model.SemanticHit{
			{Bookmark: model.Bookmark{BookmarkID: "a"}, Similarity: 0.9},
			{Bookmark: model.Bookmark{BookmarkID: "a"}, Similarity: 0.7},
			{Bookmark: model.Bookmark{BookmarkID: "b"}, Similarity: 0.6},
		}
		e := search.New(fs, llm, nil)

		hits, err := e.Semantic(context.Background(), uuid.New(), "concurrency patterns", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(hits).To(HaveLen(2))
		Expect(hits[0].Bookmark.BookmarkID).To(Equal("a"))
		Expect(hits[0].Similarity).To(Equal(0.9))
		Expect(hits[1].Bookmark.BookmarkID).To(Equal("b"))
	})

	It("ranks bookmarks present in both lexical and semantic results first", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"embeddings": [][]float32{make([]float32, llmclient.EmbeddingDim)},
			})
		}))
		defer server.Close()
		llm = llmclient.New(server.URL, "llama3.2", "nomic-embed-text")

		fs.lexicalHits = []model.SearchHit{
			{Bookmark: model.Bookmark{BookmarkID: "only-lexical"}, Rank: 0.9},
			{Bookmark: model.Bookmark{BookmarkID: "both"}, Rank: 0.1},
		}
		fs.semanticHits = []model.SemanticHit{
			{Bookmark: model.Bookmark{BookmarkID: "both"}, Similarity: 0.95},
			{Bookmark: model.Bookmark{BookmarkID: "only-semantic"}, Similarity: 0.8},
		}
		e := search.New(fs, llm, nil)

		hits, err := e.Fused(context.Background(), uuid.New(), "go", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(hits[0].Bookmark.BookmarkID).To(Equal("both"))
	})
})
