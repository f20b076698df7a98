// Package api is the thin HTTP boundary wiring spec.md §6's endpoint table
// onto the core's exported operations, grounded on
// papercomputeco-tapes/api/api.go's Server/NewServer/Run/Shutdown shape
// (auth endpoints are authored outside the core, per §6, and are not
// implemented here).
package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bookmarkhub/bookmarkhub/internal/queue"
	"github.com/bookmarkhub/bookmarkhub/internal/rag"
	"github.com/bookmarkhub/bookmarkhub/internal/search"
	"github.com/bookmarkhub/bookmarkhub/internal/store"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on, e.g. ":8080".
	ListenAddr string
}

// ErrorResponse is the JSON body returned on a non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is bookmark hub's HTTP boundary.
type Server struct {
	config Config
	store  store.Gateway
	search *search.Engine
	rag    *rag.Composer
	queue  *queue.Pool
	logger *zap.Logger
	app    *fiber.App
}

// NewServer wires spec.md §6's endpoint table onto s, searchEngine, and ragComposer. pool
// may be nil (e.g. when ingestion workers run in a separate process); when
// set, enqueuing a bookmark wakes it immediately instead of waiting out the
// poll interval.
func NewServer(config Config, s store.Gateway, searchEngine *search.Engine, ragComposer *rag.Composer, pool *queue.Pool, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	srv := &Server{
		config: config,
		store:  s,
		search: searchEngine,
		rag:    ragComposer,
		queue:  pool,
		logger: logger,
		app:    app,
	}

	v1 := app.Group("/api/v1")

	v1.Post("/bookmarks", srv.handleEnqueueBookmark)
	v1.Get("/bookmarks", srv.handleListBookmarks)
	v1.Get("/bookmarks/:id", srv.handleGetBookmark)
	v1.Delete("/bookmarks/:id", srv.handleDeleteBookmark)
	v1.Post("/bookmarks/:id/tags", srv.handleSetTags)
	v1.Patch("/bookmarks/:id/tags", srv.handleAppendTags)

	v1.Get("/tags", srv.handleTagCounts)
	v1.Get("/tags/:tag", srv.handleBookmarksByTag)

	v1.Post("/search", srv.handleSearch)

	v1.Post("/rag", srv.handleAskRag)
	v1.Get("/rag", srv.handleListRagSessions)

	return srv
}

// Run starts the server on config.ListenAddr, blocking until it stops.
func (s *Server) Run() error {
	s.logger.Info("starting API server", zap.String("listen", s.config.ListenAddr))
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
