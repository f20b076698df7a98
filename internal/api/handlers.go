package api

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/bookmarkhub/bookmarkhub/internal/apperr"
	"github.com/bookmarkhub/bookmarkhub/internal/model"
)

// enqueueBookmarkRequest is the body of POST /bookmarks.
type enqueueBookmarkRequest struct {
	URL  string   `json:"url"`
	Tags []string `json:"tags"`
}

// taskView is the §6 "task-view" of a freshly enqueued bookmark: url and
// tags echoed back, ingestion still pending.
type taskView struct {
	TaskID uuid.UUID `json:"task_id"`
	URL    string    `json:"url"`
	Tags   []string  `json:"tags"`
	Status string    `json:"status"`
}

func (s *Server) handleEnqueueBookmark(c *fiber.Ctx) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return respondErr(c, err)
	}

	var req enqueueBookmarkRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, errors.Join(apperr.Validation, err))
	}
	if req.URL == "" {
		return respondErr(c, fmt.Errorf("url is required: %w", apperr.Validation))
	}

	task, err := s.store.Enqueue(c.Context(), userID, req.URL, req.Tags)
	if err != nil {
		return respondErr(c, err)
	}

	if s.queue != nil {
		s.queue.Wake()
	}

	return c.Status(fiber.StatusCreated).JSON(taskView{
		TaskID: task.TaskID,
		URL:    task.URL,
		Tags:   task.Tags,
		Status: string(task.Status),
	})
}

func (s *Server) handleListBookmarks(c *fiber.Ctx) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return respondErr(c, err)
	}

	page := pageFromQuery(c)
	bookmarks, err := s.store.ListBookmarks(c.Context(), userID, page)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"bookmarks": bookmarks})
}

func (s *Server) handleGetBookmark(c *fiber.Ctx) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return respondErr(c, err)
	}

	bookmark, err := s.store.GetBookmark(c.Context(), userID, c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(bookmark)
}

func (s *Server) handleDeleteBookmark(c *fiber.Ctx) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return respondErr(c, err)
	}

	if err := s.store.DeleteBookmarkCascade(c.Context(), userID, c.Params("id")); err != nil {
		return respondErr(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

func (s *Server) handleSetTags(c *fiber.Ctx) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return respondErr(c, err)
	}

	var req tagsRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, errors.Join(apperr.Validation, err))
	}

	bookmark, err := s.store.SetTags(c.Context(), userID, c.Params("id"), model.NormalizeTags(req.Tags))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(bookmark)
}

func (s *Server) handleAppendTags(c *fiber.Ctx) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return respondErr(c, err)
	}

	var req tagsRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, errors.Join(apperr.Validation, err))
	}

	bookmark, err := s.store.AppendTags(c.Context(), userID, c.Params("id"), model.NormalizeTags(req.Tags))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(bookmark)
}

func (s *Server) handleTagCounts(c *fiber.Ctx) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return respondErr(c, err)
	}

	counts, err := s.store.TagCounts(c.Context(), userID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"tags": counts})
}

func (s *Server) handleBookmarksByTag(c *fiber.Ctx) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return respondErr(c, err)
	}

	bookmarks, err := s.store.BookmarksByTag(c.Context(), userID, c.Params("tag"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"bookmarks": bookmarks})
}

// searchRequest is the body of POST /search. An empty Query lists all
// bookmarks by recency (§4.6).
type searchRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleSearch(c *fiber.Ctx) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return respondErr(c, err)
	}

	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, errors.Join(apperr.Validation, err))
	}

	hits, err := s.search.Lexical(c.Context(), userID, req.Query, 0)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"results": hits})
}

type ragRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAskRag(c *fiber.Ctx) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return respondErr(c, err)
	}

	var req ragRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, errors.Join(apperr.Validation, err))
	}
	if req.Question == "" {
		return respondErr(c, fmt.Errorf("question is required: %w", apperr.Validation))
	}

	session, err := s.rag.Ask(c.Context(), userID, req.Question)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

func (s *Server) handleListRagSessions(c *fiber.Ctx) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return respondErr(c, err)
	}

	page := pageFromQuery(c)
	sessions, err := s.store.ListRagSessions(c.Context(), userID, page)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

// userIDHeader is the trusted identity header the (external) auth layer
// sets after verifying a session; the core never authenticates requests
// itself (§6), it only trusts what the boundary already verified.
const userIDHeader = "X-User-Id"

func userIDFromRequest(c *fiber.Ctx) (uuid.UUID, error) {
	raw := c.Get(userIDHeader)
	if raw == "" {
		return uuid.UUID{}, errors.Join(apperr.Auth, errors.New("missing "+userIDHeader+" header"))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, errors.Join(apperr.Auth, err)
	}
	return id, nil
}

func pageFromQuery(c *fiber.Ctx) model.Page {
	page := model.Page{
		AfterID:  c.Query("after_id"),
		PageSize: c.QueryInt("page_size", model.DefaultPageSize),
	}
	return page.Normalize()
}

// respondErr maps an apperr-classified error to the HTTP status spec.md §7
// assigns it.
func respondErr(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.Validation):
		status = fiber.StatusBadRequest
	case errors.Is(err, apperr.NotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, apperr.Auth):
		status = fiber.StatusUnauthorized
	case errors.Is(err, apperr.UpstreamTransient):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, apperr.UpstreamFatal):
		status = fiber.StatusBadGateway
	case errors.Is(err, apperr.Integrity):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}
