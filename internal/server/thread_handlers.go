package server

import (
	"threadspire/internal/feed"
	"threadspire/internal/middleware"
	"threadspire/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListThreads handles GET /api/threads?tag=&sort=
func (s *Server) ListThreads(c *fiber.Ctx) error {
	sortKey, err := feed.ParseSort(c.Query("sort"))
	if err != nil {
		return respondError(c, err)
	}
	threads := s.store.Snapshot().Threads
	return c.JSON(feed.Published(threads, feed.Query{Tag: c.Query("tag"), Sort: sortKey}))
}

// ListTags handles GET /api/threads/tags
func (s *Server) ListTags(c *fiber.Ctx) error {
	return c.JSON(feed.Tags(s.store.Snapshot().Threads))
}

// GetThread handles GET /api/threads/:id
func (s *Server) GetThread(c *fiber.Ctx) error {
	th, err := s.threads.GetAs(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(th)
}

// ViewThread handles POST /api/threads/:id/view
func (s *Server) ViewThread(c *fiber.Ctx) error {
	if err := s.threads.IncrementViewsAs(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateThread handles POST /api/threads
func (s *Server) CreateThread(c *fiber.Ctx) error {
	var req struct {
		Title    string   `json:"title"`
		Segments []string `json:"segments"`
		Tags     []string `json:"tags"`
		IsDraft  bool     `json:"isDraft"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	id, err := s.threads.CreateThread(c.UserContext(), service.CreateThreadInput{
		Title:    req.Title,
		Segments: req.Segments,
		Tags:     req.Tags,
		IsDraft:  req.IsDraft,
	})
	if err != nil {
		return respondError(c, err)
	}
	return s.respondWithThread(c, fiber.StatusCreated, id)
}

// UpdateThread handles PATCH /api/threads/:id
func (s *Server) UpdateThread(c *fiber.Ctx) error {
	var patch service.ThreadPatch
	if err := parseBody(c, &patch); err != nil {
		return nil
	}
	th, err := s.threads.UpdateThread(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(th)
}

// PublishThread handles POST /api/threads/:id/publish
func (s *Server) PublishThread(c *fiber.Ctx) error {
	th, err := s.threads.PublishThread(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(th)
}

// DeleteThread handles DELETE /api/threads/:id
func (s *Server) DeleteThread(c *fiber.Ctx) error {
	if err := s.threads.DeleteThread(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ForkThread handles POST /api/threads/:id/fork
func (s *Server) ForkThread(c *fiber.Ctx) error {
	id, err := s.threads.ForkThread(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return s.respondWithThread(c, fiber.StatusCreated, id)
}

// BookmarkThread handles POST /api/threads/:id/bookmark
func (s *Server) BookmarkThread(c *fiber.Ctx) error {
	bookmarked, err := s.threads.BookmarkThread(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"bookmarked": bookmarked})
}

// ReactToSegment handles POST /api/threads/:id/segments/:segmentId/reactions
func (s *Server) ReactToSegment(c *fiber.Ctx) error {
	var req struct {
		Reaction string `json:"reaction"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	seg, err := s.threads.ReactToSegment(c.UserContext(), c.Params("id"), c.Params("segmentId"), req.Reaction)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(seg)
}

func (s *Server) respondWithThread(c *fiber.Ctx, status int, id string) error {
	th, err := s.threads.Get(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(status).JSON(th)
}
