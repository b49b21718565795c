package server

import (
	"threadspire/internal/feed"
	"threadspire/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// ListCollections handles GET /api/collections
func (s *Server) ListCollections(c *fiber.Ctx) error {
	collections := s.store.Snapshot().Collections
	return c.JSON(feed.UserCollections(collections, middleware.UserID(c)))
}

// CreateCollection handles POST /api/collections
func (s *Server) CreateCollection(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	id, err := s.collections.CreateCollection(c.UserContext(), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return s.respondWithCollection(c, fiber.StatusCreated, id)
}

// DeleteCollection handles DELETE /api/collections/:id
func (s *Server) DeleteCollection(c *fiber.Ctx) error {
	if err := s.collections.DeleteCollection(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetCollectionThreads handles GET /api/collections/:id/threads
func (s *Server) GetCollectionThreads(c *fiber.Ctx) error {
	col, err := s.collections.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(feed.CollectionThreads(col, s.store.Snapshot().Threads))
}

// AddThreadToCollection handles POST /api/collections/:id/threads/:threadId
func (s *Server) AddThreadToCollection(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.collections.AddThreadToCollection(c.UserContext(), id, c.Params("threadId")); err != nil {
		return respondError(c, err)
	}
	return s.respondWithCollection(c, fiber.StatusOK, id)
}

// RemoveThreadFromCollection handles DELETE /api/collections/:id/threads/:threadId
func (s *Server) RemoveThreadFromCollection(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.collections.RemoveThreadFromCollection(c.UserContext(), id, c.Params("threadId")); err != nil {
		return respondError(c, err)
	}
	return s.respondWithCollection(c, fiber.StatusOK, id)
}

func (s *Server) respondWithCollection(c *fiber.Ctx, status int, id string) error {
	col, err := s.collections.Get(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(status).JSON(col)
}
