package server

import (
	"threadspire/internal/feed"
	"threadspire/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetDrafts handles GET /api/me/drafts
func (s *Server) GetDrafts(c *fiber.Ctx) error {
	return c.JSON(feed.Drafts(s.store.Snapshot().Threads, middleware.UserID(c)))
}

// GetProfile handles GET /api/me/profile
func (s *Server) GetProfile(c *fiber.Ctx) error {
	snap := s.store.Snapshot()
	return c.JSON(fiber.Map{
		"user":    snap.User,
		"profile": feed.Profile(snap.Threads, middleware.UserID(c)),
	})
}

// GetBookmarks handles GET /api/me/bookmarks
func (s *Server) GetBookmarks(c *fiber.Ctx) error {
	return c.JSON(feed.Bookmarked(s.store.Snapshot().Threads, middleware.UserID(c)))
}

// GetAnalytics handles GET /api/me/analytics?period=
func (s *Server) GetAnalytics(c *fiber.Ctx) error {
	period, err := feed.ParsePeriod(c.Query("period"))
	if err != nil {
		return respondError(c, err)
	}
	report := feed.Analytics(s.store.Snapshot().Threads, middleware.UserID(c), period, s.now())
	return c.JSON(report)
}

// GetFeatureFlags returns configured feature flags and evaluated state for current user.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}
	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(middleware.UserID(c)),
	})
}
