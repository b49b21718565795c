package server

import (
	"threadspire/internal/models"
	"threadspire/internal/service"

	"github.com/gofiber/fiber/v2"
)

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.auth.Register(c.UserContext(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		return respondError(c, err)
	}
	return s.respondWithToken(c, fiber.StatusCreated, user)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return s.respondWithToken(c, fiber.StatusOK, user)
}

// Logout handles POST /api/auth/logout. Issued tokens stop working because
// they are bound to the session user.
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.auth.Logout(c.UserContext()); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetSession handles GET /api/auth/session
func (s *Server) GetSession(c *fiber.Ctx) error {
	return c.JSON(s.auth.Session())
}

func (s *Server) respondWithToken(c *fiber.Ctx, status int, user *models.User) error {
	token, err := s.jwt.Issue(user.ID)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	return c.Status(status).JSON(authResponse{Token: token, User: user})
}
