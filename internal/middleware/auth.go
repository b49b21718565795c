package middleware

import (
	"errors"
	"strings"
	"time"

	"threadspire/internal/models"
	"threadspire/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// SessionFunc returns the user currently signed in to the store, or nil.
type SessionFunc func() *models.User

// JWTAuth issues and checks bearer tokens bound to the store's session user.
type JWTAuth struct {
	secret  []byte
	ttl     time.Duration
	session SessionFunc
}

// NewJWTAuth builds the token authority. A zero ttl means 24 hours.
func NewJWTAuth(secret string, ttl time.Duration, session SessionFunc) *JWTAuth {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTAuth{secret: []byte(secret), ttl: ttl, session: session}
}

// Issue signs a token whose subject is userID.
func (a *JWTAuth) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		ID:        models.NewID(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Subject validates tokenString and returns its subject claim.
func (a *JWTAuth) Subject(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Required rejects requests without a valid bearer token for the user
// currently signed in to the store.
func (a *JWTAuth) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sub, msg := a.authenticate(c.Get(fiber.HeaderAuthorization))
		if msg != "" {
			return unauthorized(c, msg)
		}
		a.bind(c, sub)
		return c.Next()
	}
}

// Optional binds the caller when a valid token for the session user is
// present and otherwise lets the request through anonymously.
func (a *JWTAuth) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sub, msg := a.authenticate(c.Get(fiber.HeaderAuthorization)); msg == "" {
			a.bind(c, sub)
		}
		return c.Next()
	}
}

// authenticate returns the token subject, or the reason the header was
// rejected.
func (a *JWTAuth) authenticate(header string) (string, string) {
	if header == "" {
		return "", "Authorization header required"
	}
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenString == "" {
		return "", "Invalid authorization header format"
	}
	sub, err := a.Subject(tokenString)
	if err != nil {
		return "", "Invalid or expired token"
	}
	if u := a.session(); u == nil || u.ID != sub {
		return "", "Session has ended"
	}
	return sub, ""
}

func (a *JWTAuth) bind(c *fiber.Ctx, sub string) {
	c.Locals(LocalUserID, sub)
	c.SetUserContext(observability.WithUserID(c.UserContext(), sub))
}

// UserID returns the authenticated user id stored by Required or Optional,
// or "" for an anonymous caller.
func UserID(c *fiber.Ctx) string {
	uid, _ := c.Locals(LocalUserID).(string)
	return uid
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return models.RespondWithError(c, fiber.StatusUnauthorized, &models.AppError{
		Code:    models.CodeNotAuthenticated,
		Message: msg,
	})
}
