package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"threadspire/internal/models"
	"threadspire/internal/observability"
	"threadspire/internal/state"
	"threadspire/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// CredentialStore persists registered users and their password hashes.
type CredentialStore interface {
	RegisteredUsers(ctx context.Context) ([]models.RegisteredUser, error)
	SaveRegisteredUsers(ctx context.Context, users []models.RegisteredUser) error
}

// AuthConfig tunes the auth service.
type AuthConfig struct {
	// Latency is the simulated round trip applied to login and register.
	Latency time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// AuthService signs users in and out of the single local session.
type AuthService struct {
	base
	creds CredentialStore
	cfg   AuthConfig

	// serializes read-modify-write of the credential list
	mu sync.Mutex

	// counts overlapping login and register calls; Loading clears with the last
	loadingMu sync.Mutex
	inFlight  int
}

// RegisterInput is the payload for Register.
type RegisterInput struct {
	Email    string
	Password string
	Username string
}

func NewAuthService(store *state.Store, creds CredentialStore, cfg AuthConfig, opts ...Option) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{base: newBase(store, opts), creds: creds, cfg: cfg}
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	span, ctx := observability.NewSpan(ctx, "AuthService.Register")
	defer func() { span.End(err) }()

	email := validation.NormalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	stop, err := s.beginLoading(ctx)
	if err != nil {
		return nil, err
	}
	defer stop()

	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.creds.RegisteredUsers(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, u := range users {
		if u.Email == email {
			return nil, models.NewDuplicateUserError(email)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	created := models.User{
		ID:        s.newID(),
		Email:     email,
		Username:  in.Username,
		CreatedAt: s.now(),
	}
	users = append(users, models.RegisteredUser{User: created, PasswordHash: string(hash)})
	if err := s.creds.SaveRegisteredUsers(ctx, users); err != nil {
		return nil, models.NewInternalError(err)
	}

	if _, err := s.store.Dispatch(ctx, state.SetUser{User: &created}); err != nil {
		return nil, models.NewInternalError(err)
	}

	observability.LogServiceCall(observability.WithUserID(ctx, created.ID), "auth", "Register",
		slog.String("username", created.Username))
	return &created, nil
}

// Login signs in an existing account.
func (s *AuthService) Login(ctx context.Context, email, password string) (user *models.User, err error) {
	span, ctx := observability.NewSpan(ctx, "AuthService.Login")
	defer func() { span.End(err) }()

	email = validation.NormalizeEmail(email)

	stop, err := s.beginLoading(ctx)
	if err != nil {
		return nil, err
	}
	defer stop()

	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	users, err := s.creds.RegisteredUsers(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	var match *models.RegisteredUser
	for i := range users {
		if users[i].Email == email {
			match = &users[i]
			break
		}
	}
	if match == nil {
		return nil, models.NewInvalidCredentialsError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(match.PasswordHash), []byte(password)); err != nil {
		return nil, models.NewInvalidCredentialsError()
	}

	signedIn := match.User
	if _, err := s.store.Dispatch(ctx, state.SetUser{User: &signedIn}); err != nil {
		return nil, models.NewInternalError(err)
	}

	observability.LogServiceCall(observability.WithUserID(ctx, signedIn.ID), "auth", "Login")
	return &signedIn, nil
}

// Logout clears the session.
func (s *AuthService) Logout(ctx context.Context) (err error) {
	span, ctx := observability.NewSpan(ctx, "AuthService.Logout")
	defer func() { span.End(err) }()

	userID := s.store.Snapshot().UserID()
	if _, err := s.store.Dispatch(ctx, state.SetUser{}); err != nil {
		return models.NewInternalError(err)
	}
	observability.LogServiceCall(observability.WithUserID(ctx, userID), "auth", "Logout")
	return nil
}

// Session reports the current authentication state.
func (s *AuthService) Session() models.Session {
	return s.store.Snapshot().Session()
}

// CurrentUser returns the signed-in user.
func (s *AuthService) CurrentUser() (*models.User, error) {
	return requireUser(s.store.Snapshot())
}

func (s *AuthService) beginLoading(ctx context.Context) (func(), error) {
	s.loadingMu.Lock()
	defer s.loadingMu.Unlock()
	if s.inFlight == 0 {
		if _, err := s.store.Dispatch(ctx, state.SetLoading{Loading: true}); err != nil {
			return nil, models.NewInternalError(err)
		}
	}
	s.inFlight++

	var once sync.Once
	return func() {
		once.Do(func() {
			s.loadingMu.Lock()
			defer s.loadingMu.Unlock()
			s.inFlight--
			if s.inFlight > 0 {
				return
			}
			// clear even when ctx was cancelled mid-request
			_, _ = s.store.Dispatch(context.WithoutCancel(ctx), state.SetLoading{Loading: false})
		})
	}, nil
}

func (s *AuthService) wait(ctx context.Context) error {
	if s.cfg.Latency <= 0 {
		return nil
	}
	timer := time.NewTimer(s.cfg.Latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
