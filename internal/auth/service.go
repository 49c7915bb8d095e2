// Package auth is the hosted identity service behind the session bridge:
// accounts in PostgreSQL, sessions in Redis, signed tokens for clients.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/terra-clan/skillify/internal/models"
	"github.com/terra-clan/skillify/internal/session"
	"github.com/terra-clan/skillify/internal/storage"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

// DefaultSessionTTL is the session lifetime when none is configured
const DefaultSessionTTL = 24 * time.Hour

// Service implements sign-up, sign-in and session management
type Service struct {
	accounts storage.AccountRepository
	sessions *SessionStore
	tokens   *TokenIssuer
	ttl      time.Duration
	cost     int
}

// Option configures a Service
type Option func(*Service)

// WithSessionTTL sets the lifetime of new sessions
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithBcryptCost sets the password hashing cost
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

// NewService creates the auth service
func NewService(accounts storage.AccountRepository, sessions *SessionStore, tokens *TokenIssuer, opts ...Option) *Service {
	s := &Service{
		accounts: accounts,
		sessions: sessions,
		tokens:   tokens,
		ttl:      DefaultSessionTTL,
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignUp creates an account and opens a session for it
func (s *Service) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	email := models.NormalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(req.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return nil, ErrAccountExists
		}
		return nil, err
	}

	slog.Info("account created", "account_id", account.ID, "email", account.MaskedEmail())
	return s.open(ctx, account, models.EventSignedIn)
}

// SignIn verifies credentials and opens a new session
func (s *Service) SignIn(ctx context.Context, req models.SignInRequest) (*models.AuthResponse, error) {
	account, err := s.accounts.GetAccountByEmail(ctx, models.NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		slog.Info("sign-in rejected", "email", account.MaskedEmail())
		return nil, ErrInvalidCredentials
	}

	if err := s.accounts.TouchLastSignIn(ctx, account.ID, time.Now().UTC()); err != nil {
		slog.Warn("failed to record sign-in", "account_id", account.ID, "error", err)
	}
	return s.open(ctx, account, models.EventSignedIn)
}

// Authenticate resolves a token to its live session
func (s *Service) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// SignOut ends a session and tells its subscribers
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	slog.Info("session signed out", "session_id", sessionID)
	return s.sessions.Publish(ctx, sessionID, models.SessionChange{Event: models.EventSignedOut})
}

// UpdateUser changes the display name of the session's user
func (s *Service) UpdateUser(ctx context.Context, sessionID string, req models.UpdateUserRequest) (*models.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}

	name := strings.TrimSpace(req.Name)
	if err := s.accounts.UpdateAccountName(ctx, sess.User.ID, name); err != nil {
		return nil, err
	}

	if sess.User.Metadata == nil {
		sess.User.Metadata = map[string]string{}
	}
	sess.User.Metadata[models.MetadataName] = name
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	if err := s.sessions.Publish(ctx, sessionID, models.SessionChange{Event: models.EventUserUpdated, Session: sess}); err != nil {
		return nil, err
	}
	return sess, nil
}

// Refresh extends a session by the configured TTL and issues a new token
func (s *Service) Refresh(ctx context.Context, sessionID string) (*models.AuthResponse, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}

	now := time.Now().UTC()
	sess.ExpiresAt = now.Add(s.ttl)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(sess.User.ID, sess.ID, now, sess.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Publish(ctx, sess.ID, models.SessionChange{Event: models.EventTokenRefreshed, Session: sess}); err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, Session: sess, ExpiresAt: sess.ExpiresAt}, nil
}

// ProviderFor returns the session provider of a token. Only the token is
// verified here; whether the session is still live is what the provider's
// initial check reports.
func (s *Service) ProviderFor(token string) (*SessionProvider, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	return &SessionProvider{service: s, sessionID: claims.ID}, nil
}

// Resolve maps a token to its session id and provider
func (s *Service) Resolve(token string) (string, session.Provider, error) {
	p, err := s.ProviderFor(token)
	if err != nil {
		return "", nil, err
	}
	return p.sessionID, p, nil
}

// Ping checks the session backend
func (s *Service) Ping(ctx context.Context) error {
	return s.sessions.Ping(ctx)
}

func (s *Service) open(ctx context.Context, account *models.Account, event models.SessionEvent) (*models.AuthResponse, error) {
	now := time.Now().UTC()
	sess := &models.Session{
		ID:        uuid.New().String(),
		User:      account.SessionUser(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(account.ID, sess.ID, now, sess.ExpiresAt)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Publish(ctx, sess.ID, models.SessionChange{Event: event, Session: sess}); err != nil {
		slog.Warn("failed to publish session change", "session_id", sess.ID, "error", err)
	}

	slog.Info("session opened", "session_id", sess.ID, "account_id", account.ID, "expires_at", sess.ExpiresAt)
	return &models.AuthResponse{Token: token, Session: sess, ExpiresAt: sess.ExpiresAt}, nil
}
