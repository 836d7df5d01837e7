package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AdminUsername is the account allowed to create and delete posts.
const AdminUsername = "admin"

// DefaultTTL is how long a token stays valid unless WithTTL says otherwise.
const DefaultTTL = 24 * time.Hour

// Manager registers users and resolves session tokens.
type Manager struct {
	repo   ports.Repository
	tokens ports.TokenStore

	ttl      time.Duration
	cost     int
	newToken func() string
	logger   *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithTTL sets the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// WithHashCost sets the bcrypt cost (tests use bcrypt.MinCost).
func WithHashCost(cost int) Option {
	return func(m *Manager) {
		m.cost = cost
	}
}

// WithTokenGenerator replaces the random token source.
func WithTokenGenerator(gen func() string) Option {
	return func(m *Manager) {
		if gen != nil {
			m.newToken = gen
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Manager over the given user repository and token store.
func NewManager(repo ports.Repository, tokens ports.TokenStore, opts ...Option) *Manager {
	m := &Manager{
		repo:     repo,
		tokens:   tokens,
		ttl:      DefaultTTL,
		cost:     bcrypt.DefaultCost,
		newToken: uuid.NewString,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register creates an account. Both fields are required and usernames are unique.
func (m *Manager) Register(ctx context.Context, username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}
	if password == "" {
		return domain.User{}, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}
	u, err := m.repo.CreateUser(ctx, username, string(hash))
	if errors.Is(err, domain.ErrConflict) {
		return domain.User{}, fmt.Errorf("%w: %s is already registered", domain.ErrConflict, username)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	m.logger.Info("user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Login checks the credentials and issues a new token.
func (m *Manager) Login(ctx context.Context, username, password string) (string, domain.User, error) {
	bad := fmt.Errorf("%w: incorrect username or password", domain.ErrUnauthorized)

	u, err := m.repo.FindUser(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.User{}, bad
	}
	if err != nil {
		return "", domain.User{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)); err != nil {
		return "", domain.User{}, bad
	}

	token := m.newToken()
	if err := m.tokens.Put(ctx, token, u.ID, m.ttl); err != nil {
		return "", domain.User{}, fmt.Errorf("failed to store token: %w", err)
	}
	m.logger.Debug("session opened", "user_id", u.ID)
	return token, u, nil
}

// Authenticate resolves a token to its user.
// A missing, unknown or expired token, or one whose user is gone, is ErrUnauthorized.
func (m *Manager) Authenticate(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, fmt.Errorf("%w: please login", domain.ErrUnauthorized)
	}

	id, err := m.tokens.Get(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to resolve token: %w", err)
	}

	u, err := m.repo.GetUser(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		if derr := m.tokens.Delete(ctx, token); derr != nil {
			m.logger.Warn("failed to drop orphaned token", "user_id", id, "err", derr)
		}
		return domain.User{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

// RequireAdmin is Authenticate restricted to the admin account.
func (m *Manager) RequireAdmin(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, fmt.Errorf("%w: requires admin rights", domain.ErrUnauthorized)
	}
	u, err := m.Authenticate(ctx, token)
	if err != nil {
		return domain.User{}, err
	}
	if u.Username != AdminUsername {
		return domain.User{}, fmt.Errorf("%w: requires admin rights", domain.ErrForbidden)
	}
	return u, nil
}

// Logout invalidates the token.
func (m *Manager) Logout(ctx context.Context, token string) error {
	if err := m.tokens.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// EnsureUser registers username unless it already exists, and returns the account.
// The password of an existing account is left unchanged.
func (m *Manager) EnsureUser(ctx context.Context, username, password string) (domain.User, error) {
	u, err := m.Register(ctx, username, password)
	if errors.Is(err, domain.ErrConflict) {
		return m.repo.FindUser(ctx, strings.TrimSpace(username))
	}
	return u, err
}
