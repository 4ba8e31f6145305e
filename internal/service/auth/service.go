package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"expense-ledger/internal/domain"
	"expense-ledger/internal/repository"
	"expense-ledger/internal/token"
)

var (
	// ErrDuplicateUsername is returned when the username is already taken.
	ErrDuplicateUsername = errors.New("username already registered")

	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords; the two cases are deliberately indistinguishable so callers
	// cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized is the single failure kind for token resolution: bad
	// signature, expired token, missing subject, or a user that no longer
	// exists all collapse into it.
	ErrUnauthorized = errors.New("unauthorized")

	errUsernameRequired = fmt.Errorf("%w: username is required", domain.ErrValidation)
	errPasswordRequired = fmt.Errorf("%w: password is required", domain.ErrValidation)
)

// Service verifies credentials and issues and resolves bearer tokens.
type Service struct {
	users  repository.UserRepository
	signer *token.Signer
	logger *slog.Logger
}

// New constructs a Service.
func New(users repository.UserRepository, signer *token.Signer, logger *slog.Logger) Service {
	return Service{users: users, signer: signer, logger: logger}
}

// Register creates an account with a bcrypt-hashed credential. The unique
// index on username makes concurrent duplicate registrations safe; the
// conflict surfaces as ErrDuplicateUsername.
func (s Service) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errUsernameRequired
	}
	if password == "" {
		return nil, errPasswordRequired
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		ID:           domain.NewID(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate checks a username/password pair. bcrypt's comparison is
// constant-time; a mismatch of any kind yields ErrInvalidCredentials.
func (s Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken signs a bearer token for the user with the configured TTL.
func (s Service) IssueToken(user *domain.User) (string, time.Time, error) {
	return s.signer.Issue(user.Username)
}

// ResolveToken is the single gate every ownership-scoped operation passes
// through. It verifies the token and maps the subject back to a stored user;
// all failure modes collapse into ErrUnauthorized.
func (s Service) ResolveToken(ctx context.Context, raw string) (*domain.User, error) {
	subject, err := s.signer.Subject(strings.TrimSpace(raw))
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, err := s.users.GetUserByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}
