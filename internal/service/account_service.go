package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/marketplace-api/internal/auth"
	"github.com/spec-kit/marketplace-api/internal/domain"
	"github.com/spec-kit/marketplace-api/internal/events"
	"github.com/spec-kit/marketplace-api/internal/repository"
)

// SignupInput carries the fields of a new account.
type SignupInput struct {
	Email       string
	DisplayName string
	Password    string
	Role        domain.Role
}

// Session is the result of a successful signup or login.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AccountService coordinates signup, login and password flows. Tokens are issued
// once per signup/login event and never stored.
type AccountService struct {
	users      repository.UserRepository
	tokens     *auth.TokenService
	dispatcher events.Dispatcher
	bcryptCost int
	now        func() time.Time
}

// AccountDependencies encapsulates collaborators of the account service.
type AccountDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenService
	Dispatcher events.Dispatcher
	BcryptCost int
}

// NewAccountService builds the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	return &AccountService{
		users:      deps.UserRepo,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		bcryptCost: deps.BcryptCost,
		now:        time.Now,
	}
}

// Signup creates a new account and issues its first token.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	if !in.Role.Valid() {
		return nil, auth.ErrInvalidRole
	}
	if !in.Role.SelfRegistrable() {
		return nil, ErrRoleNotAllowed
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		return nil, ErrBlankDisplayName
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, auth.ErrPasswordTooLong
	}

	email := normalizeEmail(in.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		Role:         in.Role,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventUserRegistered, user)
	return session, nil
}

// Login authenticates an account by email and password.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.Active() {
		return nil, ErrAccountSuspended
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventUserLoggedIn, user)
	return session, nil
}

// Logout currently no-ops for the stateless token approach.
func (s *AccountService) Logout(_ context.Context, _ int64) error {
	return nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AccountService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, currentPassword) {
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// Profile loads the account row for userID.
func (s *AccountService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AccountService) issue(user *domain.User) (*Session, error) {
	token, exp, err := s.tokens.Issue(user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

func (s *AccountService) publish(ctx context.Context, eventType events.EventType, user *domain.User) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: s.now().UTC(),
		Payload: events.AccountPayload{
			UserID: user.ID,
			Email:  user.Email,
			Role:   user.Role,
		},
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
