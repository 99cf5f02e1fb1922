package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/marketplace-api/internal/domain"
)

// TokenTTL is the fixed lifetime of every access token.
const TokenTTL = 24 * time.Hour

var (
	ErrInvalidSubject = errors.New("token subject must be an email address")
	ErrInvalidRole    = errors.New("unknown role")

	errMissingKey = errors.New("signing key not configured")
	errEmptyToken = errors.New("empty token")
)

var subjectValidator = validator.New()

// IdentityResolver maps validated claims to a numeric account id.
// ok is false when the claims carry no resolvable identity.
type IdentityResolver interface {
	ResolveUserID(ctx context.Context, claims *Claims) (id int64, ok bool, err error)
}

// IdentityResolverFunc adapts a function to IdentityResolver.
type IdentityResolverFunc func(ctx context.Context, claims *Claims) (int64, bool, error)

func (f IdentityResolverFunc) ResolveUserID(ctx context.Context, claims *Claims) (int64, bool, error) {
	return f(ctx, claims)
}

// Claims describes the JWT payload.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Token returns the decoded token metadata.
func (c *Claims) Token() domain.Token {
	tok := domain.Token{ID: c.ID, Subject: c.Subject, Role: c.Role}
	if c.IssuedAt != nil {
		tok.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		tok.ExpiresAt = c.ExpiresAt.Time
	}
	return tok
}

func (c *Claims) check() error {
	if strings.TrimSpace(c.Subject) == "" {
		return errors.New("missing subject")
	}
	if !c.Role.Valid() {
		return ErrInvalidRole
	}
	if c.IssuedAt == nil {
		return errors.New("missing issued-at")
	}
	return nil
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the wall clock used for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithResolver sets the claim-to-id resolution used by ExtractUserID.
func WithResolver(resolver IdentityResolver) TokenOption {
	return func(s *TokenService) {
		s.resolver = resolver
	}
}

// TokenService issues and validates HS256-signed access tokens.
// It is immutable after construction and safe for concurrent use.
type TokenService struct {
	secret   []byte
	now      func() time.Time
	resolver IdentityResolver
}

// NewTokenService builds a service around the given signing secret.
func NewTokenService(secret string, opts ...TokenOption) *TokenService {
	s := &TokenService{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a token for subject carrying role. It returns the token and its expiry.
func (s *TokenService) Issue(subject string, role domain.Role) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if err := subjectValidator.Var(subject, "required,email"); err != nil {
		return "", time.Time{}, ErrInvalidSubject
	}
	if !role.Valid() {
		return "", time.Time{}, ErrInvalidRole
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, newTokenError(KindSigning, errMissingKey)
	}

	issuedAt := s.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, newTokenError(KindSigning, err)
	}
	return tokenString, claims.ExpiresAt.Time, nil
}

// Validate verifies signature and expiry and returns the decoded claims.
// The token must not carry a scheme prefix.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, newTokenError(KindMalformed, errEmptyToken)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return nil, classifyParseError(err)
	}
	if !parsed.Valid {
		return nil, newTokenError(KindMalformed, errors.New("invalid token claims"))
	}
	if err := claims.check(); err != nil {
		return nil, newTokenError(KindMalformed, err)
	}
	return claims, nil
}

// ResolveUserID maps validated claims to an account id through the configured resolver.
// Without a resolver no identity is resolvable.
func (s *TokenService) ResolveUserID(ctx context.Context, claims *Claims) (int64, bool, error) {
	if s.resolver == nil || claims == nil {
		return 0, false, nil
	}
	return s.resolver.ResolveUserID(ctx, claims)
}

// ExtractUserID validates the token and resolves the account id it belongs to.
// A valid token without a resolvable identity yields ok == false and a nil error.
func (s *TokenService) ExtractUserID(ctx context.Context, tokenStr string) (int64, bool, error) {
	claims, err := s.Validate(tokenStr)
	if err != nil {
		return 0, false, err
	}
	return s.ResolveUserID(ctx, claims)
}

func (s *TokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method != jwt.SigningMethodHS256 {
		return nil, errors.New("unexpected signing method")
	}
	if len(s.secret) == 0 {
		return nil, errMissingKey
	}
	return s.secret, nil
}

func classifyParseError(err error) *TokenError {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return newTokenError(KindMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return newTokenError(KindInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return newTokenError(KindExpired, err)
	default:
		return newTokenError(KindMalformed, err)
	}
}
