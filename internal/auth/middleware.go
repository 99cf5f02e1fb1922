package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-api/internal/domain"
	apperrors "github.com/spec-kit/marketplace-api/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	UserID    int64
	Email     string
	Role      domain.Role
	TokenID   string
	ExpiresAt time.Time
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenService
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := BearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}

	claims, err := m.tokens.Validate(token)
	if err != nil {
		return TokenErrorToDomain(err)
	}

	userID, ok, err := m.tokens.ResolveUserID(c.UserContext(), claims)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !ok {
		return apperrors.NewUnauthorized("unknown account")
	}

	tok := claims.Token()
	c.Locals(principalKey, &Principal{
		UserID:    userID,
		Email:     tok.Subject,
		Role:      tok.Role,
		TokenID:   tok.ID,
		ExpiresAt: tok.ExpiresAt,
	})
	return c.Next()
}

// BearerToken strips the "Bearer " scheme from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return token, nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
