package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-api/internal/api/dto"
	"github.com/spec-kit/marketplace-api/internal/domain"
	"github.com/spec-kit/marketplace-api/internal/service"
)

// AuthHandler exposes signup, login and session endpoints.
type AuthHandler struct {
	accounts *service.AccountService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.accounts.Signup(c.UserContext(), service.SignupInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		Role:        domain.Role(req.Role),
	})
	if err != nil {
		return service.ToDomainError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sessionResponse(session)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return service.ToDomainError(err)
	}

	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// Logout handles POST /auth/logout. Tokens are stateless; the client discards its copy.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, err := mustPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.accounts.Logout(c.UserContext(), principal.UserID); err != nil {
		return service.ToDomainError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, err := mustPrincipal(c)
	if err != nil {
		return err
	}

	user, err := h.accounts.Profile(c.UserContext(), principal.UserID)
	if err != nil {
		return service.ToDomainError(err)
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"principal": dto.PrincipalResponse{
				UserID:         principal.UserID,
				Email:          principal.Email,
				Role:           principal.Role,
				TokenExpiresAt: principal.ExpiresAt,
			},
			"user": dto.NewUserResponse(user),
		},
	})
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, err := mustPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.accounts.ChangePassword(c.UserContext(), principal.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return service.ToDomainError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func sessionResponse(session *service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		User: dto.NewUserResponse(session.User),
		Auth: dto.AuthResponse{Token: session.Token, TokenType: "Bearer", ExpiresAt: session.ExpiresAt},
	}
}
