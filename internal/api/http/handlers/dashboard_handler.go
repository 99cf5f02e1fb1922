package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/marketplace-api/internal/api/dto"
	"github.com/spec-kit/marketplace-api/internal/domain"
	"github.com/spec-kit/marketplace-api/internal/service"
	apperrors "github.com/spec-kit/marketplace-api/pkg/util/errorutil"
)

var dashboardSections = map[domain.Role][]string{
	domain.RoleArtist:    {"artworks", "challenges", "sales", "analytics"},
	domain.RoleShopOwner: {"shop", "catalog", "orders", "analytics"},
	domain.RoleModerator: {"reports", "challenges", "accounts"},
	domain.RoleCustomer:  {"orders", "favorites", "challenges"},
}

// DashboardHandler serves role-aware entry points.
type DashboardHandler struct {
	accounts *service.AccountService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(accounts *service.AccountService) *DashboardHandler {
	return &DashboardHandler{accounts: accounts}
}

// Show handles GET /dashboard.
func (h *DashboardHandler) Show(c *fiber.Ctx) error {
	principal, err := mustPrincipal(c)
	if err != nil {
		return err
	}

	sections, ok := dashboardSections[principal.Role]
	if !ok {
		return apperrors.NewForbidden("no dashboard for role")
	}

	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		UserID:   principal.UserID,
		Role:     principal.Role,
		Sections: sections,
	}})
}

// LookupUser handles GET /moderation/users/:id.
func (h *DashboardHandler) LookupUser(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return apperrors.NewValidationError("invalid user id", map[string]any{"id": c.Params("id")})
	}

	user, err := h.accounts.Profile(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return service.ToDomainError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
