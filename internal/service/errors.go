package service

import (
	"errors"
	"net/http"

	"github.com/spec-kit/marketplace-api/internal/auth"
	apperrors "github.com/spec-kit/marketplace-api/pkg/util/errorutil"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountSuspended   = errors.New("account suspended")
	ErrEmailTaken         = errors.New("email already registered")
	ErrRoleNotAllowed     = errors.New("role cannot be self-registered")
	ErrBlankDisplayName   = errors.New("display name must not be blank")
)

// ToDomainError maps account service failures onto the HTTP error envelope.
func ToDomainError(err error) error {
	switch {
	case err == nil:
		return nil
	case auth.KindOf(err) != "":
		return auth.TokenErrorToDomain(err)
	case errors.Is(err, ErrInvalidCredentials):
		return apperrors.NewUnauthorized(err.Error())
	case errors.Is(err, ErrAccountSuspended):
		return apperrors.NewForbidden(err.Error())
	case errors.Is(err, ErrEmailTaken):
		return apperrors.NewConflict(err.Error(), nil)
	case errors.Is(err, auth.ErrPasswordTooLong):
		return apperrors.NewValidationError(err.Error(), map[string]any{"password": "maxbytes"})
	case errors.Is(err, ErrBlankDisplayName):
		return apperrors.NewValidationError(err.Error(), map[string]any{"displayname": "notblank"})
	case errors.Is(err, ErrRoleNotAllowed), errors.Is(err, auth.ErrInvalidRole), errors.Is(err, auth.ErrInvalidSubject):
		return apperrors.NewDomainError("VALIDATION_FAILED", err.Error(), http.StatusBadRequest, nil)
	default:
		return apperrors.MapError(err)
	}
}
