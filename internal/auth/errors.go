package auth

import (
	"errors"
	"net/http"

	apperrors "github.com/spec-kit/marketplace-api/pkg/util/errorutil"
)

// TokenErrorKind classifies token failures so callers can branch on them.
type TokenErrorKind string

const (
	KindMalformed        TokenErrorKind = "malformed"
	KindInvalidSignature TokenErrorKind = "invalid_signature"
	KindExpired          TokenErrorKind = "expired"
	KindSigning          TokenErrorKind = "signing"
)

// Sentinels for errors.Is checks against a *TokenError of the same kind.
var (
	ErrMalformed        = &TokenError{Kind: KindMalformed}
	ErrInvalidSignature = &TokenError{Kind: KindInvalidSignature}
	ErrExpired          = &TokenError{Kind: KindExpired}
	ErrSigning          = &TokenError{Kind: KindSigning}
)

// TokenError is returned by TokenService for every token failure.
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func newTokenError(kind TokenErrorKind, err error) *TokenError {
	return &TokenError{Kind: kind, Err: err}
}

func (e *TokenError) Error() string {
	msg := "token " + string(e.Kind)
	switch e.Kind {
	case KindInvalidSignature:
		msg = "token signature invalid"
	case KindSigning:
		msg = "token signing failed"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// Is matches any TokenError of the same kind, so the package sentinels work with errors.Is.
func (e *TokenError) Is(target error) bool {
	t, ok := target.(*TokenError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of a token error, or "" if err is not one.
func KindOf(err error) TokenErrorKind {
	var tokenErr *TokenError
	if errors.As(err, &tokenErr) {
		return tokenErr.Kind
	}
	return ""
}

// TokenErrorToDomain maps token failures onto the HTTP error envelope.
func TokenErrorToDomain(err error) error {
	switch KindOf(err) {
	case KindExpired:
		return apperrors.NewDomainError("TOKEN_EXPIRED", "token expired", http.StatusUnauthorized, nil)
	case KindInvalidSignature:
		return apperrors.NewDomainError("TOKEN_INVALID_SIGNATURE", "invalid token signature", http.StatusUnauthorized, nil)
	case KindMalformed:
		return apperrors.NewDomainError("TOKEN_MALFORMED", "malformed token", http.StatusUnauthorized, nil)
	case KindSigning:
		return &apperrors.DomainError{
			Code:       "TOKEN_SIGNING_FAILED",
			Message:    "unable to issue token",
			HTTPStatus: http.StatusInternalServerError,
			Err:        err,
		}
	default:
		return apperrors.MapError(err)
	}
}
