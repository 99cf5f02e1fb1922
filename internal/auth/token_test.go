package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/marketplace-api/internal/domain"
)

const testSecret = "test-signing-secret"

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestService(clock *fakeClock, opts ...TokenOption) *TokenService {
	return NewTokenService(testSecret, append([]TokenOption{WithClock(clock.Now)}, opts...)...)
}

func mustIssue(t *testing.T, svc *TokenService, subject string, role domain.Role) string {
	t.Helper()
	token, _, err := svc.Issue(subject, role)
	if err != nil {
		t.Fatalf("Issue(%q, %q) error = %v", subject, role, err)
	}
	return token
}

func signRaw(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return token
}

func TestIssueValidateRoundTrip(t *testing.T) {
	clock := newFakeClock()
	svc := newTestService(clock)

	tests := []struct {
		subject string
		role    domain.Role
	}{
		{"a@b.com", domain.RoleArtist},
		{"shop@gallery.example", domain.RoleShopOwner},
		{"mod+queue@market.example", domain.RoleModerator},
		{"buyer.one@example.org", domain.RoleCustomer},
	}

	for _, tt := range tests {
		t.Run(tt.subject+"/"+string(tt.role), func(t *testing.T) {
			token, expiresAt, err := svc.Issue(tt.subject, tt.role)
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}
			if want := clock.Now().Add(TokenTTL); !expiresAt.Equal(want) {
				t.Fatalf("expiresAt = %v, want %v", expiresAt, want)
			}

			claims, err := svc.Validate(token)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if claims.Subject != tt.subject || claims.Role != tt.role {
				t.Fatalf("claims = {%q %q}, want {%q %q}", claims.Subject, claims.Role, tt.subject, tt.role)
			}

			tok := claims.Token()
			if !tok.IssuedAt.Equal(clock.Now()) {
				t.Fatalf("IssuedAt = %v, want %v", tok.IssuedAt, clock.Now())
			}
			if got := tok.ExpiresAt.Sub(tok.IssuedAt); got != TokenTTL {
				t.Fatalf("ExpiresAt - IssuedAt = %v, want %v", got, TokenTTL)
			}
			if tok.ID == "" {
				t.Fatal("expected a token id")
			}
		})
	}
}

func TestValidateExpiry(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		wantErr error
	}{
		{name: "fresh", advance: 0},
		{name: "one-second-before-expiry", advance: TokenTTL - time.Second},
		{name: "exactly-at-expiry", advance: TokenTTL, wantErr: ErrExpired},
		{name: "24h-and-1s", advance: TokenTTL + time.Second, wantErr: ErrExpired},
		{name: "long-after", advance: 30 * TokenTTL, wantErr: ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			svc := newTestService(clock)
			token := mustIssue(t, svc, "a@b.com", domain.RoleArtist)

			clock.Advance(tt.advance)
			_, err := svc.Validate(token)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if KindOf(err) != KindExpired {
				t.Fatalf("KindOf() = %q, want %q", KindOf(err), KindExpired)
			}
			if !errors.Is(err, jwt.ErrTokenExpired) {
				t.Fatal("expected the underlying jwt error to be preserved")
			}
		})
	}
}

func TestValidateTamperedToken(t *testing.T) {
	clock := newFakeClock()
	svc := newTestService(clock)
	token := mustIssue(t, svc, "a@b.com", domain.RoleArtist)

	checked := 0
	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			continue
		}
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]

		claims, err := svc.Validate(tampered)
		if err == nil {
			t.Fatalf("tampered token at %d validated: %+v", i, claims)
		}
		if kind := KindOf(err); kind != KindInvalidSignature && kind != KindMalformed {
			t.Fatalf("tampered token at %d: kind = %q, err = %v", i, kind, err)
		}
		checked++
	}
	if checked == 0 {
		t.Fatal("no positions checked")
	}
}

func TestValidateRejectsChangedSegmentTail(t *testing.T) {
	svc := newTestService(newFakeClock())
	token := mustIssue(t, svc, "a@b.com", domain.RoleArtist)

	segments := strings.Split(token, ".")
	for idx, seg := range segments {
		last := len(seg) - 1
		for _, replacement := range []byte("ABwxyz-_") {
			if seg[last] == replacement {
				continue
			}
			changed := append([]string{}, segments...)
			changed[idx] = seg[:last] + string(replacement)
			tampered := strings.Join(changed, ".")

			claims, err := svc.Validate(tampered)
			if err == nil {
				t.Fatalf("segment %d tail %q -> %q validated: %+v", idx, seg[last], replacement, claims)
			}
			if kind := KindOf(err); kind != KindInvalidSignature && kind != KindMalformed {
				t.Fatalf("segment %d tail %q -> %q: kind = %q, err = %v", idx, seg[last], replacement, kind, err)
			}
		}
	}
}

func TestValidateFlippedSignatureCharacter(t *testing.T) {
	svc := newTestService(newFakeClock())
	token := mustIssue(t, svc, "a@b.com", domain.RoleArtist)

	sigStart := strings.LastIndex(token, ".") + 1
	i := sigStart + 3
	replacement := byte('x')
	if token[i] == 'x' {
		replacement = 'y'
	}
	tampered := token[:i] + string(replacement) + token[i+1:]

	if _, err := svc.Validate(tampered); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Validate() error = %v, want %v", err, ErrInvalidSignature)
	}
}

func TestValidateWrongKeyOrAlgorithm(t *testing.T) {
	clock := newFakeClock()
	svc := newTestService(clock)
	now := clock.Now()

	claims := &Claims{
		Role: domain.RoleCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "buyer@example.com",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	other := NewTokenService("a-different-secret", WithClock(clock.Now))
	otherToken := mustIssue(t, other, "buyer@example.com", domain.RoleCustomer)

	tests := []struct {
		name  string
		token string
	}{
		{"different-key", otherToken},
		{"hs512-same-key", signRaw(t, jwt.SigningMethodHS512, []byte(testSecret), claims)},
		{"alg-none", signRaw(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, claims)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Validate(tt.token); !errors.Is(err, ErrInvalidSignature) {
				t.Fatalf("Validate() error = %v, want %v", err, ErrInvalidSignature)
			}
		})
	}
}

func TestValidateMalformed(t *testing.T) {
	clock := newFakeClock()
	svc := newTestService(clock)
	now := clock.Now()
	key := []byte(testSecret)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"one-segment", "abc"},
		{"garbage-segments", "a.b.c"},
		{"bearer-prefix-left-on", "Bearer " + mustIssue(t, svc, "a@b.com", domain.RoleArtist)},
		{"unknown-role", signRaw(t, jwt.SigningMethodHS256, key, &Claims{
			Role: "admin",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "a@b.com",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		})},
		{"missing-subject", signRaw(t, jwt.SigningMethodHS256, key, &Claims{
			Role: domain.RoleArtist,
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		})},
		{"missing-expiry", signRaw(t, jwt.SigningMethodHS256, key, &Claims{
			Role: domain.RoleArtist,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:  "a@b.com",
				IssuedAt: jwt.NewNumericDate(now),
			},
		})},
		{"missing-issued-at", signRaw(t, jwt.SigningMethodHS256, key, &Claims{
			Role: domain.RoleArtist,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "a@b.com",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		})},
		{"issued-in-future", signRaw(t, jwt.SigningMethodHS256, key, &Claims{
			Role: domain.RoleArtist,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "a@b.com",
				IssuedAt:  jwt.NewNumericDate(now.Add(time.Hour)),
				ExpiresAt: jwt.NewNumericDate(now.Add(2 * time.Hour)),
			},
		})},
		{"role-not-a-string", signRaw(t, jwt.SigningMethodHS256, key, jwt.MapClaims{
			"sub":  "a@b.com",
			"role": 7,
			"iat":  now.Unix(),
			"exp":  now.Add(time.Hour).Unix(),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(tt.token)
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("Validate() error = %v, want %v", err, ErrMalformed)
			}
		})
	}
}

func TestIssueRejectsBadInput(t *testing.T) {
	svc := newTestService(newFakeClock())

	tests := []struct {
		name    string
		subject string
		role    domain.Role
		wantErr error
	}{
		{"empty-subject", "", domain.RoleArtist, ErrInvalidSubject},
		{"not-an-email", "artist", domain.RoleArtist, ErrInvalidSubject},
		{"empty-role", "a@b.com", "", ErrInvalidRole},
		{"unknown-role", "a@b.com", "admin", ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := svc.Issue(tt.subject, tt.role)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Issue() error = %v, want %v", err, tt.wantErr)
			}
			if token != "" {
				t.Fatalf("Issue() token = %q, want empty", token)
			}
			if KindOf(err) != "" {
				t.Fatalf("input errors must not be token errors, got kind %q", KindOf(err))
			}
		})
	}
}

func TestIssueWithoutKeyFailsWithSigningError(t *testing.T) {
	svc := NewTokenService("")

	_, _, err := svc.Issue("a@b.com", domain.RoleArtist)
	if !errors.Is(err, ErrSigning) {
		t.Fatalf("Issue() error = %v, want %v", err, ErrSigning)
	}
	if KindOf(err) != KindSigning {
		t.Fatalf("KindOf() = %q, want %q", KindOf(err), KindSigning)
	}
}

func TestValidateWithoutKeyRejectsToken(t *testing.T) {
	clock := newFakeClock()
	token := mustIssue(t, newTestService(clock), "a@b.com", domain.RoleArtist)

	svc := NewTokenService("", WithClock(clock.Now))
	if _, err := svc.Validate(token); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Validate() error = %v, want %v", err, ErrInvalidSignature)
	}
}

func TestExtractUserID(t *testing.T) {
	dbDown := errors.New("db down")

	resolver := IdentityResolverFunc(func(_ context.Context, claims *Claims) (int64, bool, error) {
		switch claims.Subject {
		case "known@example.com":
			return 42, true, nil
		case "broken@example.com":
			return 0, false, dbDown
		default:
			return 0, false, nil
		}
	})

	tests := []struct {
		name    string
		subject string
		wantID  int64
		wantOK  bool
		wantErr error
	}{
		{name: "resolvable", subject: "known@example.com", wantID: 42, wantOK: true},
		{name: "unresolvable", subject: "ghost@example.com"},
		{name: "resolver-failure", subject: "broken@example.com", wantErr: dbDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newFakeClock(), WithResolver(resolver))
			token := mustIssue(t, svc, tt.subject, domain.RoleCustomer)

			id, ok, err := svc.ExtractUserID(context.Background(), token)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ExtractUserID() error = %v, want %v", err, tt.wantErr)
			}
			if id != tt.wantID || ok != tt.wantOK {
				t.Fatalf("ExtractUserID() = (%d, %v), want (%d, %v)", id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestExtractUserIDWithoutResolverIsAbsent(t *testing.T) {
	svc := newTestService(newFakeClock())
	token := mustIssue(t, svc, "a@b.com", domain.RoleArtist)

	id, ok, err := svc.ExtractUserID(context.Background(), token)
	if err != nil || ok || id != 0 {
		t.Fatalf("ExtractUserID() = (%d, %v, %v), want (0, false, nil)", id, ok, err)
	}
}

func TestExtractUserIDPropagatesTokenErrors(t *testing.T) {
	calls := 0
	resolver := IdentityResolverFunc(func(context.Context, *Claims) (int64, bool, error) {
		calls++
		return 1, true, nil
	})

	clock := newFakeClock()
	svc := newTestService(clock, WithResolver(resolver))
	token := mustIssue(t, svc, "a@b.com", domain.RoleArtist)

	clock.Advance(TokenTTL + time.Second)
	if _, ok, err := svc.ExtractUserID(context.Background(), token); !errors.Is(err, ErrExpired) || ok {
		t.Fatalf("ExtractUserID() = (ok=%v, err=%v), want ErrExpired", ok, err)
	}
	if _, _, err := svc.ExtractUserID(context.Background(), "garbage"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("ExtractUserID() error = %v, want %v", err, ErrMalformed)
	}
	if calls != 0 {
		t.Fatalf("resolver called %d times for invalid tokens", calls)
	}
}

func TestTokenServiceConcurrentUse(t *testing.T) {
	svc := NewTokenService(testSecret)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			role := domain.Roles()[i%len(domain.Roles())]
			token, _, err := svc.Issue("user@example.com", role)
			if err != nil {
				errs <- err
				return
			}
			claims, err := svc.Validate(token)
			if err != nil {
				errs <- err
				return
			}
			if claims.Role != role {
				errs <- errors.New("role mismatch")
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent issue/validate failed: %v", err)
	}
}
