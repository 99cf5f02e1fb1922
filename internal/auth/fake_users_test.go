package auth

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/marketplace-api/internal/domain"
)

type fakeUsers struct {
	byEmail map[string]*domain.User
	err     error
	lookups int
}

func newFakeUsers(users ...*domain.User) *fakeUsers {
	f := &fakeUsers{byEmail: map[string]*domain.User{}}
	for _, u := range users {
		f.byEmail[strings.ToLower(u.Email)] = u
	}
	return f
}

func (f *fakeUsers) Create(context.Context, *domain.User) error { return nil }

func (f *fakeUsers) UpdatePassword(context.Context, int64, string) error { return nil }

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}
