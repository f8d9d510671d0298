package memstore

import (
	"context"
	"sort"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
)

// UserRepo implements service.UserRepository.
type UserRepo struct{ s *Store }

func (r *UserRepo) emailTaken(email, except string) bool {
	for _, u := range r.s.users.rows {
		if u.ID != except && lower(u.Email) == lower(email) {
			return true
		}
	}
	return false
}

func (r *UserRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.emailTaken(user.Email, "") {
		return database.ErrDuplicate
	}
	now := r.s.now()
	user.CreatedOn, user.UpdatedOn = now, now
	r.s.users.put(ensureID(&user.ID), user)
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.users.get(id), nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := r.s.users.filter(func(u *model.User) bool { return lower(u.Email) == lower(email) })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *UserRepo) List(_ context.Context, includeInactive bool) ([]*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	users := r.s.users.filter(func(u *model.User) bool { return includeInactive || u.Active })
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].LastName != users[j].LastName {
			return users[i].LastName < users[j].LastName
		}
		return users[i].FirstName < users[j].FirstName
	})
	return users, nil
}

func (r *UserRepo) Update(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.users.has(user.ID) {
		return database.ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return database.ErrDuplicate
	}
	user.UpdatedOn = r.s.now()
	r.s.users.put(user.ID, user)
	return nil
}

func (r *UserRepo) UpdatePassword(_ context.Context, userID, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.users.ptr(userID)
	if u == nil {
		return database.ErrNotFound
	}
	u.Hash = &hash
	u.UpdatedOn = r.s.now()
	return nil
}

func (r *UserRepo) TouchLogin(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.users.ptr(userID)
	if u == nil {
		return database.ErrNotFound
	}
	now := r.s.now()
	u.LoginOn = &now
	return nil
}

// TokenRepo implements service.TokenRepository.
type TokenRepo struct{ s *Store }

func (r *TokenRepo) CreateRefreshToken(_ context.Context, token *service.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = r.s.now()
	}
	r.s.tokens.put(ensureID(&token.ID), token)
	return nil
}

func (r *TokenRepo) GetRefreshTokenByHash(_ context.Context, hash string) (*service.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := r.s.tokens.filter(func(t *service.RefreshToken) bool { return t.TokenHash == hash })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *TokenRepo) RevokeRefreshToken(_ context.Context, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens.rows {
		if t.TokenHash == hash {
			t.Revoked = true
		}
	}
	return nil
}

func (r *TokenRepo) RevokeAllUserTokens(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens.rows {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (r *TokenRepo) DeleteExpiredTokens(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	n := 0
	for id, t := range r.s.tokens.rows {
		if t.ExpiresAt.Before(now) {
			r.s.tokens.delete(id)
			n++
		}
	}
	return n, nil
}

// ActiveTokens counts unrevoked tokens of a user.
func (r *TokenRepo) ActiveTokens(userID string) int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.tokens.filter(func(t *service.RefreshToken) bool { return t.UserID == userID && !t.Revoked }))
}
