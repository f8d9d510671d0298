package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

const userTable = "user"

// UserRepository handles user data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// userRow carries the password hash, which model.User never serializes.
type userRow struct {
	model.User
	Hash *string `json:"hash"`
}

func (r userRow) toModel() *model.User {
	u := r.User
	u.Hash = r.Hash
	return &u
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.Role == "" {
		user.Role = model.UserRoleMusician
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	created, err := insert(ctx, r.db, userTable, ensureID(&user.ID), map[string]interface{}{
		"email":      user.Email,
		"hash":       strOrNil(user.Hash),
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"phone":      strOrNil(user.Phone),
		"role":       string(user.Role),
		"active":     user.Active,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	user.CreatedOn = created.CreatedOn
	user.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	row, err := selectOne[userRow](ctx, r.db,
		"SELECT * FROM type::record($tb, $rid)",
		map[string]interface{}{"tb": userTable, "rid": id})
	if err != nil || row == nil {
		return nil, err
	}
	return row.toModel(), nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row, err := selectOne[userRow](ctx, r.db,
		"SELECT * FROM user WHERE email = $email LIMIT 1",
		map[string]interface{}{"email": strings.ToLower(strings.TrimSpace(email))})
	if err != nil || row == nil {
		return nil, err
	}
	return row.toModel(), nil
}

// List returns users ordered by name.
func (r *UserRepository) List(ctx context.Context, includeInactive bool) ([]*model.User, error) {
	query := "SELECT * FROM user WHERE active = true ORDER BY last_name, first_name"
	if includeInactive {
		query = "SELECT * FROM user ORDER BY last_name, first_name"
	}
	rows, err := selectAll[userRow](ctx, r.db, query, nil)
	if err != nil {
		return nil, err
	}
	users := make([]*model.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toModel())
	}
	return users, nil
}

// Update writes profile, role and active state. The hash is untouched.
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	updated, err := patch(ctx, r.db, userTable, user.ID, map[string]interface{}{
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"phone":      strOrNil(user.Phone),
		"role":       string(user.Role),
		"active":     user.Active,
	})
	if err != nil {
		return err
	}
	user.UpdatedOn = updated.UpdatedOn
	return nil
}

// UpdatePassword updates a user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, hash string) error {
	_, err := patch(ctx, r.db, userTable, userID, map[string]interface{}{"hash": hash})
	return err
}

// TouchLogin stamps the last successful login.
func (r *UserRepository) TouchLogin(ctx context.Context, userID string) error {
	return r.db.Execute(ctx,
		"UPDATE type::record($tb, $rid) SET login_on = time::now()",
		map[string]interface{}{"tb": userTable, "rid": userID})
}
