package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-service/errs"
	"storefront-service/models"
)

const (
	qInsertUser  = `INSERT INTO users (name, email, password, created_at) VALUES (?, ?, ?, ?)`
	qUserByID    = `SELECT id, name, email, password, is_admin, created_at FROM users WHERE id = ?`
	qUserByEmail = `SELECT id, name, email, password, is_admin, created_at FROM users WHERE email = ?`
	qListUsers   = `SELECT id, name, email, is_admin, created_at FROM users ORDER BY id ASC`
	qUpdateUser  = `UPDATE users SET name = ?, email = ?, is_admin = ? WHERE id = ?`
	qDeleteUser  = `DELETE FROM users WHERE id = ?`
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Create registers a user. The password must already be hashed.
// A taken email reports ErrConflict.
func (s *UserStore) Create(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, qInsertUser, name, email, passwordHash, now)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: email already registered", errs.ErrConflict)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.User{ID: id, Name: name, Email: email, Password: passwordHash, CreatedAt: now}, nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getOne(ctx, qUserByID, id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, qUserByEmail, email)
}

func (s *UserStore) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.Password, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, qListUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.IsAdmin, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UserUpdate holds optional admin edits; nil fields are left unchanged.
type UserUpdate struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	IsAdmin *bool   `json:"isAdmin"`
}

func (s *UserStore) Update(ctx context.Context, id int64, update UserUpdate) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.IsAdmin != nil {
		user.IsAdmin = *update.IsAdmin
	}

	if _, err := s.db.ExecContext(ctx, qUpdateUser, user.Name, user.Email, user.IsAdmin, id); err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: email already registered", errs.ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, qDeleteUser, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.ErrNotFound
	}
	return nil
}
