package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User is a store administrator account.
type User struct {
	ID           uuid.UUID
	StoreID      string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUserParams groups the fields written at registration.
type CreateUserParams struct {
	StoreID      string
	Email        string
	PasswordHash string
}

const createUserSQL = `
INSERT INTO users (id, store_id, email, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING id, store_id, email, password_hash, created_at, updated_at`

// CreateUser inserts a new administrator. The (store_id, email) unique
// constraint surfaces as a pq error the handler maps to 409.
func (s *Store) CreateUser(ctx context.Context, p CreateUserParams) (User, error) {
	var u User
	err := s.pool.QueryRowContext(ctx, createUserSQL,
		uuid.New(), p.StoreID, p.Email, p.PasswordHash,
	).Scan(&u.ID, &u.StoreID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, fmt.Errorf("store: create user: %w", err)
	}
	return u, nil
}

const getUserByEmailSQL = `
SELECT id, store_id, email, password_hash, created_at, updated_at
FROM users
WHERE store_id = $1 AND email = $2`

// GetUserByEmail looks up one administrator within a store.
func (s *Store) GetUserByEmail(ctx context.Context, storeID, email string) (User, error) {
	var u User
	err := s.pool.QueryRowContext(ctx, getUserByEmailSQL, storeID, email).
		Scan(&u.ID, &u.StoreID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, notFound(err)
	}
	return u, nil
}
