package repository

import (
	"context"
	"errors"

	"github.com/communify/communify-backend/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no account matches the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when a create collides with an
	// existing account's email.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines the persistence contract the auth core depends
// on. Implementations own all mutable account state; callers must pass a
// context so repository I/O honors cancellation and deadlines.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	List(ctx context.Context, limit, offset int) ([]*entity.User, error)
}
