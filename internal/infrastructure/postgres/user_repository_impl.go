package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/communify/communify-backend/internal/domain/entity"
	"github.com/communify/communify-backend/internal/domain/repository"
)

const uniqueViolation = "23505"

// UserRepository is the pgx-backed implementation of the account store.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	u.ReconcileStatus()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, parental_passcode_hash, role, is_active, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Name, u.PasswordHash, u.ParentalPasscodeHash, u.Role, u.IsActive, u.Status)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*entity.User, error) {
	u := &entity.User{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, parental_passcode_hash, role, is_active, status, created_at, updated_at
		FROM users `+where, arg)

	if err := scanUser(row, u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.ReconcileStatus()
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.ReconcileStatus()
	u.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $1, name = $2, password_hash = $3, parental_passcode_hash = $4,
		    role = $5, is_active = $6, status = $7, updated_at = $8
		WHERE id = $9
	`, u.Email, u.Name, u.PasswordHash, u.ParentalPasscodeHash, u.Role, u.IsActive, u.Status, u.UpdatedAt, u.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, name, password_hash, parental_passcode_hash, role, is_active, status, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u := &entity.User{}
		if err := scanUser(rows, u); err != nil {
			return nil, err
		}
		u.ReconcileStatus()
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row, u *entity.User) error {
	return row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.ParentalPasscodeHash,
		&u.Role, &u.IsActive, &u.Status, &u.CreatedAt, &u.UpdatedAt)
}

var _ repository.UserRepository = (*UserRepository)(nil)
