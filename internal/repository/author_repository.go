package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courseloom/courseloom-backend/internal/model"
)

// ErrDuplicateEmail indicates an author with the same email already exists.
var ErrDuplicateEmail = errors.New("author with this email already exists")

// AuthorRepository handles author account data access.
type AuthorRepository struct {
	pool *pgxpool.Pool
}

// NewAuthorRepository creates a new AuthorRepository.
func NewAuthorRepository(pool *pgxpool.Pool) *AuthorRepository {
	return &AuthorRepository{pool: pool}
}

// GetByID retrieves an author by ID.
func (r *AuthorRepository) GetByID(ctx context.Context, id int64) (*model.Author, error) {
	a := &model.Author{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at FROM authors WHERE id = $1`, id,
	).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByEmail retrieves an author by email. Returns pgx.ErrNoRows when absent.
func (r *AuthorRepository) GetByEmail(ctx context.Context, email string) (*model.Author, error) {
	a := &model.Author{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at FROM authors WHERE email = $1`, email,
	).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new author account.
func (r *AuthorRepository) Create(ctx context.Context, a *model.Author) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO authors (email, name, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		a.Email, a.Name, a.PasswordHash,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// IsNotFound reports whether err means the row was absent.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
