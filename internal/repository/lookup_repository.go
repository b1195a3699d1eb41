package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courseloom/courseloom-backend/internal/model"
)

// LookupRepository serves the small reference tables used by the editor UI.
type LookupRepository struct {
	pool *pgxpool.Pool
}

// NewLookupRepository creates a new LookupRepository.
func NewLookupRepository(pool *pgxpool.Pool) *LookupRepository {
	return &LookupRepository{pool: pool}
}

// ListCategories returns all course categories ordered by name.
func (r *LookupRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// CategoryExists reports whether a category row exists.
func (r *LookupRepository) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id,
	).Scan(&exists)
	return exists, err
}

// ListSkills returns all skill tags ordered by name.
func (r *LookupRepository) ListSkills(ctx context.Context) ([]model.Skill, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM skills ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skills []model.Skill
	for rows.Next() {
		var s model.Skill
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}
