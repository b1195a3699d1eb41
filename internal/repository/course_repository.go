package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courseloom/courseloom-backend/internal/model"
)

// ErrCourseNotFound indicates the course row does not exist.
var ErrCourseNotFound = errors.New("course not found")

// CourseRepository handles course data access.
type CourseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

// GetByID retrieves a course by ID, including its staged draft blob.
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	c := &model.Course{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, category_id, owner_id, staged_draft, created_at, updated_at, published_at
		 FROM courses WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.CategoryID, &c.OwnerID, &c.StagedDraft, &c.CreatedAt, &c.UpdatedAt, &c.PublishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListByOwner retrieves all courses owned by an author, newest first.
func (r *CourseRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Course, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, category_id, owner_id, created_at, updated_at, published_at
		 FROM courses WHERE owner_id = $1 ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CategoryID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt, &c.PublishedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// Create inserts a new course shell with no content.
func (r *CourseRepository) Create(ctx context.Context, c *model.Course) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO courses (name, description, category_id, owner_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		c.Name, c.Description, c.CategoryID, c.OwnerID,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// SaveStagedDraft overwrites the staged draft blob for a course.
func (r *CourseRepository) SaveStagedDraft(ctx context.Context, courseID int64, draft json.RawMessage) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE courses SET staged_draft = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		draft, courseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}
	return nil
}

// GetStagedDraft returns the staged draft blob, or nil when none is staged.
func (r *CourseRepository) GetStagedDraft(ctx context.Context, courseID int64) (json.RawMessage, error) {
	var draft json.RawMessage
	err := r.pool.QueryRow(ctx,
		`SELECT staged_draft FROM courses WHERE id = $1`, courseID,
	).Scan(&draft)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return draft, nil
}

// GetSkillIDs returns the skill tags attached to a course.
func (r *CourseRepository) GetSkillIDs(ctx context.Context, courseID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT skill_id FROM course_skills WHERE course_id = $1 ORDER BY skill_id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
