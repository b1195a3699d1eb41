package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/repository"
)

// Course access errors.
var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrNotCourseOwner  = errors.New("author does not own this course")
	ErrUnknownCategory = errors.New("category does not exist")
)

// CourseService manages course shells and ownership checks.
type CourseService struct {
	courses *repository.CourseRepository
	lookups *repository.LookupRepository
	log     zerolog.Logger
}

// NewCourseService creates a new CourseService.
func NewCourseService(courses *repository.CourseRepository, lookups *repository.LookupRepository, log zerolog.Logger) *CourseService {
	return &CourseService{
		courses: courses,
		lookups: lookups,
		log:     log.With().Str("component", "course_service").Logger(),
	}
}

// Create inserts an empty course shell owned by the author. Content arrives
// later through the draft workflow.
func (s *CourseService) Create(ctx context.Context, ownerID int64, req model.CreateCourseRequest) (*model.Course, error) {
	if req.CategoryID != nil {
		exists, err := s.lookups.CategoryExists(ctx, *req.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("check category: %w", err)
		}
		if !exists {
			return nil, ErrUnknownCategory
		}
	}

	course := &model.Course{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		OwnerID:     ownerID,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}

	s.log.Info().Int64("course_id", course.ID).Int64("owner_id", ownerID).Msg("course created")
	return course, nil
}

// GetOwned fetches a course and verifies the author owns it.
func (s *CourseService) GetOwned(ctx context.Context, courseID, authorID int64) (*model.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if course.OwnerID != authorID {
		return nil, ErrNotCourseOwner
	}
	return course, nil
}

// ListOwned returns all courses belonging to the author.
func (s *CourseService) ListOwned(ctx context.Context, authorID int64) ([]model.Course, error) {
	return s.courses.ListByOwner(ctx, authorID)
}

// Categories returns the category lookup table.
func (s *CourseService) Categories(ctx context.Context) ([]model.Category, error) {
	return s.lookups.ListCategories(ctx)
}

// Skills returns the skill-tag lookup table.
func (s *CourseService) Skills(ctx context.Context) ([]model.Skill, error) {
	return s.lookups.ListSkills(ctx)
}
