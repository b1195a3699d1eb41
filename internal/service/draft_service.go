package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/courseloom/courseloom-backend/internal/config"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/outline"
	"github.com/courseloom/courseloom-backend/internal/repository"
)

// Draft workflow errors.
var (
	ErrDraftMalformed     = errors.New("draft document is malformed")
	ErrDraftVersion       = errors.New("draft document version is not supported")
	ErrNoApprovalSnapshot = errors.New("no approval snapshot for this course")
)

// DraftService manages the staged draft lifecycle: load, save, validate,
// and the approval snapshot taken when an author requests review.
type DraftService struct {
	courses *repository.CourseRepository
	rdb     *redis.Client
	events  *EventPublisher
	cfg     *config.Config
	log     zerolog.Logger
}

// NewDraftService creates a new DraftService.
func NewDraftService(courses *repository.CourseRepository, rdb *redis.Client, events *EventPublisher, cfg *config.Config, log zerolog.Logger) *DraftService {
	return &DraftService{
		courses: courses,
		rdb:     rdb,
		events:  events,
		cfg:     cfg,
		log:     log.With().Str("component", "draft_service").Logger(),
	}
}

// Get returns the staged draft for a course. The Redis cache is consulted
// first; on a miss the database copy is loaded and re-cached. A course with
// no staged draft yields a fresh document built from the course row.
func (s *DraftService) Get(ctx context.Context, course *model.Course) (*model.DraftDocument, error) {
	cacheKey := config.CacheKey.CourseDraftKey(course.ID)

	if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		doc, err := parseDraft(cached)
		if err == nil {
			return doc, nil
		}
		// A corrupt cache entry falls through to the database copy.
		s.log.Warn().Err(err).Int64("course_id", course.ID).Msg("discarding corrupt cached draft")
		s.rdb.Del(ctx, cacheKey)
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Int64("course_id", course.ID).Msg("draft cache read failed")
	}

	raw, err := s.courses.GetStagedDraft(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return s.freshDocument(ctx, course)
	}

	doc, err := parseDraft(raw)
	if err != nil {
		return nil, err
	}

	s.cache(ctx, course.ID, raw)
	return doc, nil
}

// Save validates the wire form and persists the draft to both the database
// and the cache, then notifies connected editor sessions.
func (s *DraftService) Save(ctx context.Context, courseID int64, raw json.RawMessage) (*model.DraftDocument, error) {
	doc, err := parseDraft(raw)
	if err != nil {
		return nil, err
	}

	// Decoding proves the document is structurally committable: identities
	// parse and every item tag matches its payload.
	if _, err := outline.Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDraftMalformed, err)
	}

	doc.UpdatedAt = time.Now().UTC()
	stamped, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal draft: %w", err)
	}

	if err := s.courses.SaveStagedDraft(ctx, courseID, stamped); err != nil {
		return nil, err
	}
	s.cache(ctx, courseID, stamped)

	stats := outline.Collect(doc)
	s.events.Publish(ctx, EventDraftSaved, courseID, stats)
	return doc, nil
}

// Validate runs the blocking and advisory checks against the staged draft.
func (s *DraftService) Validate(ctx context.Context, course *model.Course) (outline.ValidationResult, error) {
	doc, err := s.Get(ctx, course)
	if err != nil {
		return outline.ValidationResult{}, err
	}
	return outline.Validate(doc), nil
}

// Stats summarizes the active nodes of the staged draft.
func (s *DraftService) Stats(ctx context.Context, course *model.Course) (outline.Stats, error) {
	doc, err := s.Get(ctx, course)
	if err != nil {
		return outline.Stats{}, err
	}
	return outline.Collect(doc), nil
}

// RequestApproval snapshots the current draft under the approval key so that
// later edits do not disturb what the reviewer sees. The draft must pass
// validation first.
func (s *DraftService) RequestApproval(ctx context.Context, course *model.Course) (outline.ValidationResult, error) {
	doc, err := s.Get(ctx, course)
	if err != nil {
		return outline.ValidationResult{}, err
	}

	result := outline.Validate(doc)
	if !result.Valid {
		return result, nil
	}

	snapshot, err := json.Marshal(doc)
	if err != nil {
		return result, fmt.Errorf("marshal snapshot: %w", err)
	}

	key := config.CacheKey.CourseApprovalDraftKey(course.ID)
	if err := s.rdb.Set(ctx, key, snapshot, 0).Err(); err != nil {
		return result, fmt.Errorf("store approval snapshot: %w", err)
	}

	s.events.Publish(ctx, EventApprovalRequested, course.ID, nil)
	return result, nil
}

// ApprovalSnapshot loads the frozen draft taken at approval-request time.
func (s *DraftService) ApprovalSnapshot(ctx context.Context, courseID int64) (*model.DraftDocument, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.CourseApprovalDraftKey(courseID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoApprovalSnapshot
		}
		return nil, fmt.Errorf("load approval snapshot: %w", err)
	}
	return parseDraft(raw)
}

// Invalidate drops the cached copies after a commit clears the staged blob.
func (s *DraftService) Invalidate(ctx context.Context, courseID int64) {
	s.rdb.Del(ctx,
		config.CacheKey.CourseDraftKey(courseID),
		config.CacheKey.CourseApprovalDraftKey(courseID),
	)
}

func (s *DraftService) cache(ctx context.Context, courseID int64, raw []byte) {
	key := config.CacheKey.CourseDraftKey(courseID)
	if err := s.rdb.Set(ctx, key, raw, s.cfg.DraftCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Int64("course_id", courseID).Msg("draft cache write failed")
	}
}

// freshDocument builds an empty draft from the course row for courses that
// have never staged one.
func (s *DraftService) freshDocument(ctx context.Context, course *model.Course) (*model.DraftDocument, error) {
	skillIDs, err := s.courses.GetSkillIDs(ctx, course.ID)
	if err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}

	var categoryID int64
	if course.CategoryID != nil {
		categoryID = *course.CategoryID
	}

	return &model.DraftDocument{
		Version:     outline.DraftVersion,
		UpdatedAt:   course.UpdatedAt,
		Name:        course.Name,
		Description: course.Description,
		CategoryID:  categoryID,
		OwnerID:     course.OwnerID,
		SkillIDs:    skillIDs,
		Modules:     []model.DraftModule{},
	}, nil
}

func parseDraft(raw []byte) (*model.DraftDocument, error) {
	var doc model.DraftDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDraftMalformed, err)
	}
	if doc.Version != outline.DraftVersion {
		return nil, fmt.Errorf("%w: got version %d", ErrDraftVersion, doc.Version)
	}
	return &doc, nil
}
