package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/courseloom/courseloom-backend/internal/assets"
	"github.com/courseloom/courseloom-backend/internal/commit"
	"github.com/courseloom/courseloom-backend/internal/config"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/outline"
)

// ErrAssetPromotion indicates the asset service rejected or failed the
// draft-to-production copy.
var ErrAssetPromotion = errors.New("asset promotion failed")

// PublishService turns a validated draft into committed relational state.
// Asset promotion runs before the transaction opens so a failed promotion
// leaves both the database and the staged draft untouched.
type PublishService struct {
	drafts   *DraftService
	engine   *commit.Engine
	promoter *assets.Promoter
	events   *EventPublisher
	cfg      *config.Config
	log      zerolog.Logger
}

// NewPublishService creates a new PublishService.
func NewPublishService(drafts *DraftService, engine *commit.Engine, promoter *assets.Promoter, events *EventPublisher, cfg *config.Config, log zerolog.Logger) *PublishService {
	return &PublishService{
		drafts:   drafts,
		engine:   engine,
		promoter: promoter,
		events:   events,
		cfg:      cfg,
		log:      log.With().Str("component", "publish_service").Logger(),
	}
}

// PublishOptions controls which document is committed.
type PublishOptions struct {
	// FromApproval commits the frozen approval snapshot instead of the
	// live staged draft.
	FromApproval bool
}

// Publish validates, promotes assets, and commits the draft atomically.
// The returned CommitResult reports full success or full failure.
func (s *PublishService) Publish(ctx context.Context, course *model.Course, opts PublishOptions) (model.CommitResult, error) {
	var (
		doc *model.DraftDocument
		err error
	)
	if opts.FromApproval {
		doc, err = s.drafts.ApprovalSnapshot(ctx, course.ID)
	} else {
		doc, err = s.drafts.Get(ctx, course)
	}
	if err != nil {
		return model.CommitResult{CourseID: course.ID}, err
	}

	if result := outline.Validate(doc); !result.Valid {
		return model.CommitResult{CourseID: course.ID, Errors: result.Errors}, nil
	}

	if err := s.promoteAssets(ctx, course.ID, doc); err != nil {
		return model.CommitResult{CourseID: course.ID}, err
	}

	result := s.engine.Commit(ctx, course.ID, doc, commit.Options{Publish: true})
	if !result.Success {
		s.events.Publish(ctx, EventCommitFailed, course.ID, result.Errors)
		return result, nil
	}

	s.drafts.Invalidate(ctx, course.ID)
	s.events.Publish(ctx, EventCoursePublished, course.ID, outline.Collect(doc))
	s.log.Info().Int64("course_id", course.ID).Bool("from_approval", opts.FromApproval).Msg("course published")
	return result, nil
}

// promoteAssets relocates draft-area files into production storage and
// rewrites the document's URLs in place.
func (s *PublishService) promoteAssets(ctx context.Context, courseID int64, doc *model.DraftDocument) error {
	urls := assets.CollectDraftURLs(doc, s.cfg.DraftAssetPrefix)
	if len(urls) == 0 {
		return nil
	}

	pairs, err := s.promoter.Promote(ctx, courseID, urls)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrAssetPromotion, err)
	}

	assets.RewriteURLs(doc, pairs)
	s.log.Debug().Int64("course_id", courseID).Int("assets", len(pairs)).Msg("draft assets promoted")
	return nil
}
