package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/courseloom/courseloom-backend/internal/config"
)

// Course event types fanned out to connected editor sessions.
const (
	EventDraftSaved        = "draft.saved"
	EventApprovalRequested = "approval.requested"
	EventCoursePublished   = "course.published"
	EventCommitFailed      = "commit.failed"
)

// CourseEvent is published on the per-course Redis channel and relayed to
// WebSocket subscribers.
type CourseEvent struct {
	Type     string      `json:"type"`
	CourseID int64       `json:"course_id"`
	At       time.Time   `json:"at"`
	Payload  interface{} `json:"payload,omitempty"`
}

// EventPublisher fans course events out over Redis pub/sub.
type EventPublisher struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewEventPublisher creates an EventPublisher.
func NewEventPublisher(rdb *redis.Client, log zerolog.Logger) *EventPublisher {
	return &EventPublisher{rdb: rdb, log: log.With().Str("component", "events").Logger()}
}

// Publish sends an event on the course channel. Failures are logged but not
// propagated; events are advisory and must never fail a write path.
func (p *EventPublisher) Publish(ctx context.Context, eventType string, courseID int64, payload interface{}) {
	ev := CourseEvent{Type: eventType, CourseID: courseID, At: time.Now().UTC(), Payload: payload}

	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Error().Err(err).Str("event", eventType).Msg("marshal course event")
		return
	}

	channel := config.CacheKey.CourseEventsChannel(courseID)
	if err := p.rdb.Publish(ctx, channel, data).Err(); err != nil {
		p.log.Warn().Err(err).Str("channel", channel).Msg("publish course event")
	}
}
