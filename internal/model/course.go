package model

import (
	"encoding/json"
	"time"
)

// Course represents a course row. StagedDraft holds the opaque draft blob
// between edit sessions; it is cleared inside the commit transaction.
type Course struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CategoryID  *int64          `json:"category_id,omitempty"`
	OwnerID     int64           `json:"owner_id"`
	StagedDraft json.RawMessage `json:"staged_draft,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
}

// CreateCourseRequest is the payload for creating an empty course shell.
// Content arrives later through the draft workflow.
type CreateCourseRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=255"`
	Description string `json:"description" binding:"omitempty,max=4000"`
	CategoryID  *int64 `json:"category_id" binding:"omitempty,gt=0"`
}

// CommitResult is the outcome of applying a draft to storage: full success or
// full failure with the prior state untouched.
type CommitResult struct {
	Success  bool     `json:"success"`
	CourseID int64    `json:"course_id"`
	Errors   []string `json:"errors,omitempty"`
}
