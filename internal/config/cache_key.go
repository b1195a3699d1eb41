package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AuthorSessionKey returns the cache key for an author's login session.
func (r *CacheKeyStruct) AuthorSessionKey(authorID int64) string {
	return fmt.Sprintf("login:%d", authorID)
}

// CourseDraftKey returns the cache key for a course's staged draft.
func (r *CacheKeyStruct) CourseDraftKey(courseID int64) string {
	return fmt.Sprintf("course:%d:draft", courseID)
}

// CourseApprovalDraftKey returns the cache key for the draft snapshot frozen
// when an approval request was raised.
func (r *CacheKeyStruct) CourseApprovalDraftKey(courseID int64) string {
	return fmt.Sprintf("course:%d:approval_draft", courseID)
}

// CourseEventsChannel returns the Redis PubSub channel for a course's draft
// and publish events.
func (r *CacheKeyStruct) CourseEventsChannel(courseID int64) string {
	return fmt.Sprintf("course:%d:events", courseID)
}

var CacheKey = NewCacheKeyStruct()
