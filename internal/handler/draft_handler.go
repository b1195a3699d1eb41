package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courseloom/courseloom-backend/internal/response"
	"github.com/courseloom/courseloom-backend/internal/service"
)

// maxDraftBytes bounds the accepted draft payload size (4 MiB).
const maxDraftBytes = 4 << 20

type DraftHandler struct {
	courseService *service.CourseService
	draftService  *service.DraftService
}

func NewDraftHandler(courseService *service.CourseService, draftService *service.DraftService) *DraftHandler {
	return &DraftHandler{courseService: courseService, draftService: draftService}
}

// Get godoc
// GET /api/v1/courses/:id/draft
func (h *DraftHandler) Get(c *gin.Context) {
	course, ok := resolveOwnedCourse(c, h.courseService)
	if !ok {
		return
	}

	doc, err := h.draftService.Get(c.Request.Context(), course)
	if err != nil {
		h.failDraft(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"draft": doc})
}

// Save godoc
// PUT /api/v1/courses/:id/draft
func (h *DraftHandler) Save(c *gin.Context) {
	course, ok := resolveOwnedCourse(c, h.courseService)
	if !ok {
		return
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDraftBytes+1))
	if err != nil || len(raw) == 0 || len(raw) > maxDraftBytes {
		response.Fail(c, http.StatusBadRequest, response.ErrCodeBadRequest)
		return
	}

	doc, err := h.draftService.Save(c.Request.Context(), course.ID, json.RawMessage(raw))
	if err != nil {
		h.failDraft(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"draft": doc})
}

// Validate godoc
// POST /api/v1/courses/:id/draft/validate
func (h *DraftHandler) Validate(c *gin.Context) {
	course, ok := resolveOwnedCourse(c, h.courseService)
	if !ok {
		return
	}

	result, err := h.draftService.Validate(c.Request.Context(), course)
	if err != nil {
		h.failDraft(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"validation": result})
}

// Stats godoc
// GET /api/v1/courses/:id/draft/stats
func (h *DraftHandler) Stats(c *gin.Context) {
	course, ok := resolveOwnedCourse(c, h.courseService)
	if !ok {
		return
	}

	stats, err := h.draftService.Stats(c.Request.Context(), course)
	if err != nil {
		h.failDraft(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}

func (h *DraftHandler) failDraft(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDraftMalformed):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrCodeDraftMalformed)
	case errors.Is(err, service.ErrDraftVersion):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrCodeDraftVersion)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrCodeInternal)
	}
}
