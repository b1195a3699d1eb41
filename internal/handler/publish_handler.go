package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courseloom/courseloom-backend/internal/response"
	"github.com/courseloom/courseloom-backend/internal/service"
)

type PublishHandler struct {
	courseService  *service.CourseService
	draftService   *service.DraftService
	publishService *service.PublishService
}

func NewPublishHandler(courseService *service.CourseService, draftService *service.DraftService, publishService *service.PublishService) *PublishHandler {
	return &PublishHandler{
		courseService:  courseService,
		draftService:   draftService,
		publishService: publishService,
	}
}

// RequestApproval godoc
// POST /api/v1/courses/:id/request-approval
func (h *PublishHandler) RequestApproval(c *gin.Context) {
	course, ok := resolveOwnedCourse(c, h.courseService)
	if !ok {
		return
	}

	result, err := h.draftService.RequestApproval(c.Request.Context(), course)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrCodeInternal)
		return
	}
	if !result.Valid {
		response.FailWithDetails(c, http.StatusUnprocessableEntity, response.ErrCodeDraftInvalid, result.Errors)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"validation": result})
}

// Publish godoc
// POST /api/v1/courses/:id/publish
//
// Query param from_approval=true commits the frozen approval snapshot
// instead of the live staged draft.
func (h *PublishHandler) Publish(c *gin.Context) {
	course, ok := resolveOwnedCourse(c, h.courseService)
	if !ok {
		return
	}

	opts := service.PublishOptions{FromApproval: c.Query("from_approval") == "true"}

	result, err := h.publishService.Publish(c.Request.Context(), course, opts)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoApprovalSnapshot):
			response.Fail(c, http.StatusNotFound, response.ErrCodeApprovalNotFound)
		case errors.Is(err, service.ErrDraftMalformed):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrCodeDraftMalformed)
		case errors.Is(err, service.ErrDraftVersion):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrCodeDraftVersion)
		case errors.Is(err, service.ErrAssetPromotion):
			response.Fail(c, http.StatusBadGateway, response.ErrCodeAssetPromotion)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrCodeInternal)
		}
		return
	}

	if !result.Success {
		if len(result.Errors) > 0 {
			response.FailWithDetails(c, http.StatusUnprocessableEntity, response.ErrCodeCommitFailed, result.Errors)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrCodeCommitFailed)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}
