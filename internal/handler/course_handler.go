package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/courseloom/courseloom-backend/internal/middleware"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/response"
	"github.com/courseloom/courseloom-backend/internal/service"
	"github.com/courseloom/courseloom-backend/internal/validator"
)

type CourseHandler struct {
	courseService *service.CourseService
}

func NewCourseHandler(courseService *service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// List godoc
// GET /api/v1/courses
func (h *CourseHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)

	courses, err := h.courseService.ListOwned(c.Request.Context(), claims.AuthorID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrCodeInternal)
		return
	}
	if courses == nil {
		courses = []model.Course{}
	}
	response.Success(c, http.StatusOK, gin.H{"courses": courses})
}

// Create godoc
// POST /api/v1/courses
func (h *CourseHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateCourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrCodeValidation, fields)
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), claims.AuthorID, req)
	if err != nil {
		if errors.Is(err, service.ErrUnknownCategory) {
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrCodeCategoryNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrCodeInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"course": course})
}

// Get godoc
// GET /api/v1/courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
	course, ok := resolveOwnedCourse(c, h.courseService)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// Categories godoc
// GET /api/v1/categories
func (h *CourseHandler) Categories(c *gin.Context) {
	cats, err := h.courseService.Categories(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrCodeInternal)
		return
	}
	if cats == nil {
		cats = []model.Category{}
	}
	response.Success(c, http.StatusOK, gin.H{"categories": cats})
}

// Skills godoc
// GET /api/v1/skills
func (h *CourseHandler) Skills(c *gin.Context) {
	skills, err := h.courseService.Skills(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrCodeInternal)
		return
	}
	if skills == nil {
		skills = []model.Skill{}
	}
	response.Success(c, http.StatusOK, gin.H{"skills": skills})
}

// resolveOwnedCourse resolves the :id param to a course owned by the caller,
// writing the error response itself on failure.
func resolveOwnedCourse(c *gin.Context, svc *service.CourseService) (*model.Course, bool) {
	claims := middleware.GetClaims(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrCodeBadRequest)
		return nil, false
	}

	course, err := svc.GetOwned(c.Request.Context(), id, claims.AuthorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCourseNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrCodeCourseNotFound)
		case errors.Is(err, service.ErrNotCourseOwner):
			response.Fail(c, http.StatusForbidden, response.ErrCodeCourseNotYours)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrCodeInternal)
		}
		return nil, false
	}
	return course, true
}
