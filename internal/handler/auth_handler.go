package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courseloom/courseloom-backend/internal/middleware"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/response"
	"github.com/courseloom/courseloom-backend/internal/service"
	"github.com/courseloom/courseloom-backend/internal/validator"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrCodeValidation, fields)
		return
	}

	token, author, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrCodeInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrCodeInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":  token,
		"author": author,
	})
}

// Logout godoc
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrCodeUnauthorized)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.AuthorID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrCodeInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "signed out"})
}

// Me godoc
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrCodeUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"author_id": claims.AuthorID,
		"email":     claims.Email,
	})
}
