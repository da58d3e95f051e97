package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alex-l-clark/task-manager/internal/models"
	"github.com/alex-l-clark/task-manager/internal/session"
	"github.com/alex-l-clark/task-manager/internal/store"
)

// UserService is the slice of UserStore the auth handlers consume.
type UserService interface {
	Register(ctx context.Context, username, password string) (models.AuthResult, error)
	Login(username, password string) models.AuthResult
}

// SessionService is the slice of session.Manager the auth handlers consume.
type SessionService interface {
	Current(ctx context.Context) (string, error)
	Begin(ctx context.Context, username string) error
	End(ctx context.Context) error
	IssueToken(username string) (string, error)
}

type AuthHandler struct {
	userService    UserService
	sessionService SessionService
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	models.AuthResult
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
}

func NewAuthHandler(userService UserService, sessionService SessionService) *AuthHandler {
	return &AuthHandler{userService: userService, sessionService: sessionService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request format",
		})
		return
	}

	result, err := h.userService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		log.Printf("registration failed for %q: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": "Failed to persist changes",
		})
		return
	}
	if !result.Success {
		c.JSON(authFailureStatus(result.Message), result)
		return
	}

	h.respondAuthenticated(c, http.StatusCreated, result)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request format",
		})
		return
	}

	result := h.userService.Login(req.Username, req.Password)
	if !result.Success {
		c.JSON(authFailureStatus(result.Message), result)
		return
	}

	h.respondAuthenticated(c, http.StatusOK, result)
}

// respondAuthenticated persists the session blob and returns the result
// with a freshly issued access token.
func (h *AuthHandler) respondAuthenticated(c *gin.Context, status int, result models.AuthResult) {
	if err := h.sessionService.Begin(c.Request.Context(), result.User.Username); err != nil {
		log.Printf("failed to save session for %q: %v", result.User.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": "Failed to persist changes",
		})
		return
	}

	token, err := h.sessionService.IssueToken(result.User.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "token_generation_failed",
			"message": "Failed to generate authentication token",
		})
		return
	}

	c.JSON(status, authResponse{
		AuthResult:  result,
		AccessToken: token,
		TokenType:   "Bearer",
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessionService.End(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": "Failed to clear session",
		})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// Session restores the active session from the currentUser blob, the
// startup path of the original application.
func (h *AuthHandler) Session(c *gin.Context) {
	username, err := h.sessionService.Current(c.Request.Context())
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": "Failed to read session",
		})
		return
	}

	token, err := h.sessionService.IssueToken(username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "token_generation_failed",
			"message": "Failed to generate authentication token",
		})
		return
	}

	c.JSON(http.StatusOK, authResponse{
		AuthResult: models.AuthResult{
			Success: true,
			Message: store.MsgLoginSuccess,
			User:    &models.User{Username: username},
		},
		AccessToken: token,
		TokenType:   "Bearer",
	})
}

// authFailureStatus maps an unsuccessful AuthResult message to an HTTP
// status. The messages are contractually fixed strings (see the store
// package), so this mapping is exhaustive.
func authFailureStatus(message string) int {
	switch message {
	case store.MsgUsernameTaken:
		return http.StatusConflict
	case store.MsgInvalidUsername:
		return http.StatusNotFound
	case store.MsgInvalidPassword:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}
