package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alex-l-clark/task-manager/internal/models"
	"github.com/alex-l-clark/task-manager/internal/store"
)

// TaskService is the slice of TaskStore the handlers consume.
type TaskService interface {
	ListTasksForUser(username string) []models.Task
	GetTasksByStatus(status models.Status, username string) []models.Task
	GetTaskByID(id, username string) (models.Task, error)
	CreateTask(ctx context.Context, username, title string) (models.Task, error)
	UpdateTask(ctx context.Context, id, username string, patch store.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, id, username string) (bool, error)
}

type TaskHandler struct {
	taskService TaskService
}

func NewTaskHandler(taskService TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// currentUsername reads the username set by the auth middleware.
func currentUsername(c *gin.Context) (string, bool) {
	value, exists := c.Get("username")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return "", false
	}
	username, ok := value.(string)
	if !ok || username == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid username in context"})
		return "", false
	}
	return username, true
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}

	var taskInput struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&taskInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), username, taskInput.Title)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.Status(statusStr)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task status"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tasks": h.taskService.GetTasksByStatus(status, username)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": h.taskService.ListTasksForUser(username)})
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTaskByID(c.Param("id"), username)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}

	var taskInput struct {
		Title  *string `json:"title"`
		Status *string `json:"status"`
	}
	if err := c.ShouldBindJSON(&taskInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := store.TaskPatch{Title: taskInput.Title}
	if taskInput.Status != nil {
		status := models.Status(*taskInput.Status)
		patch.Status = &status
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), c.Param("id"), username, patch)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}

	deleted, err := h.taskService.DeleteTask(c.Request.Context(), c.Param("id"), username)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

func handleTaskError(c *gin.Context, err error) {
	var validationErr *store.ValidationError
	var persistenceErr *store.PersistenceError

	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.As(err, &persistenceErr):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": "Failed to persist changes",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process task request"})
	}
}
