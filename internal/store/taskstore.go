// Package store holds the two authoritative data managers: TaskStore for
// tasks and UserStore for accounts. Each keeps its full state in memory,
// loads it whole from a blob at construction, and rewrites the whole blob
// after every mutation.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/alex-l-clark/task-manager/internal/models"
	"github.com/alex-l-clark/task-manager/internal/storage"
)

// TaskPatch names the mutable task fields for partial updates. Nil fields
// are left untouched; id, username and createdAt cannot be patched.
type TaskPatch struct {
	Title  *string
	Status *models.Status
}

// TaskStore owns the task list for all users. Every read and write is
// scoped by the owning username; a task reached with the wrong username
// behaves exactly like a missing one.
type TaskStore struct {
	mu    sync.RWMutex
	blob  storage.Blob
	tasks []models.Task
	now   func() time.Time
}

// taskRecord is the blob wire form of a task. Timestamps travel as
// RFC 3339 strings and rehydrate leniently: absent or corrupt values fall
// back to the load time instead of failing the whole blob.
type taskRecord struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func NewTaskStore(ctx context.Context, blob storage.Blob) (*TaskStore, error) {
	s := &TaskStore{blob: blob, now: time.Now}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *TaskStore) load(ctx context.Context) error {
	data, err := s.blob.Load(ctx, storage.KeyTasks)
	if err != nil {
		if err == storage.ErrKeyNotFound {
			s.tasks = nil
			return nil
		}
		return &PersistenceError{Op: "task load", Err: err}
	}

	var records []taskRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return &PersistenceError{Op: "task load", Err: err}
	}

	loadedAt := s.now()
	tasks := make([]models.Task, 0, len(records))
	for _, rec := range records {
		tasks = append(tasks, models.Task{
			ID:        rec.ID,
			Username:  rec.Username,
			Title:     rec.Title,
			Status:    models.Status(rec.Status),
			CreatedAt: parseTime(rec.CreatedAt, loadedAt),
			UpdatedAt: parseTime(rec.UpdatedAt, loadedAt),
		})
	}
	s.tasks = tasks
	return nil
}

func parseTime(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return fallback
	}
	return t
}

// persist serializes the whole task list. Called with the write lock held.
func (s *TaskStore) persist(ctx context.Context) error {
	records := make([]taskRecord, 0, len(s.tasks))
	for _, task := range s.tasks {
		records = append(records, taskRecord{
			ID:        task.ID,
			Username:  task.Username,
			Title:     task.Title,
			Status:    string(task.Status),
			CreatedAt: task.CreatedAt.Format(time.RFC3339Nano),
			UpdatedAt: task.UpdatedAt.Format(time.RFC3339Nano),
		})
	}

	data, err := json.Marshal(records)
	if err != nil {
		return &PersistenceError{Op: "task list", Err: err}
	}
	if err := s.blob.Save(ctx, storage.KeyTasks, data); err != nil {
		return &PersistenceError{Op: "task list", Err: err}
	}
	return nil
}

// indexOf returns the position of the task matching both id and username,
// or -1. Called with at least the read lock held.
func (s *TaskStore) indexOf(id, username string) int {
	for i, task := range s.tasks {
		if task.ID == id && task.Username == username {
			return i
		}
	}
	return -1
}

// ListTasksForUser returns the user's tasks in storage order.
func (s *TaskStore) ListTasksForUser(username string) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]models.Task, 0)
	for _, task := range s.tasks {
		if task.Username == username {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

func (s *TaskStore) GetTaskByID(id, username string) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id, username); i >= 0 {
		return s.tasks[i], nil
	}
	return models.Task{}, ErrTaskNotFound
}

func (s *TaskStore) GetTasksByStatus(status models.Status, username string) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]models.Task, 0)
	for _, task := range s.tasks {
		if task.Username == username && task.Status == status {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

// CreateTask appends a new pending task for username and persists the
// list. The title is trimmed and must be non-empty.
func (s *TaskStore) CreateTask(ctx context.Context, username, title string) (models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Task{}, &ValidationError{Message: "task title is required"}
	}

	id, err := uuid.NewV4()
	if err != nil {
		return models.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	task := models.Task{
		ID:        id.String(),
		Username:  username,
		Title:     title,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.tasks = append(s.tasks, task)
	if err := s.persist(ctx); err != nil {
		s.tasks = s.tasks[:len(s.tasks)-1]
		return models.Task{}, err
	}
	return task, nil
}

// UpdateTask merges patch into the task matching id and username and
// persists the list. UpdatedAt strictly advances on every success.
func (s *TaskStore) UpdateTask(ctx context.Context, id, username string, patch TaskPatch) (models.Task, error) {
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if trimmed == "" {
			return models.Task{}, &ValidationError{Message: "task title is required"}
		}
		patch.Title = &trimmed
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return models.Task{}, &ValidationError{Message: "invalid task status"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id, username)
	if i < 0 {
		return models.Task{}, ErrTaskNotFound
	}

	prev := s.tasks[i]
	updated := prev
	if patch.Title != nil {
		updated.Title = *patch.Title
	}
	if patch.Status != nil {
		updated.Status = *patch.Status
	}

	now := s.now()
	if !now.After(prev.UpdatedAt) {
		// Clock reads on the same instant must still advance updatedAt.
		now = prev.UpdatedAt.Add(time.Nanosecond)
	}
	updated.UpdatedAt = now

	s.tasks[i] = updated
	if err := s.persist(ctx); err != nil {
		s.tasks[i] = prev
		return models.Task{}, err
	}
	return updated, nil
}

// DeleteTask removes the task matching id and username and persists the
// list. A missing or wrong-owner task returns false with no error.
func (s *TaskStore) DeleteTask(ctx context.Context, id, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id, username)
	if i < 0 {
		return false, nil
	}

	prev := s.tasks
	remaining := make([]models.Task, 0, len(prev)-1)
	remaining = append(remaining, prev[:i]...)
	remaining = append(remaining, prev[i+1:]...)

	s.tasks = remaining
	if err := s.persist(ctx); err != nil {
		s.tasks = prev
		return false, err
	}
	return true, nil
}
