package store

import (
	"context"
	"testing"
	"time"

	"github.com/alex-l-clark/task-manager/internal/models"
	"github.com/alex-l-clark/task-manager/internal/storage"
)

func newTestTaskStore(t *testing.T) (*TaskStore, *storage.MemoryBlob) {
	t.Helper()
	blob := storage.NewMemoryBlob()
	s, err := NewTaskStore(context.Background(), blob)
	if err != nil {
		t.Fatalf("Failed to create task store: %v", err)
	}
	return s, blob
}

func TestCreateTask(t *testing.T) {
	s, _ := newTestTaskStore(t)

	task, err := s.CreateTask(context.Background(), "alice", "Buy milk")
	if err != nil {
		t.Fatalf("CreateTask returned error: %v", err)
	}

	if task.ID == "" {
		t.Error("Expected non-empty task ID")
	}
	if task.Username != "alice" {
		t.Errorf("Expected username 'alice', got %q", task.Username)
	}
	if task.Title != "Buy milk" {
		t.Errorf("Expected title 'Buy milk', got %q", task.Title)
	}
	if task.Status != models.StatusPending {
		t.Errorf("Expected status 'pending', got %q", task.Status)
	}
	if !task.CreatedAt.Equal(task.UpdatedAt) {
		t.Errorf("Expected createdAt == updatedAt, got %v and %v", task.CreatedAt, task.UpdatedAt)
	}
}

func TestCreateTask_TrimsTitle(t *testing.T) {
	s, _ := newTestTaskStore(t)

	task, err := s.CreateTask(context.Background(), "alice", "  Buy milk  ")
	if err != nil {
		t.Fatalf("CreateTask returned error: %v", err)
	}
	if task.Title != "Buy milk" {
		t.Errorf("Expected trimmed title 'Buy milk', got %q", task.Title)
	}
}

func TestCreateTask_EmptyTitle(t *testing.T) {
	s, _ := newTestTaskStore(t)

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := s.CreateTask(context.Background(), "alice", title)
		var validationErr *ValidationError
		if !asValidation(err, &validationErr) {
			t.Errorf("Expected validation error for title %q, got %v", title, err)
		}
	}
}

func TestCreateTask_UniqueIDs(t *testing.T) {
	s, _ := newTestTaskStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		task, err := s.CreateTask(context.Background(), "alice", "Task")
		if err != nil {
			t.Fatalf("CreateTask returned error: %v", err)
		}
		if seen[task.ID] {
			t.Fatalf("Duplicate task ID %q", task.ID)
		}
		seen[task.ID] = true
	}
}

func TestListTasksForUser_Scoping(t *testing.T) {
	s, _ := newTestTaskStore(t)

	first, _ := s.CreateTask(context.Background(), "alice", "First")
	second, _ := s.CreateTask(context.Background(), "alice", "Second")
	s.CreateTask(context.Background(), "bob", "Bob's task")

	tasks := s.ListTasksForUser("alice")
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks for alice, got %d", len(tasks))
	}
	// Insertion order is preserved.
	if tasks[0].ID != first.ID || tasks[1].ID != second.ID {
		t.Error("Expected tasks in insertion order")
	}
	for _, task := range tasks {
		if task.Username != "alice" {
			t.Errorf("Expected only alice's tasks, got one owned by %q", task.Username)
		}
	}

	if tasks := s.ListTasksForUser("carol"); len(tasks) != 0 {
		t.Errorf("Expected empty list for unknown user, got %d tasks", len(tasks))
	}
}

func TestGetTaskByID_WrongOwner(t *testing.T) {
	s, _ := newTestTaskStore(t)

	task, _ := s.CreateTask(context.Background(), "alice", "Buy milk")

	if _, err := s.GetTaskByID(task.ID, "alice"); err != nil {
		t.Errorf("Expected owner to read the task, got %v", err)
	}
	if _, err := s.GetTaskByID(task.ID, "bob"); err != ErrTaskNotFound {
		t.Errorf("Expected ErrTaskNotFound for wrong owner, got %v", err)
	}
	if _, err := s.GetTaskByID("no-such-id", "alice"); err != ErrTaskNotFound {
		t.Errorf("Expected ErrTaskNotFound for unknown id, got %v", err)
	}
}

func TestGetTasksByStatus(t *testing.T) {
	s, _ := newTestTaskStore(t)

	task, _ := s.CreateTask(context.Background(), "alice", "Buy milk")
	s.CreateTask(context.Background(), "alice", "Walk dog")
	s.CreateTask(context.Background(), "bob", "Bob's task")

	completed := models.StatusCompleted
	if _, err := s.UpdateTask(context.Background(), task.ID, "alice", TaskPatch{Status: &completed}); err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}

	done := s.GetTasksByStatus(models.StatusCompleted, "alice")
	if len(done) != 1 || done[0].ID != task.ID {
		t.Errorf("Expected exactly the completed task, got %d tasks", len(done))
	}

	pending := s.GetTasksByStatus(models.StatusPending, "alice")
	if len(pending) != 1 {
		t.Errorf("Expected 1 pending task for alice, got %d", len(pending))
	}
}

func TestUpdateTask_AdvancesUpdatedAt(t *testing.T) {
	s, _ := newTestTaskStore(t)

	task, err := s.CreateTask(context.Background(), "alice", "Buy milk")
	if err != nil {
		t.Fatalf("CreateTask returned error: %v", err)
	}

	completed := models.StatusCompleted
	updated, err := s.UpdateTask(context.Background(), task.ID, "alice", TaskPatch{Status: &completed})
	if err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}

	if updated.Status != models.StatusCompleted {
		t.Errorf("Expected status 'completed', got %q", updated.Status)
	}
	if !updated.UpdatedAt.After(task.UpdatedAt) {
		t.Errorf("Expected updatedAt to strictly advance: %v -> %v", task.UpdatedAt, updated.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(task.CreatedAt) {
		t.Errorf("Expected createdAt unchanged: %v -> %v", task.CreatedAt, updated.CreatedAt)
	}
}

func TestUpdateTask_FrozenClockStillAdvances(t *testing.T) {
	s, _ := newTestTaskStore(t)

	frozen := time.Now()
	s.now = func() time.Time { return frozen }

	task, _ := s.CreateTask(context.Background(), "alice", "Buy milk")
	completed := models.StatusCompleted
	updated, err := s.UpdateTask(context.Background(), task.ID, "alice", TaskPatch{Status: &completed})
	if err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}
	if !updated.UpdatedAt.After(task.UpdatedAt) {
		t.Error("Expected updatedAt to advance even with a frozen clock")
	}
}

func TestUpdateTask_PartialPatch(t *testing.T) {
	s, _ := newTestTaskStore(t)

	task, _ := s.CreateTask(context.Background(), "alice", "Buy milk")

	title := "Buy oat milk"
	updated, err := s.UpdateTask(context.Background(), task.ID, "alice", TaskPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}
	if updated.Title != "Buy oat milk" {
		t.Errorf("Expected updated title, got %q", updated.Title)
	}
	if updated.Status != models.StatusPending {
		t.Errorf("Expected status untouched by title-only patch, got %q", updated.Status)
	}
	if updated.ID != task.ID || updated.Username != task.Username {
		t.Error("Expected id and username to be immutable")
	}
}

func TestUpdateTask_InvalidPatch(t *testing.T) {
	s, _ := newTestTaskStore(t)

	task, _ := s.CreateTask(context.Background(), "alice", "Buy milk")

	empty := "   "
	_, err := s.UpdateTask(context.Background(), task.ID, "alice", TaskPatch{Title: &empty})
	var validationErr *ValidationError
	if !asValidation(err, &validationErr) {
		t.Errorf("Expected validation error for empty title patch, got %v", err)
	}

	bogus := models.Status("done")
	_, err = s.UpdateTask(context.Background(), task.ID, "alice", TaskPatch{Status: &bogus})
	if !asValidation(err, &validationErr) {
		t.Errorf("Expected validation error for invalid status, got %v", err)
	}
}

func TestUpdateTask_WrongOwnerLeavesTaskUnchanged(t *testing.T) {
	s, _ := newTestTaskStore(t)

	task, _ := s.CreateTask(context.Background(), "alice", "Buy milk")

	completed := models.StatusCompleted
	if _, err := s.UpdateTask(context.Background(), task.ID, "bob", TaskPatch{Status: &completed}); err != ErrTaskNotFound {
		t.Errorf("Expected ErrTaskNotFound for wrong owner, got %v", err)
	}

	got, err := s.GetTaskByID(task.ID, "alice")
	if err != nil {
		t.Fatalf("Task disappeared after wrong-owner update: %v", err)
	}
	if got.Status != models.StatusPending || !got.UpdatedAt.Equal(task.UpdatedAt) {
		t.Error("Expected task unchanged after wrong-owner update")
	}
}

func TestDeleteTask(t *testing.T) {
	s, _ := newTestTaskStore(t)

	task, _ := s.CreateTask(context.Background(), "alice", "Buy milk")

	deleted, err := s.DeleteTask(context.Background(), task.ID, "alice")
	if err != nil {
		t.Fatalf("DeleteTask returned error: %v", err)
	}
	if !deleted {
		t.Error("Expected delete to report true")
	}
	if _, err := s.GetTaskByID(task.ID, "alice"); err != ErrTaskNotFound {
		t.Error("Expected task to be gone after delete")
	}
}

func TestDeleteTask_WrongOwner(t *testing.T) {
	s, _ := newTestTaskStore(t)

	task, _ := s.CreateTask(context.Background(), "alice", "Buy milk")

	deleted, err := s.DeleteTask(context.Background(), task.ID, "bob")
	if err != nil {
		t.Fatalf("DeleteTask returned error: %v", err)
	}
	if deleted {
		t.Error("Expected delete with wrong owner to report false")
	}
	if _, err := s.GetTaskByID(task.ID, "alice"); err != nil {
		t.Errorf("Expected task to survive wrong-owner delete, got %v", err)
	}
}

func TestDeleteTask_Missing(t *testing.T) {
	s, blob := newTestTaskStore(t)

	s.CreateTask(context.Background(), "alice", "Buy milk")
	before, err := blob.Load(context.Background(), storage.KeyTasks)
	if err != nil {
		t.Fatalf("Failed to read tasks blob: %v", err)
	}

	deleted, err := s.DeleteTask(context.Background(), "no-such-id", "alice")
	if err != nil {
		t.Fatalf("DeleteTask returned error: %v", err)
	}
	if deleted {
		t.Error("Expected delete of missing task to report false")
	}

	after, err := blob.Load(context.Background(), storage.KeyTasks)
	if err != nil {
		t.Fatalf("Failed to read tasks blob: %v", err)
	}
	if string(before) != string(after) {
		t.Error("Expected persisted list untouched by a no-op delete")
	}
}

func TestNewTaskStore_CorruptTimestampsRehydrate(t *testing.T) {
	blob := storage.NewMemoryBlob()
	raw := `[{"id":"t1","username":"alice","title":"Buy milk","status":"pending","createdAt":"not-a-date","updatedAt":""}]`
	if err := blob.Save(context.Background(), storage.KeyTasks, []byte(raw)); err != nil {
		t.Fatalf("Failed to seed tasks blob: %v", err)
	}

	before := time.Now()
	s, err := NewTaskStore(context.Background(), blob)
	if err != nil {
		t.Fatalf("Failed to create task store: %v", err)
	}

	tasks := s.ListTasksForUser("alice")
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(tasks))
	}
	if tasks[0].CreatedAt.Before(before) || tasks[0].UpdatedAt.Before(before) {
		t.Error("Expected corrupt timestamps to rehydrate to load time")
	}
}
