package core

import (
	"context"
	"time"
)

type (
	Task struct {
		ID        int64     `json:"id"`
		ListID    int64     `json:"list_id"`
		Content   string    `json:"content"`
		Completed bool      `json:"completed"`
		CreatedAt time.Time `json:"created_at"`
	}

	// TaskPatch is a partial update: nil fields keep their stored value.
	TaskPatch struct {
		Content   *string `json:"content,omitempty"`
		Completed *bool   `json:"completed,omitempty"`
	}

	TaskStore interface {
		// InsertTask stores a task and assigns task.ID. It fails with
		// ErrListNotFound when the list does not exist.
		InsertTask(ctx context.Context, task *Task) error
		GetTask(ctx context.Context, id int64) (*Task, error)
		ListTasks(ctx context.Context, listID int64) ([]Task, error)
		UpdateTask(ctx context.Context, id int64, patch TaskPatch) (*Task, error)
		DeleteTask(ctx context.Context, id int64) (bool, error)
	}
)

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Content == nil && p.Completed == nil
}

// Apply returns t with the patch's set fields applied.
func (p TaskPatch) Apply(t Task) Task {
	if p.Content != nil {
		t.Content = *p.Content
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}
