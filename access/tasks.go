package access

import (
	"context"
	"errors"
	"time"

	"sharedlists/core"
)

// TaskService reads with viewer access and writes with editor access on the
// task's list.
type TaskService struct {
	store core.Store
	eval  *Evaluator
	now   func() time.Time
}

func (s *TaskService) Create(ctx context.Context, listID int64, actorID, content string) (*core.Task, error) {
	content, err := requireText("content", content)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.eval.authorize(ctx, actorID, listID, core.PermissionEditor); err != nil {
		return nil, err
	}

	task := &core.Task{
		ListID:    listID,
		Content:   content,
		Completed: false,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertTask(ctx, task); err != nil {
		// The list may have been deleted since it was authorized.
		if errors.Is(err, core.ErrListNotFound) {
			return nil, listNotFound(listID)
		}
		return nil, err
	}
	return task, nil
}

// ListFor returns the tasks of a list: open tasks first, then completed ones,
// each group in creation order.
func (s *TaskService) ListFor(ctx context.Context, listID int64, actorID string) ([]core.Task, error) {
	if _, _, err := s.eval.authorize(ctx, actorID, listID, core.PermissionViewer); err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, listID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []core.Task{}
	}
	sortTasks(tasks)
	return tasks, nil
}

// Update applies a partial update. Fields left nil in patch keep their value;
// an empty patch returns the task unchanged.
func (s *TaskService) Update(ctx context.Context, taskID int64, actorID string, patch core.TaskPatch) (*core.Task, error) {
	if err := validateActor(actorID); err != nil {
		return nil, err
	}
	if err := validateID("task_id", taskID); err != nil {
		return nil, err
	}
	if patch.Content != nil {
		content, err := requireText("content", *patch.Content)
		if err != nil {
			return nil, err
		}
		patch.Content = &content
	}

	task, err := s.resolve(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return task, nil
	}

	updated, err := s.store.UpdateTask(ctx, taskID, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, taskNotFound(taskID)
	}
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, taskID int64, actorID string) error {
	if err := validateActor(actorID); err != nil {
		return err
	}
	if err := validateID("task_id", taskID); err != nil {
		return err
	}
	if _, err := s.resolve(ctx, taskID, actorID); err != nil {
		return err
	}

	deleted, err := s.store.DeleteTask(ctx, taskID)
	if err != nil {
		return err
	}
	if !deleted {
		return taskNotFound(taskID)
	}
	return nil
}

// resolve loads the task and checks editor access on its list. The task's
// existence is settled before the actor's rights are judged.
func (s *TaskService) resolve(ctx context.Context, taskID int64, actorID string) (*core.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, taskNotFound(taskID)
	}
	if _, _, err := s.eval.authorize(ctx, actorID, task.ListID, core.PermissionEditor); err != nil {
		return nil, err
	}
	return task, nil
}
