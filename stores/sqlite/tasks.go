package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sirupsen/logrus"

	"sharedlists/core"
)

const taskColumns = "id, list_id, content, completed, created_at"

func (s *sqliteStore) InsertTask(ctx context.Context, task *core.Task) error {
	log := logrus.WithField("list_id", task.ListID)

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireList(ctx, tx, task.ListID); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx,
			"INSERT INTO tasks (list_id, content, completed, created_at) VALUES (?, ?, ?, ?)",
			task.ListID, task.Content, task.Completed, toUnix(task.CreatedAt))
		if err != nil {
			return err
		}
		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to create task")
		return err
	}
	task.ID = id
	log.WithField("task_id", id).Info("Task created successfully")
	return nil
}

func (s *sqliteStore) GetTask(ctx context.Context, id int64) (*core.Task, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logrus.WithField("task_id", id).Debug("Task not found")
			return nil, nil
		}
		logrus.WithField("task_id", id).WithError(err).Error("Failed to retrieve task")
		return nil, err
	}
	return task, nil
}

func (s *sqliteStore) ListTasks(ctx context.Context, listID int64) ([]core.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE list_id = ? ORDER BY completed, created_at, id", listID)
	if err != nil {
		logrus.WithField("list_id", listID).WithError(err).Error("Failed to list tasks")
		return nil, err
	}
	defer rows.Close()

	tasks := []core.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// UpdateTask leaves columns whose patch field is nil untouched.
func (s *sqliteStore) UpdateTask(ctx context.Context, id int64, patch core.TaskPatch) (*core.Task, error) {
	log := logrus.WithField("task_id", id)

	var content, completed any
	if patch.Content != nil {
		content = *patch.Content
	}
	if patch.Completed != nil {
		completed = *patch.Completed
	}

	var task *core.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE tasks SET content = COALESCE(?, content), completed = COALESCE(?, completed) WHERE id = ?",
			content, completed, id)
		if err != nil {
			return err
		}
		if n, err := result.RowsAffected(); err != nil || n == 0 {
			return err
		}
		task, err = scanTask(tx.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id))
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to update task")
		return nil, err
	}
	if task != nil {
		log.Info("Task updated successfully")
	}
	return task, nil
}

func (s *sqliteStore) DeleteTask(ctx context.Context, id int64) (bool, error) {
	log := logrus.WithField("task_id", id)

	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		log.WithError(err).Error("Failed to delete task")
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		log.Info("Task deleted successfully")
	}
	return n > 0, nil
}
