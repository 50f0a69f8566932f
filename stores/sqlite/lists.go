package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sirupsen/logrus"

	"sharedlists/core"
)

func (s *sqliteStore) InsertList(ctx context.Context, list *core.List, owner *core.Grant) error {
	log := logrus.WithFields(logrus.Fields{"owner_id": list.OwnerID, "title": list.Title})

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"INSERT INTO lists (title, owner_id, created_at) VALUES (?, ?, ?)",
			list.Title, list.OwnerID, toUnix(list.CreatedAt))
		if err != nil {
			return err
		}
		id, err = result.LastInsertId()
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO list_shares (list_id, user_id, permission, shared_at) VALUES (?, ?, ?, ?)",
			id, owner.UserID, owner.Permission.String(), toUnix(owner.SharedAt))
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to create list")
		return err
	}

	list.ID = id
	owner.ListID = id
	log.WithField("list_id", id).Info("List created successfully")
	return nil
}

func (s *sqliteStore) GetList(ctx context.Context, id int64) (*core.List, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, title, owner_id, created_at FROM lists WHERE id = ?", id)
	list, err := scanList(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logrus.WithField("list_id", id).Debug("List not found")
			return nil, nil
		}
		logrus.WithField("list_id", id).WithError(err).Error("Failed to retrieve list")
		return nil, err
	}
	return list, nil
}

func (s *sqliteStore) ListsForUser(ctx context.Context, userID string) ([]core.MemberList, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.title, l.owner_id, l.created_at, ls.permission
		FROM lists l
		JOIN list_shares ls ON l.id = ls.list_id
		WHERE ls.user_id = ?
		ORDER BY l.created_at DESC, l.id DESC`, userID)
	if err != nil {
		logrus.WithField("user_id", userID).WithError(err).Error("Failed to list lists")
		return nil, err
	}
	defer rows.Close()

	lists := []core.MemberList{}
	for rows.Next() {
		var m core.MemberList
		var createdAt int64
		var permission string
		if err := rows.Scan(&m.ID, &m.Title, &m.OwnerID, &createdAt, &permission); err != nil {
			return nil, err
		}
		if m.Permission, err = core.ParsePermission(permission); err != nil {
			return nil, err
		}
		m.CreatedAt = fromUnix(createdAt)
		lists = append(lists, m)
	}
	return lists, rows.Err()
}

func (s *sqliteStore) UpdateListTitle(ctx context.Context, id int64, title string) (*core.List, error) {
	log := logrus.WithField("list_id", id)

	var list *core.List
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "UPDATE lists SET title = ? WHERE id = ?", title, id)
		if err != nil {
			return err
		}
		if n, err := result.RowsAffected(); err != nil || n == 0 {
			return err
		}
		list, err = scanList(tx.QueryRowContext(ctx, "SELECT id, title, owner_id, created_at FROM lists WHERE id = ?", id))
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to rename list")
		return nil, err
	}
	if list != nil {
		log.Info("List renamed successfully")
	}
	return list, nil
}

// DeleteListCascade deletes children explicitly. The schema's ON DELETE
// CASCADE clauses only back this up.
func (s *sqliteStore) DeleteListCascade(ctx context.Context, id int64) (bool, error) {
	log := logrus.WithField("list_id", id)

	var deleted bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE list_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM list_shares WHERE list_id = ?", id); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, "DELETE FROM lists WHERE id = ?", id)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		deleted = n > 0
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to delete list")
		return false, err
	}
	if deleted {
		log.Info("List deleted successfully")
	}
	return deleted, nil
}
