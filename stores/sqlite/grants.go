package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"sharedlists/core"
)

const grantColumns = "list_id, user_id, permission, shared_at"

func (s *sqliteStore) InsertGrant(ctx context.Context, grant *core.Grant) error {
	log := logrus.WithFields(logrus.Fields{
		"list_id":    grant.ListID,
		"user_id":    grant.UserID,
		"permission": grant.Permission.String(),
	})

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireList(ctx, tx, grant.ListID); err != nil {
			return err
		}
		var exists bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM list_shares WHERE list_id = ? AND user_id = ?)",
			grant.ListID, grant.UserID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("user %s on list %d: %w", grant.UserID, grant.ListID, core.ErrDuplicateGrant)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO list_shares (list_id, user_id, permission, shared_at) VALUES (?, ?, ?, ?)",
			grant.ListID, grant.UserID, grant.Permission.String(), toUnix(grant.SharedAt))
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to share list")
		return err
	}
	log.Info("List shared successfully")
	return nil
}

func (s *sqliteStore) GetGrant(ctx context.Context, listID int64, userID string) (*core.Grant, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+grantColumns+" FROM list_shares WHERE list_id = ? AND user_id = ?", listID, userID)
	grant, err := scanGrant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logrus.WithFields(logrus.Fields{"list_id": listID, "user_id": userID}).WithError(err).Error("Failed to retrieve grant")
		return nil, err
	}
	return grant, nil
}

func (s *sqliteStore) ListGrants(ctx context.Context, listID int64) ([]core.Grant, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+grantColumns+" FROM list_shares WHERE list_id = ? ORDER BY shared_at DESC, user_id", listID)
	if err != nil {
		logrus.WithField("list_id", listID).WithError(err).Error("Failed to list grants")
		return nil, err
	}
	defer rows.Close()

	grants := []core.Grant{}
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, *g)
	}
	return grants, rows.Err()
}

func (s *sqliteStore) UpdateGrant(ctx context.Context, listID int64, userID string, level core.Permission) (*core.Grant, error) {
	log := logrus.WithFields(logrus.Fields{
		"list_id":    listID,
		"user_id":    userID,
		"permission": level.String(),
	})

	var grant *core.Grant
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE list_shares SET permission = ? WHERE list_id = ? AND user_id = ?",
			level.String(), listID, userID)
		if err != nil {
			return err
		}
		if n, err := result.RowsAffected(); err != nil || n == 0 {
			return err
		}
		grant, err = scanGrant(tx.QueryRowContext(ctx,
			"SELECT "+grantColumns+" FROM list_shares WHERE list_id = ? AND user_id = ?", listID, userID))
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to update permission")
		return nil, err
	}
	if grant != nil {
		log.Info("Permission updated successfully")
	}
	return grant, nil
}

func (s *sqliteStore) DeleteGrant(ctx context.Context, listID int64, userID string) (bool, error) {
	log := logrus.WithFields(logrus.Fields{"list_id": listID, "user_id": userID})

	result, err := s.db.ExecContext(ctx, "DELETE FROM list_shares WHERE list_id = ? AND user_id = ?", listID, userID)
	if err != nil {
		log.WithError(err).Error("Failed to remove access")
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		log.Info("Access removed successfully")
	}
	return n > 0, nil
}
