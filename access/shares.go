package access

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"sharedlists/core"
)

// ShareService manages the grants the evaluator reads. Every mutation is
// owner-only, and none of them can touch the owner's own grant: a list keeps
// exactly one owner grant from creation until deletion.
type ShareService struct {
	store core.Store
	eval  *Evaluator
	now   func() time.Time
}

// Share gives targetUserID a new grant on the list. Existing grants are never
// overwritten; use UpdatePermission for that.
func (s *ShareService) Share(ctx context.Context, listID int64, actorID, targetUserID string, level core.Permission) (*core.Grant, error) {
	if err := validateTarget(targetUserID); err != nil {
		return nil, err
	}
	if err := validateLevel(level); err != nil {
		return nil, err
	}
	if _, _, err := s.eval.authorize(ctx, actorID, listID, core.PermissionOwner); err != nil {
		return nil, err
	}
	if level == core.PermissionOwner {
		return nil, s.refuse(listID, actorID, targetUserID, ReasonOwnershipConflict, "A list can only have one owner")
	}

	existing, err := s.store.GetGrant(ctx, listID, targetUserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ConflictError{Message: "User already has access"}
	}

	grant := &core.Grant{
		ListID:     listID,
		UserID:     targetUserID,
		Permission: level,
		SharedAt:   s.now(),
	}
	if err := s.store.InsertGrant(ctx, grant); err != nil {
		// A concurrent share or list deletion can land between the checks
		// above and the insert.
		switch {
		case errors.Is(err, core.ErrDuplicateGrant):
			return nil, &ConflictError{Message: "User already has access"}
		case errors.Is(err, core.ErrListNotFound):
			return nil, listNotFound(listID)
		}
		return nil, err
	}
	return grant, nil
}

// UpdatePermission changes the level of an existing non-owner grant.
func (s *ShareService) UpdatePermission(ctx context.Context, listID int64, actorID, targetUserID string, newLevel core.Permission) (*core.Grant, error) {
	if err := validateTarget(targetUserID); err != nil {
		return nil, err
	}
	if err := validateLevel(newLevel); err != nil {
		return nil, err
	}
	if _, _, err := s.eval.authorize(ctx, actorID, listID, core.PermissionOwner); err != nil {
		return nil, err
	}
	if targetUserID == actorID {
		return nil, s.refuse(listID, actorID, targetUserID, ReasonSelfGrantImmutable, "The owner's permission cannot be changed")
	}
	if newLevel == core.PermissionOwner {
		return nil, s.refuse(listID, actorID, targetUserID, ReasonOwnershipConflict, "A list can only have one owner")
	}

	existing, err := s.store.GetGrant(ctx, listID, targetUserID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, grantNotFound(listID, targetUserID)
	}
	if existing.Permission == core.PermissionOwner {
		return nil, s.refuse(listID, actorID, targetUserID, ReasonSelfGrantImmutable, "The owner's permission cannot be changed")
	}

	grant, err := s.store.UpdateGrant(ctx, listID, targetUserID, newLevel)
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return nil, grantNotFound(listID, targetUserID)
	}
	return grant, nil
}

// Revoke removes targetUserID's grant. The owner cannot remove themselves.
func (s *ShareService) Revoke(ctx context.Context, listID int64, actorID, targetUserID string) error {
	if err := validateTarget(targetUserID); err != nil {
		return err
	}
	if _, _, err := s.eval.authorize(ctx, actorID, listID, core.PermissionOwner); err != nil {
		return err
	}
	if targetUserID == actorID {
		return s.refuse(listID, actorID, targetUserID, ReasonSelfRemoval, "Cannot remove yourself")
	}

	existing, err := s.store.GetGrant(ctx, listID, targetUserID)
	if err != nil {
		return err
	}
	if existing == nil {
		return grantNotFound(listID, targetUserID)
	}
	if existing.Permission == core.PermissionOwner {
		return s.refuse(listID, actorID, targetUserID, ReasonSelfRemoval, "The owner's access cannot be removed")
	}

	deleted, err := s.store.DeleteGrant(ctx, listID, targetUserID)
	if err != nil {
		return err
	}
	if !deleted {
		return grantNotFound(listID, targetUserID)
	}
	return nil
}

// ListGrants returns the roster of a list, most recently shared first. Any
// participant may read it.
func (s *ShareService) ListGrants(ctx context.Context, listID int64, actorID string) ([]core.Grant, error) {
	if _, _, err := s.eval.authorize(ctx, actorID, listID, core.PermissionViewer); err != nil {
		return nil, err
	}
	grants, err := s.store.ListGrants(ctx, listID)
	if err != nil {
		return nil, err
	}
	if grants == nil {
		grants = []core.Grant{}
	}
	sortGrants(grants)
	return grants, nil
}

func (s *ShareService) refuse(listID int64, actorID, targetUserID string, reason Reason, msg string) error {
	logrus.WithFields(logrus.Fields{
		"actor":   actorID,
		"target":  targetUserID,
		"list_id": listID,
		"reason":  reason.String(),
	}).Debug("Share change refused")
	return &DeniedError{Reason: reason, Message: msg}
}

func validateTarget(userID string) error {
	if err := validateActor(userID); err != nil {
		return &ValidationError{Field: "user_id", Message: "target user id is required"}
	}
	return nil
}

func validateLevel(level core.Permission) error {
	if !level.Valid() {
		return &ValidationError{Field: "permission", Message: "must be owner, editor, or viewer"}
	}
	return nil
}
