package access

import (
	"context"
	"time"

	"sharedlists/core"
)

// ListDetail is a list together with everyone who holds a grant on it.
type ListDetail struct {
	core.List
	SharedWith []core.Grant `json:"shared_with"`
}

type ListService struct {
	store core.Store
	eval  *Evaluator
	now   func() time.Time
}

// Create stores a new list owned by ownerID along with its owner grant.
func (s *ListService) Create(ctx context.Context, title, ownerID string) (*core.List, error) {
	title, err := requireText("title", title)
	if err != nil {
		return nil, err
	}
	if err := validateActor(ownerID); err != nil {
		return nil, err
	}

	now := s.now()
	list := &core.List{Title: title, OwnerID: ownerID, CreatedAt: now}
	owner := &core.Grant{UserID: ownerID, Permission: core.PermissionOwner, SharedAt: now}
	if err := s.store.InsertList(ctx, list, owner); err != nil {
		return nil, err
	}
	return list, nil
}

// ListFor returns the lists userID participates in, newest first, each
// carrying the user's own level.
func (s *ListService) ListFor(ctx context.Context, userID string) ([]core.MemberList, error) {
	if err := validateActor(userID); err != nil {
		return nil, err
	}
	lists, err := s.store.ListsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []core.MemberList{}
	}
	sortLists(lists)
	return lists, nil
}

func (s *ListService) GetDetail(ctx context.Context, listID int64, actorID string) (*ListDetail, error) {
	list, _, err := s.eval.authorize(ctx, actorID, listID, core.PermissionViewer)
	if err != nil {
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
	return &ListDetail{List: *list, SharedWith: grants}, nil
}

// Update renames a list. Only the owner may do this; editors are refused.
func (s *ListService) Update(ctx context.Context, listID int64, actorID, newTitle string) (*core.List, error) {
	title, err := requireText("title", newTitle)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.eval.authorize(ctx, actorID, listID, core.PermissionOwner); err != nil {
		return nil, err
	}

	list, err := s.store.UpdateListTitle(ctx, listID, title)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, listNotFound(listID)
	}
	return list, nil
}

// Delete removes the list and, with it, all of its grants and tasks.
func (s *ListService) Delete(ctx context.Context, listID int64, actorID string) error {
	if _, _, err := s.eval.authorize(ctx, actorID, listID, core.PermissionOwner); err != nil {
		return err
	}

	deleted, err := s.store.DeleteListCascade(ctx, listID)
	if err != nil {
		return err
	}
	if !deleted {
		return listNotFound(listID)
	}
	return nil
}
