package core

import (
	"context"
	"time"
)

type (
	// List is a shared to-do list. OwnerID never changes after creation.
	List struct {
		ID        int64     `json:"id"`
		Title     string    `json:"title"`
		OwnerID   string    `json:"owner_id"`
		CreatedAt time.Time `json:"created_at"`
	}

	// MemberList is a list as seen by one participant, carrying that
	// participant's level.
	MemberList struct {
		List
		Permission Permission `json:"permission"`
	}

	// ListStore persists lists. Missing rows are reported as nil/false, not as
	// errors.
	ListStore interface {
		// InsertList stores the list together with its owner grant, assigning
		// list.ID and owner.ListID. Either both rows become visible or neither.
		InsertList(ctx context.Context, list *List, owner *Grant) error

		GetList(ctx context.Context, id int64) (*List, error)

		// ListsForUser returns every list the user holds a grant on.
		ListsForUser(ctx context.Context, userID string) ([]MemberList, error)

		UpdateListTitle(ctx context.Context, id int64, title string) (*List, error)

		// DeleteListCascade removes the list with all of its grants and tasks in
		// one atomic step.
		DeleteListCascade(ctx context.Context, id int64) (bool, error)
	}
)
