package core

import (
	"context"
	"fmt"
	"time"
)

// Permission is the access level a grant gives on a list.
// Levels are totally ordered: Viewer < Editor < Owner.
type Permission int

const (
	// PermissionNone is the zero value and never stored.
	PermissionNone Permission = iota
	PermissionViewer
	PermissionEditor
	PermissionOwner
)

var permissionNames = map[Permission]string{
	PermissionViewer: "viewer",
	PermissionEditor: "editor",
	PermissionOwner:  "owner",
}

// ParsePermission converts the stored/wire name of a level back into a Permission.
func ParsePermission(s string) (Permission, error) {
	for p, name := range permissionNames {
		if name == s {
			return p, nil
		}
	}
	return PermissionNone, fmt.Errorf("unknown permission %q", s)
}

func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Permission(%d)", int(p))
}

// Valid reports whether p is one of the three storable levels.
func (p Permission) Valid() bool {
	_, ok := permissionNames[p]
	return ok
}

// AtLeast reports whether p grants everything required does.
func (p Permission) AtLeast(required Permission) bool {
	return p >= required
}

func (p Permission) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", p)
	}
	return []byte(p.String()), nil
}

func (p *Permission) UnmarshalText(text []byte) error {
	parsed, err := ParsePermission(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

type (
	// Grant is a share record: one per (list, user) pair.
	Grant struct {
		ListID     int64      `json:"list_id"`
		UserID     string     `json:"user_id"`
		Permission Permission `json:"permission"`
		SharedAt   time.Time  `json:"shared_at"`
	}

	// GrantStore persists share records.
	GrantStore interface {
		// InsertGrant stores a new grant. It fails with ErrListNotFound when
		// the list does not exist and ErrDuplicateGrant when the pair already
		// holds a grant.
		InsertGrant(ctx context.Context, grant *Grant) error

		// GetGrant returns nil when the user holds no grant on the list.
		GetGrant(ctx context.Context, listID int64, userID string) (*Grant, error)

		// ListGrants returns every grant on a list.
		ListGrants(ctx context.Context, listID int64) ([]Grant, error)

		// UpdateGrant changes the level of an existing grant and returns it,
		// or nil if the grant does not exist.
		UpdateGrant(ctx context.Context, listID int64, userID string, level Permission) (*Grant, error)

		// DeleteGrant removes a grant and reports whether one existed.
		DeleteGrant(ctx context.Context, listID int64, userID string) (bool, error)
	}
)
