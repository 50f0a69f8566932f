package access

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Gateway failures match none of them and are
// returned exactly as the store produced them.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrDenied     = errors.New("access denied")
	ErrConflict   = errors.New("conflict")
)

// Reason says why an authorization check refused an actor.
type Reason int

const (
	ReasonNoAccess Reason = iota + 1
	ReasonInsufficientLevel
	ReasonOwnershipConflict
	ReasonSelfRemoval
	ReasonSelfGrantImmutable
)

func (r Reason) String() string {
	switch r {
	case ReasonNoAccess:
		return "no_access"
	case ReasonInsufficientLevel:
		return "insufficient_level"
	case ReasonOwnershipConflict:
		return "ownership_conflict"
	case ReasonSelfRemoval:
		return "self_removal"
	case ReasonSelfGrantImmutable:
		return "self_grant_immutable"
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type DeniedError struct {
	Reason  Reason
	Message string
}

func (e *DeniedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("access denied: %s", e.Reason)
	}
	return e.Message
}

// Is matches ErrDenied, and ErrConflict as well for co-ownership attempts.
func (e *DeniedError) Is(target error) bool {
	if target == ErrDenied {
		return true
	}
	return target == ErrConflict && e.Reason == ReasonOwnershipConflict
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// DenialReason extracts the reason from a denial anywhere in err's chain.
func DenialReason(err error) (Reason, bool) {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied.Reason, true
	}
	return 0, false
}

func listNotFound(id int64) error {
	return &NotFoundError{Resource: "list", ID: fmt.Sprint(id)}
}

func taskNotFound(id int64) error {
	return &NotFoundError{Resource: "task", ID: fmt.Sprint(id)}
}

func grantNotFound(listID int64, userID string) error {
	return &NotFoundError{Resource: "share", ID: fmt.Sprintf("%d/%s", listID, userID)}
}
