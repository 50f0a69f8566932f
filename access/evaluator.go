package access

import (
	"context"

	"github.com/sirupsen/logrus"

	"sharedlists/core"
)

// Evaluator decides whether an actor holds at least a given level on a list.
// It only reads from the store.
type Evaluator struct {
	store core.Store
}

func NewEvaluator(store core.Store) *Evaluator {
	return &Evaluator{store: store}
}

// Evaluate returns nil when actorID holds a grant of at least required on
// listID. A missing list is reported as a *NotFoundError so callers can tell
// it apart from a *DeniedError.
func (e *Evaluator) Evaluate(ctx context.Context, actorID string, listID int64, required core.Permission) error {
	_, _, err := e.authorize(ctx, actorID, listID, required)
	return err
}

// authorize is Evaluate returning the list and the actor's grant on success.
func (e *Evaluator) authorize(ctx context.Context, actorID string, listID int64, required core.Permission) (*core.List, *core.Grant, error) {
	if err := validateActor(actorID); err != nil {
		return nil, nil, err
	}
	if err := validateID("list_id", listID); err != nil {
		return nil, nil, err
	}

	list, err := e.store.GetList(ctx, listID)
	if err != nil {
		return nil, nil, err
	}
	if list == nil {
		return nil, nil, listNotFound(listID)
	}

	grant, err := e.store.GetGrant(ctx, listID, actorID)
	if err != nil {
		return nil, nil, err
	}
	if grant == nil {
		return nil, nil, e.deny(actorID, listID, required, ReasonNoAccess)
	}
	if !grant.Permission.AtLeast(required) {
		return nil, nil, e.deny(actorID, listID, required, ReasonInsufficientLevel)
	}
	return list, grant, nil
}

func (e *Evaluator) deny(actorID string, listID int64, required core.Permission, reason Reason) error {
	logrus.WithFields(logrus.Fields{
		"actor":    actorID,
		"list_id":  listID,
		"required": required.String(),
		"reason":   reason.String(),
	}).Debug("Access denied")

	msg := "You do not have access to this list"
	if reason == ReasonInsufficientLevel {
		msg = "This action requires " + required.String() + " access"
	}
	return &DeniedError{Reason: reason, Message: msg}
}
