// Package access holds the sharing and permission model: the evaluator that
// decides whether an actor may act on a list, and the list, share and task
// services that route every operation through it.
//
// Each operation follows the same order: validate input, resolve the
// referenced list or task, evaluate the actor's level, apply
// operation-specific guards, and only then mutate the store.
package access

import (
	"strings"
	"time"

	"sharedlists/core"
)

type Option func(*Services)

// WithClock replaces the time source used for created_at and shared_at.
func WithClock(now func() time.Time) Option {
	return func(s *Services) {
		s.now = now
	}
}

type Services struct {
	Evaluator *Evaluator
	Lists     *ListService
	Shares    *ShareService
	Tasks     *TaskService

	now func() time.Time
}

// New wires the evaluator and the three services to one store.
func New(store core.Store, opts ...Option) *Services {
	s := &Services{
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Evaluator = NewEvaluator(store)
	s.Lists = &ListService{store: store, eval: s.Evaluator, now: s.now}
	s.Shares = &ShareService{store: store, eval: s.Evaluator, now: s.now}
	s.Tasks = &TaskService{store: store, eval: s.Evaluator, now: s.now}
	return s
}

func validateActor(actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return &ValidationError{Field: "actor", Message: "user id is required"}
	}
	return nil
}

func validateID(field string, id int64) error {
	if id <= 0 {
		return &ValidationError{Field: field, Message: "must be a positive id"}
	}
	return nil
}

// requireText trims s and rejects it when nothing is left.
func requireText(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &ValidationError{Field: field, Message: "must not be empty"}
	}
	return s, nil
}
