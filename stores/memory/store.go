package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"sharedlists/core"
)

// Persister keeps a durable copy of the store's snapshot. Load returns nil
// data when nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// memStore implements core.Store. With a persister, writes are applied to a
// copy of the state which replaces the live one only once the snapshot is
// saved, so multi-row writes are all-or-nothing. Without one, writes go
// straight to the live state.
type memStore struct {
	mu      sync.RWMutex
	state   *state
	persist Persister
}

// NewStore creates an empty store that lives only in memory.
func NewStore() *memStore {
	return &memStore{state: newState()}
}

// NewPersistentStore creates a store backed by p, loading whatever snapshot
// p already holds.
func NewPersistentStore(ctx context.Context, p Persister) (*memStore, error) {
	data, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	st := newState()
	if len(data) > 0 {
		var snap snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot: %w", err)
		}
		if st, err = snap.restore(); err != nil {
			return nil, fmt.Errorf("invalid snapshot: %w", err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"lists": len(st.lists),
		"tasks": len(st.tasks),
	}).Info("Loaded snapshot")
	return &memStore{state: st, persist: p}, nil
}

func (s *memStore) view(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

// update runs fn under the write lock. fn must not change st before it
// returns an error. The state is only copied when a persister is set, so a
// failed save leaves the live state untouched.
func (s *memStore) update(ctx context.Context, fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persist == nil {
		return fn(s.state)
	}

	next := s.state.clone()
	if err := fn(next); err != nil {
		return err
	}
	data, err := json.Marshal(next.snapshot())
	if err != nil {
		return err
	}
	if err := s.persist.Save(ctx, data); err != nil {
		logrus.WithError(err).Error("Failed to persist snapshot")
		return err
	}
	s.state = next
	return nil
}

// ListStore implementation

func (s *memStore) InsertList(ctx context.Context, list *core.List, owner *core.Grant) error {
	if owner == nil || owner.UserID == "" {
		return fmt.Errorf("owner grant is required")
	}
	var id int64
	err := s.update(ctx, func(st *state) error {
		st.nextListID++
		id = st.nextListID
		l := *list
		l.ID = id
		g := *owner
		g.ListID = id
		st.lists[id] = &l
		st.grants[id] = map[string]*core.Grant{g.UserID: &g}
		return nil
	})
	if err != nil {
		return err
	}
	list.ID = id
	owner.ListID = id

	logrus.WithFields(logrus.Fields{"list_id": id, "owner_id": owner.UserID}).Info("List created successfully")
	return nil
}

func (s *memStore) GetList(ctx context.Context, id int64) (*core.List, error) {
	var out *core.List
	s.view(func(st *state) {
		if l, ok := st.lists[id]; ok {
			c := *l
			out = &c
		}
	})
	if out == nil {
		logrus.WithField("list_id", id).Debug("List not found")
	}
	return out, nil
}

func (s *memStore) ListsForUser(ctx context.Context, userID string) ([]core.MemberList, error) {
	out := []core.MemberList{}
	s.view(func(st *state) {
		for id, grants := range st.grants {
			g, ok := grants[userID]
			if !ok {
				continue
			}
			out = append(out, core.MemberList{List: *st.lists[id], Permission: g.Permission})
		}
	})
	logrus.WithField("user_id", userID).Debugf("Listed %d lists", len(out))
	return out, nil
}

func (s *memStore) UpdateListTitle(ctx context.Context, id int64, title string) (*core.List, error) {
	var out *core.List
	err := s.update(ctx, func(st *state) error {
		l, ok := st.lists[id]
		if !ok {
			return nil
		}
		l.Title = title
		c := *l
		out = &c
		return nil
	})
	if err != nil || out == nil {
		return nil, err
	}
	logrus.WithField("list_id", id).Info("List renamed successfully")
	return out, nil
}

func (s *memStore) DeleteListCascade(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.update(ctx, func(st *state) error {
		if _, ok := st.lists[id]; !ok {
			return nil
		}
		delete(st.lists, id)
		delete(st.grants, id)
		for taskID, t := range st.tasks {
			if t.ListID == id {
				delete(st.tasks, taskID)
			}
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if deleted {
		logrus.WithField("list_id", id).Info("List deleted successfully")
	}
	return deleted, nil
}

// GrantStore implementation

func (s *memStore) InsertGrant(ctx context.Context, grant *core.Grant) error {
	err := s.update(ctx, func(st *state) error {
		grants, ok := st.grants[grant.ListID]
		if !ok {
			return fmt.Errorf("list %d: %w", grant.ListID, core.ErrListNotFound)
		}
		if _, exists := grants[grant.UserID]; exists {
			return fmt.Errorf("user %s on list %d: %w", grant.UserID, grant.ListID, core.ErrDuplicateGrant)
		}
		g := *grant
		grants[g.UserID] = &g
		return nil
	})
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"list_id":    grant.ListID,
		"user_id":    grant.UserID,
		"permission": grant.Permission.String(),
	}).Info("List shared successfully")
	return nil
}

func (s *memStore) GetGrant(ctx context.Context, listID int64, userID string) (*core.Grant, error) {
	var out *core.Grant
	s.view(func(st *state) {
		if g, ok := st.grants[listID][userID]; ok {
			c := *g
			out = &c
		}
	})
	return out, nil
}

func (s *memStore) ListGrants(ctx context.Context, listID int64) ([]core.Grant, error) {
	out := []core.Grant{}
	s.view(func(st *state) {
		for _, g := range st.grants[listID] {
			out = append(out, *g)
		}
	})
	return out, nil
}

func (s *memStore) UpdateGrant(ctx context.Context, listID int64, userID string, level core.Permission) (*core.Grant, error) {
	var out *core.Grant
	err := s.update(ctx, func(st *state) error {
		g, ok := st.grants[listID][userID]
		if !ok {
			return nil
		}
		g.Permission = level
		c := *g
		out = &c
		return nil
	})
	if err != nil || out == nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"list_id":    listID,
		"user_id":    userID,
		"permission": level.String(),
	}).Info("Permission updated successfully")
	return out, nil
}

func (s *memStore) DeleteGrant(ctx context.Context, listID int64, userID string) (bool, error) {
	var deleted bool
	err := s.update(ctx, func(st *state) error {
		if _, ok := st.grants[listID][userID]; !ok {
			return nil
		}
		delete(st.grants[listID], userID)
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if deleted {
		logrus.WithFields(logrus.Fields{"list_id": listID, "user_id": userID}).Info("Access removed successfully")
	}
	return deleted, nil
}

// TaskStore implementation

func (s *memStore) InsertTask(ctx context.Context, task *core.Task) error {
	var id int64
	err := s.update(ctx, func(st *state) error {
		if _, ok := st.lists[task.ListID]; !ok {
			return fmt.Errorf("list %d: %w", task.ListID, core.ErrListNotFound)
		}
		st.nextTaskID++
		id = st.nextTaskID
		t := *task
		t.ID = id
		st.tasks[id] = &t
		return nil
	})
	if err != nil {
		return err
	}
	task.ID = id
	logrus.WithFields(logrus.Fields{"task_id": id, "list_id": task.ListID}).Info("Task created successfully")
	return nil
}

func (s *memStore) GetTask(ctx context.Context, id int64) (*core.Task, error) {
	var out *core.Task
	s.view(func(st *state) {
		if t, ok := st.tasks[id]; ok {
			c := *t
			out = &c
		}
	})
	return out, nil
}

func (s *memStore) ListTasks(ctx context.Context, listID int64) ([]core.Task, error) {
	out := []core.Task{}
	s.view(func(st *state) {
		for _, t := range st.tasks {
			if t.ListID == listID {
				out = append(out, *t)
			}
		}
	})
	return out, nil
}

func (s *memStore) UpdateTask(ctx context.Context, id int64, patch core.TaskPatch) (*core.Task, error) {
	var out *core.Task
	err := s.update(ctx, func(st *state) error {
		t, ok := st.tasks[id]
		if !ok {
			return nil
		}
		*t = patch.Apply(*t)
		c := *t
		out = &c
		return nil
	})
	if err != nil || out == nil {
		return nil, err
	}
	logrus.WithField("task_id", id).Info("Task updated successfully")
	return out, nil
}

func (s *memStore) DeleteTask(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.update(ctx, func(st *state) error {
		if _, ok := st.tasks[id]; !ok {
			return nil
		}
		delete(st.tasks, id)
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if deleted {
		logrus.WithField("task_id", id).Info("Task deleted successfully")
	}
	return deleted, nil
}
