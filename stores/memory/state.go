package memory

import (
	"fmt"

	"sharedlists/core"
)

type state struct {
	nextListID int64
	nextTaskID int64
	lists      map[int64]*core.List
	// grants is keyed by list id, then user id.
	grants map[int64]map[string]*core.Grant
	tasks  map[int64]*core.Task
}

func newState() *state {
	return &state{
		lists:  make(map[int64]*core.List),
		grants: make(map[int64]map[string]*core.Grant),
		tasks:  make(map[int64]*core.Task),
	}
}

func (st *state) clone() *state {
	next := &state{
		nextListID: st.nextListID,
		nextTaskID: st.nextTaskID,
		lists:      make(map[int64]*core.List, len(st.lists)),
		grants:     make(map[int64]map[string]*core.Grant, len(st.grants)),
		tasks:      make(map[int64]*core.Task, len(st.tasks)),
	}
	for id, l := range st.lists {
		c := *l
		next.lists[id] = &c
	}
	for id, grants := range st.grants {
		m := make(map[string]*core.Grant, len(grants))
		for user, g := range grants {
			c := *g
			m[user] = &c
		}
		next.grants[id] = m
	}
	for id, t := range st.tasks {
		c := *t
		next.tasks[id] = &c
	}
	return next
}

// snapshot is the serialized form handed to a Persister.
type snapshot struct {
	NextListID int64        `json:"next_list_id"`
	NextTaskID int64        `json:"next_task_id"`
	Lists      []core.List  `json:"lists"`
	Grants     []core.Grant `json:"grants"`
	Tasks      []core.Task  `json:"tasks"`
}

func (st *state) snapshot() snapshot {
	snap := snapshot{
		NextListID: st.nextListID,
		NextTaskID: st.nextTaskID,
		Lists:      make([]core.List, 0, len(st.lists)),
		Grants:     []core.Grant{},
		Tasks:      make([]core.Task, 0, len(st.tasks)),
	}
	for _, l := range st.lists {
		snap.Lists = append(snap.Lists, *l)
	}
	for _, grants := range st.grants {
		for _, g := range grants {
			snap.Grants = append(snap.Grants, *g)
		}
	}
	for _, t := range st.tasks {
		snap.Tasks = append(snap.Tasks, *t)
	}
	return snap
}

// restore rebuilds state from a snapshot. Grants and tasks whose list is
// missing are dropped. A list must carry exactly one owner grant, held by its
// OwnerID, or the snapshot is refused.
func (snap snapshot) restore() (*state, error) {
	st := newState()
	st.nextListID = snap.NextListID
	st.nextTaskID = snap.NextTaskID
	for _, l := range snap.Lists {
		l := l
		st.lists[l.ID] = &l
		st.grants[l.ID] = make(map[string]*core.Grant)
		if l.ID > st.nextListID {
			st.nextListID = l.ID
		}
	}
	for _, g := range snap.Grants {
		g := g
		grants, ok := st.grants[g.ListID]
		if !ok {
			continue
		}
		if _, dup := grants[g.UserID]; dup {
			return nil, fmt.Errorf("list %d: %w for user %s", g.ListID, core.ErrDuplicateGrant, g.UserID)
		}
		grants[g.UserID] = &g
	}
	for id, l := range st.lists {
		if err := checkOwnership(l, st.grants[id]); err != nil {
			return nil, err
		}
	}
	for _, t := range snap.Tasks {
		t := t
		if _, ok := st.lists[t.ListID]; !ok {
			continue
		}
		st.tasks[t.ID] = &t
		if t.ID > st.nextTaskID {
			st.nextTaskID = t.ID
		}
	}
	return st, nil
}

func checkOwnership(l *core.List, grants map[string]*core.Grant) error {
	owners := 0
	for _, g := range grants {
		if g.Permission != core.PermissionOwner {
			continue
		}
		owners++
		if g.UserID != l.OwnerID {
			return fmt.Errorf("list %d: owner grant held by %s, list owner is %s", l.ID, g.UserID, l.OwnerID)
		}
	}
	if owners != 1 {
		return fmt.Errorf("list %d: %d owner grants, want 1", l.ID, owners)
	}
	return nil
}
