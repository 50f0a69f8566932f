package access_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sharedlists/access"
	"sharedlists/core"
	"sharedlists/stores/memory"
)

var errBackend = errors.New("backend unavailable")

// faultyStore wraps a real store and fails the named methods. It can also
// run a hook against the wrapped store just before a method is delegated.
type faultyStore struct {
	core.Store

	mu     sync.Mutex
	fails  map[string]error
	calls  map[string]int
	before map[string]func(core.Store)
}

func newFaultyStore() *faultyStore {
	return &faultyStore{
		Store:  memory.NewStore(),
		fails:  map[string]error{},
		calls:  map[string]int{},
		before: map[string]func(core.Store){},
	}
}

// interleave runs fn once, right before the next call to method reaches the
// wrapped store.
func (f *faultyStore) interleave(method string, fn func(core.Store)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.before[method] = fn
}

func (f *faultyStore) fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails[method] = err
}

func (f *faultyStore) called(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *faultyStore) check(method string) error {
	f.mu.Lock()
	f.calls[method]++
	err := f.fails[method]
	hook := f.before[method]
	delete(f.before, method)
	f.mu.Unlock()

	if err == nil && hook != nil {
		hook(f.Store)
	}
	return err
}

func (f *faultyStore) InsertList(ctx context.Context, list *core.List, owner *core.Grant) error {
	if err := f.check("InsertList"); err != nil {
		return err
	}
	return f.Store.InsertList(ctx, list, owner)
}

func (f *faultyStore) GetList(ctx context.Context, id int64) (*core.List, error) {
	if err := f.check("GetList"); err != nil {
		return nil, err
	}
	return f.Store.GetList(ctx, id)
}

func (f *faultyStore) ListsForUser(ctx context.Context, userID string) ([]core.MemberList, error) {
	if err := f.check("ListsForUser"); err != nil {
		return nil, err
	}
	return f.Store.ListsForUser(ctx, userID)
}

func (f *faultyStore) UpdateListTitle(ctx context.Context, id int64, title string) (*core.List, error) {
	if err := f.check("UpdateListTitle"); err != nil {
		return nil, err
	}
	return f.Store.UpdateListTitle(ctx, id, title)
}

func (f *faultyStore) DeleteListCascade(ctx context.Context, id int64) (bool, error) {
	if err := f.check("DeleteListCascade"); err != nil {
		return false, err
	}
	return f.Store.DeleteListCascade(ctx, id)
}

func (f *faultyStore) InsertGrant(ctx context.Context, g *core.Grant) error {
	if err := f.check("InsertGrant"); err != nil {
		return err
	}
	return f.Store.InsertGrant(ctx, g)
}

func (f *faultyStore) GetGrant(ctx context.Context, listID int64, userID string) (*core.Grant, error) {
	if err := f.check("GetGrant"); err != nil {
		return nil, err
	}
	return f.Store.GetGrant(ctx, listID, userID)
}

func (f *faultyStore) ListGrants(ctx context.Context, listID int64) ([]core.Grant, error) {
	if err := f.check("ListGrants"); err != nil {
		return nil, err
	}
	return f.Store.ListGrants(ctx, listID)
}

func (f *faultyStore) UpdateGrant(ctx context.Context, listID int64, userID string, level core.Permission) (*core.Grant, error) {
	if err := f.check("UpdateGrant"); err != nil {
		return nil, err
	}
	return f.Store.UpdateGrant(ctx, listID, userID, level)
}

func (f *faultyStore) DeleteGrant(ctx context.Context, listID int64, userID string) (bool, error) {
	if err := f.check("DeleteGrant"); err != nil {
		return false, err
	}
	return f.Store.DeleteGrant(ctx, listID, userID)
}

func (f *faultyStore) InsertTask(ctx context.Context, task *core.Task) error {
	if err := f.check("InsertTask"); err != nil {
		return err
	}
	return f.Store.InsertTask(ctx, task)
}

func (f *faultyStore) GetTask(ctx context.Context, id int64) (*core.Task, error) {
	if err := f.check("GetTask"); err != nil {
		return nil, err
	}
	return f.Store.GetTask(ctx, id)
}

func (f *faultyStore) ListTasks(ctx context.Context, listID int64) ([]core.Task, error) {
	if err := f.check("ListTasks"); err != nil {
		return nil, err
	}
	return f.Store.ListTasks(ctx, listID)
}

func (f *faultyStore) UpdateTask(ctx context.Context, id int64, patch core.TaskPatch) (*core.Task, error) {
	if err := f.check("UpdateTask"); err != nil {
		return nil, err
	}
	return f.Store.UpdateTask(ctx, id, patch)
}

func (f *faultyStore) DeleteTask(ctx context.Context, id int64) (bool, error) {
	if err := f.check("DeleteTask"); err != nil {
		return false, err
	}
	return f.Store.DeleteTask(ctx, id)
}

// steppingClock advances one second on every reading.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func setup(t *testing.T) (*access.Services, *faultyStore) {
	t.Helper()
	store := newFaultyStore()
	return access.New(store, access.WithClock(steppingClock())), store
}

func mustCreateList(t *testing.T, svc *access.Services, title, owner string) *core.List {
	t.Helper()
	list, err := svc.Lists.Create(context.Background(), title, owner)
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", title, err)
	}
	return list
}

func mustShare(t *testing.T, svc *access.Services, listID int64, owner, target string, level core.Permission) {
	t.Helper()
	if _, err := svc.Shares.Share(context.Background(), listID, owner, target, level); err != nil {
		t.Fatalf("Share(%s, %s) failed: %v", target, level, err)
	}
}

func mustCreateTask(t *testing.T, svc *access.Services, listID int64, actor, content string) *core.Task {
	t.Helper()
	task, err := svc.Tasks.Create(context.Background(), listID, actor, content)
	if err != nil {
		t.Fatalf("Create task %q failed: %v", content, err)
	}
	return task
}

func wantErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

func wantReason(t *testing.T, err error, reason access.Reason) {
	t.Helper()
	got, ok := access.DenialReason(err)
	if !ok {
		t.Fatalf("error = %v, want a denial with reason %s", err, reason)
	}
	if got != reason {
		t.Fatalf("denial reason = %s, want %s", got, reason)
	}
}

// ownerGrants counts the owner grants on a list straight from the store.
func ownerGrants(t *testing.T, store core.Store, listID int64) int {
	t.Helper()
	grants, err := store.ListGrants(context.Background(), listID)
	if err != nil {
		t.Fatalf("ListGrants() failed: %v", err)
	}
	n := 0
	for _, g := range grants {
		if g.Permission == core.PermissionOwner {
			n++
		}
	}
	return n
}
