// Package storetest checks that a core.Store backend honours the gateway
// contract the access services rely on.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"sharedlists/core"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) core.Store

// Run executes the whole suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s core.Store)
	}{
		{"InsertListCreatesOwnerGrant", testInsertListCreatesOwnerGrant},
		{"MissingRowsAreEmptyResults", testMissingRowsAreEmptyResults},
		{"ListsForUser", testListsForUser},
		{"UpdateListTitle", testUpdateListTitle},
		{"GrantLifecycle", testGrantLifecycle},
		{"TaskLifecycle", testTaskLifecycle},
		{"TaskPartialUpdate", testTaskPartialUpdate},
		{"DeleteListCascade", testDeleteListCascade},
		{"InsertOnMissingListFails", testInsertOnMissingListFails},
		{"DuplicateGrantRejected", testDuplicateGrantRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// CreateList stores a list owned by owner with the given creation offset.
func CreateList(t *testing.T, s core.Store, title, owner string, offset time.Duration) *core.List {
	t.Helper()
	list := &core.List{Title: title, OwnerID: owner, CreatedAt: base.Add(offset)}
	grant := &core.Grant{UserID: owner, Permission: core.PermissionOwner, SharedAt: base.Add(offset)}
	if err := s.InsertList(context.Background(), list, grant); err != nil {
		t.Fatalf("InsertList() failed: %v", err)
	}
	return list
}

func testInsertListCreatesOwnerGrant(t *testing.T, s core.Store) {
	ctx := context.Background()
	list := &core.List{Title: "Groceries", OwnerID: "alice", CreatedAt: base}
	owner := &core.Grant{UserID: "alice", Permission: core.PermissionOwner, SharedAt: base}

	if err := s.InsertList(ctx, list, owner); err != nil {
		t.Fatalf("InsertList() failed: %v", err)
	}
	if list.ID == 0 {
		t.Fatal("InsertList() did not assign an id")
	}
	if owner.ListID != list.ID {
		t.Errorf("owner.ListID = %d, want %d", owner.ListID, list.ID)
	}

	got, err := s.GetList(ctx, list.ID)
	if err != nil || got == nil {
		t.Fatalf("GetList() = %v, %v", got, err)
	}
	if got.Title != "Groceries" || got.OwnerID != "alice" {
		t.Errorf("GetList() = %+v", got)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, base)
	}

	grant, err := s.GetGrant(ctx, list.ID, "alice")
	if err != nil || grant == nil {
		t.Fatalf("GetGrant() = %v, %v", grant, err)
	}
	if grant.Permission != core.PermissionOwner {
		t.Errorf("owner grant permission = %s, want owner", grant.Permission)
	}

	second := CreateList(t, s, "Chores", "alice", time.Minute)
	if second.ID == list.ID {
		t.Error("two lists received the same id")
	}
}

func testMissingRowsAreEmptyResults(t *testing.T, s core.Store) {
	ctx := context.Background()

	if l, err := s.GetList(ctx, 999); l != nil || err != nil {
		t.Errorf("GetList(missing) = %v, %v; want nil, nil", l, err)
	}
	if g, err := s.GetGrant(ctx, 999, "nobody"); g != nil || err != nil {
		t.Errorf("GetGrant(missing) = %v, %v; want nil, nil", g, err)
	}
	if task, err := s.GetTask(ctx, 999); task != nil || err != nil {
		t.Errorf("GetTask(missing) = %v, %v; want nil, nil", task, err)
	}
	if l, err := s.UpdateListTitle(ctx, 999, "x"); l != nil || err != nil {
		t.Errorf("UpdateListTitle(missing) = %v, %v; want nil, nil", l, err)
	}
	if g, err := s.UpdateGrant(ctx, 999, "nobody", core.PermissionEditor); g != nil || err != nil {
		t.Errorf("UpdateGrant(missing) = %v, %v; want nil, nil", g, err)
	}
	content := "x"
	if task, err := s.UpdateTask(ctx, 999, core.TaskPatch{Content: &content}); task != nil || err != nil {
		t.Errorf("UpdateTask(missing) = %v, %v; want nil, nil", task, err)
	}
	if ok, err := s.DeleteListCascade(ctx, 999); ok || err != nil {
		t.Errorf("DeleteListCascade(missing) = %v, %v; want false, nil", ok, err)
	}
	if ok, err := s.DeleteGrant(ctx, 999, "nobody"); ok || err != nil {
		t.Errorf("DeleteGrant(missing) = %v, %v; want false, nil", ok, err)
	}
	if ok, err := s.DeleteTask(ctx, 999); ok || err != nil {
		t.Errorf("DeleteTask(missing) = %v, %v; want false, nil", ok, err)
	}

	lists, err := s.ListsForUser(ctx, "nobody")
	if err != nil || len(lists) != 0 {
		t.Errorf("ListsForUser(nobody) = %v, %v; want empty", lists, err)
	}
}

func testListsForUser(t *testing.T, s core.Store) {
	ctx := context.Background()
	own := CreateList(t, s, "Mine", "alice", 0)
	shared := CreateList(t, s, "Theirs", "bob", time.Minute)
	CreateList(t, s, "Private", "bob", 2*time.Minute)

	if err := s.InsertGrant(ctx, &core.Grant{ListID: shared.ID, UserID: "alice", Permission: core.PermissionViewer, SharedAt: base.Add(3 * time.Minute)}); err != nil {
		t.Fatalf("InsertGrant() failed: %v", err)
	}

	lists, err := s.ListsForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListsForUser() failed: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("ListsForUser() returned %d lists, want 2", len(lists))
	}
	levels := map[int64]core.Permission{}
	for _, l := range lists {
		levels[l.ID] = l.Permission
	}
	if levels[own.ID] != core.PermissionOwner {
		t.Errorf("permission on own list = %s, want owner", levels[own.ID])
	}
	if levels[shared.ID] != core.PermissionViewer {
		t.Errorf("permission on shared list = %s, want viewer", levels[shared.ID])
	}
}

func testUpdateListTitle(t *testing.T, s core.Store) {
	ctx := context.Background()
	list := CreateList(t, s, "Old", "alice", 0)

	updated, err := s.UpdateListTitle(ctx, list.ID, "New")
	if err != nil || updated == nil {
		t.Fatalf("UpdateListTitle() = %v, %v", updated, err)
	}
	if updated.Title != "New" || updated.OwnerID != "alice" || !updated.CreatedAt.Equal(list.CreatedAt) {
		t.Errorf("UpdateListTitle() = %+v", updated)
	}
}

func testGrantLifecycle(t *testing.T, s core.Store) {
	ctx := context.Background()
	list := CreateList(t, s, "Shared", "alice", 0)

	grant := &core.Grant{ListID: list.ID, UserID: "bob", Permission: core.PermissionViewer, SharedAt: base.Add(time.Minute)}
	if err := s.InsertGrant(ctx, grant); err != nil {
		t.Fatalf("InsertGrant() failed: %v", err)
	}

	grants, err := s.ListGrants(ctx, list.ID)
	if err != nil {
		t.Fatalf("ListGrants() failed: %v", err)
	}
	if len(grants) != 2 {
		t.Fatalf("ListGrants() returned %d grants, want 2", len(grants))
	}

	updated, err := s.UpdateGrant(ctx, list.ID, "bob", core.PermissionEditor)
	if err != nil || updated == nil {
		t.Fatalf("UpdateGrant() = %v, %v", updated, err)
	}
	if updated.Permission != core.PermissionEditor {
		t.Errorf("UpdateGrant() permission = %s, want editor", updated.Permission)
	}
	if !updated.SharedAt.Equal(grant.SharedAt) {
		t.Errorf("UpdateGrant() changed shared_at to %v", updated.SharedAt)
	}

	deleted, err := s.DeleteGrant(ctx, list.ID, "bob")
	if err != nil || !deleted {
		t.Fatalf("DeleteGrant() = %v, %v", deleted, err)
	}
	if g, _ := s.GetGrant(ctx, list.ID, "bob"); g != nil {
		t.Error("grant still present after DeleteGrant()")
	}
	if g, _ := s.GetGrant(ctx, list.ID, "alice"); g == nil {
		t.Error("owner grant removed by DeleteGrant() of another user")
	}
}

func testTaskLifecycle(t *testing.T, s core.Store) {
	ctx := context.Background()
	list := CreateList(t, s, "Work", "alice", 0)

	task := &core.Task{ListID: list.ID, Content: "Write report", CreatedAt: base.Add(time.Minute)}
	if err := s.InsertTask(ctx, task); err != nil {
		t.Fatalf("InsertTask() failed: %v", err)
	}
	if task.ID == 0 {
		t.Fatal("InsertTask() did not assign an id")
	}

	got, err := s.GetTask(ctx, task.ID)
	if err != nil || got == nil {
		t.Fatalf("GetTask() = %v, %v", got, err)
	}
	if got.Content != "Write report" || got.Completed || got.ListID != list.ID {
		t.Errorf("GetTask() = %+v", got)
	}

	tasks, err := s.ListTasks(ctx, list.ID)
	if err != nil || len(tasks) != 1 {
		t.Fatalf("ListTasks() = %v, %v; want one task", tasks, err)
	}

	deleted, err := s.DeleteTask(ctx, task.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteTask() = %v, %v", deleted, err)
	}
	if got, _ := s.GetTask(ctx, task.ID); got != nil {
		t.Error("task still present after DeleteTask()")
	}
}

func testTaskPartialUpdate(t *testing.T, s core.Store) {
	ctx := context.Background()
	list := CreateList(t, s, "Home", "alice", 0)
	task := &core.Task{ListID: list.ID, Content: "Water plants", CreatedAt: base}
	if err := s.InsertTask(ctx, task); err != nil {
		t.Fatalf("InsertTask() failed: %v", err)
	}

	done := true
	updated, err := s.UpdateTask(ctx, task.ID, core.TaskPatch{Completed: &done})
	if err != nil || updated == nil {
		t.Fatalf("UpdateTask(completed) = %v, %v", updated, err)
	}
	if !updated.Completed || updated.Content != "Water plants" {
		t.Errorf("UpdateTask(completed) = %+v; content must be kept", updated)
	}

	content := "Water all plants"
	updated, err = s.UpdateTask(ctx, task.ID, core.TaskPatch{Content: &content})
	if err != nil || updated == nil {
		t.Fatalf("UpdateTask(content) = %v, %v", updated, err)
	}
	if !updated.Completed || updated.Content != content {
		t.Errorf("UpdateTask(content) = %+v; completed must be kept", updated)
	}
}

func testDeleteListCascade(t *testing.T, s core.Store) {
	ctx := context.Background()
	list := CreateList(t, s, "Doomed", "alice", 0)
	other := CreateList(t, s, "Survivor", "alice", time.Minute)

	if err := s.InsertGrant(ctx, &core.Grant{ListID: list.ID, UserID: "bob", Permission: core.PermissionEditor, SharedAt: base}); err != nil {
		t.Fatalf("InsertGrant() failed: %v", err)
	}
	doomedTask := &core.Task{ListID: list.ID, Content: "gone", CreatedAt: base}
	keptTask := &core.Task{ListID: other.ID, Content: "kept", CreatedAt: base}
	for _, task := range []*core.Task{doomedTask, keptTask} {
		if err := s.InsertTask(ctx, task); err != nil {
			t.Fatalf("InsertTask() failed: %v", err)
		}
	}

	deleted, err := s.DeleteListCascade(ctx, list.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteListCascade() = %v, %v", deleted, err)
	}

	if l, _ := s.GetList(ctx, list.ID); l != nil {
		t.Error("list still present after cascade")
	}
	if grants, _ := s.ListGrants(ctx, list.ID); len(grants) != 0 {
		t.Errorf("%d grants survived the cascade", len(grants))
	}
	if tasks, _ := s.ListTasks(ctx, list.ID); len(tasks) != 0 {
		t.Errorf("%d tasks survived the cascade", len(tasks))
	}
	if task, _ := s.GetTask(ctx, doomedTask.ID); task != nil {
		t.Error("task of deleted list still reachable by id")
	}
	if task, _ := s.GetTask(ctx, keptTask.ID); task == nil {
		t.Error("task of another list was removed")
	}
	if g, _ := s.GetGrant(ctx, other.ID, "alice"); g == nil {
		t.Error("owner grant of another list was removed")
	}
}

func testInsertOnMissingListFails(t *testing.T, s core.Store) {
	ctx := context.Background()
	list := CreateList(t, s, "Deleted", "alice", 0)
	if _, err := s.DeleteListCascade(ctx, list.ID); err != nil {
		t.Fatalf("DeleteListCascade() failed: %v", err)
	}

	for _, id := range []int64{list.ID, 999} {
		task := &core.Task{ListID: id, Content: "orphan", CreatedAt: base}
		if err := s.InsertTask(ctx, task); !errors.Is(err, core.ErrListNotFound) {
			t.Errorf("InsertTask(list %d) error = %v, want %v", id, err, core.ErrListNotFound)
		}
		grant := &core.Grant{ListID: id, UserID: "bob", Permission: core.PermissionViewer, SharedAt: base}
		if err := s.InsertGrant(ctx, grant); !errors.Is(err, core.ErrListNotFound) {
			t.Errorf("InsertGrant(list %d) error = %v, want %v", id, err, core.ErrListNotFound)
		}
		if tasks, _ := s.ListTasks(ctx, id); len(tasks) != 0 {
			t.Errorf("%d tasks stored for missing list %d", len(tasks), id)
		}
		if g, _ := s.GetGrant(ctx, id, "bob"); g != nil {
			t.Errorf("grant stored for missing list %d: %+v", id, g)
		}
	}
}

func testDuplicateGrantRejected(t *testing.T, s core.Store) {
	ctx := context.Background()
	list := CreateList(t, s, "Shared", "alice", 0)

	first := &core.Grant{ListID: list.ID, UserID: "bob", Permission: core.PermissionViewer, SharedAt: base}
	if err := s.InsertGrant(ctx, first); err != nil {
		t.Fatalf("InsertGrant() failed: %v", err)
	}
	second := &core.Grant{ListID: list.ID, UserID: "bob", Permission: core.PermissionEditor, SharedAt: base.Add(time.Minute)}
	if err := s.InsertGrant(ctx, second); !errors.Is(err, core.ErrDuplicateGrant) {
		t.Fatalf("InsertGrant(duplicate) error = %v, want %v", err, core.ErrDuplicateGrant)
	}

	g, err := s.GetGrant(ctx, list.ID, "bob")
	if err != nil || g == nil || g.Permission != core.PermissionViewer {
		t.Errorf("grant after duplicate insert = %+v, %v", g, err)
	}
}
