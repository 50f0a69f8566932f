package access_test

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"sharedlists/access"
	"sharedlists/core"
)

func TestShare(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	list := mustCreateList(t, svc, "Party", "alice")

	grant, err := svc.Shares.Share(ctx, list.ID, "alice", "bob", core.PermissionViewer)
	if err != nil {
		t.Fatalf("Share() failed: %v", err)
	}
	if grant.ListID != list.ID || grant.UserID != "bob" || grant.Permission != core.PermissionViewer {
		t.Errorf("Share() = %+v", grant)
	}
	if !grant.SharedAt.After(list.CreatedAt) {
		t.Errorf("Share() shared_at %v not after list creation %v", grant.SharedAt, list.CreatedAt)
	}

	if err := svc.Evaluator.Evaluate(ctx, "bob", list.ID, core.PermissionViewer); err != nil {
		t.Errorf("bob cannot read after being shared: %v", err)
	}
}

func TestShare_Refusals(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	list := mustCreateList(t, svc, "Party", "alice")
	mustShare(t, svc, list.ID, "alice", "bob", core.PermissionEditor)

	t.Run("non-owner", func(t *testing.T) {
		_, err := svc.Shares.Share(ctx, list.ID, "bob", "carol", core.PermissionViewer)
		wantReason(t, err, access.ReasonInsufficientLevel)
	})

	t.Run("second owner", func(t *testing.T) {
		_, err := svc.Shares.Share(ctx, list.ID, "alice", "carol", core.PermissionOwner)
		wantReason(t, err, access.ReasonOwnershipConflict)
		wantErr(t, err, access.ErrConflict)
	})

	t.Run("missing list", func(t *testing.T) {
		_, err := svc.Shares.Share(ctx, 999, "alice", "carol", core.PermissionViewer)
		wantErr(t, err, access.ErrNotFound)
	})

	t.Run("blank target", func(t *testing.T) {
		_, err := svc.Shares.Share(ctx, list.ID, "alice", " ", core.PermissionViewer)
		wantErr(t, err, access.ErrValidation)
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := svc.Shares.Share(ctx, list.ID, "alice", "carol", core.PermissionNone)
		wantErr(t, err, access.ErrValidation)
	})

	if g, _ := store.GetGrant(ctx, list.ID, "carol"); g != nil {
		t.Errorf("carol received a grant through a refused share: %+v", g)
	}
	if n := ownerGrants(t, store, list.ID); n != 1 {
		t.Errorf("%d owner grants, want 1", n)
	}
}

func TestShare_DuplicateIsConflict(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	list := mustCreateList(t, svc, "Party", "alice")
	mustShare(t, svc, list.ID, "alice", "bob", core.PermissionViewer)

	before, _ := svc.Shares.ListGrants(ctx, list.ID, "alice")

	_, err := svc.Shares.Share(ctx, list.ID, "alice", "bob", core.PermissionEditor)
	wantErr(t, err, access.ErrConflict)
	if _, denied := access.DenialReason(err); denied {
		t.Errorf("duplicate share reported as a denial: %v", err)
	}

	// The owner sharing with themselves is a duplicate as well.
	_, err = svc.Shares.Share(ctx, list.ID, "alice", "alice", core.PermissionViewer)
	wantErr(t, err, access.ErrConflict)

	after, _ := svc.Shares.ListGrants(ctx, list.ID, "alice")
	if !reflect.DeepEqual(before, after) {
		t.Errorf("grants changed by a rejected share:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestUpdatePermission(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	list := mustCreateList(t, svc, "Party", "alice")
	mustShare(t, svc, list.ID, "alice", "bob", core.PermissionViewer)

	grant, err := svc.Shares.UpdatePermission(ctx, list.ID, "alice", "bob", core.PermissionEditor)
	if err != nil {
		t.Fatalf("UpdatePermission() failed: %v", err)
	}
	if grant.Permission != core.PermissionEditor {
		t.Errorf("UpdatePermission() level = %s, want editor", grant.Permission)
	}

	grant, err = svc.Shares.UpdatePermission(ctx, list.ID, "alice", "bob", core.PermissionViewer)
	if err != nil {
		t.Fatalf("demotion failed: %v", err)
	}
	if grant.Permission != core.PermissionViewer {
		t.Errorf("UpdatePermission() level = %s, want viewer", grant.Permission)
	}
}

func TestUpdatePermission_Refusals(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	list := mustCreateList(t, svc, "Party", "alice")
	mustShare(t, svc, list.ID, "alice", "bob", core.PermissionEditor)

	t.Run("owner demotes self", func(t *testing.T) {
		_, err := svc.Shares.UpdatePermission(ctx, list.ID, "alice", "alice", core.PermissionViewer)
		wantReason(t, err, access.ReasonSelfGrantImmutable)
	})

	t.Run("promote to owner", func(t *testing.T) {
		_, err := svc.Shares.UpdatePermission(ctx, list.ID, "alice", "bob", core.PermissionOwner)
		wantReason(t, err, access.ReasonOwnershipConflict)
	})

	t.Run("editor changes others", func(t *testing.T) {
		_, err := svc.Shares.UpdatePermission(ctx, list.ID, "bob", "bob", core.PermissionViewer)
		wantReason(t, err, access.ReasonInsufficientLevel)
	})

	t.Run("no grant to change", func(t *testing.T) {
		_, err := svc.Shares.UpdatePermission(ctx, list.ID, "alice", "carol", core.PermissionViewer)
		wantErr(t, err, access.ErrNotFound)
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := svc.Shares.UpdatePermission(ctx, list.ID, "alice", "bob", core.Permission(9))
		wantErr(t, err, access.ErrValidation)
	})

	g, _ := store.GetGrant(ctx, list.ID, "alice")
	if g == nil || g.Permission != core.PermissionOwner {
		t.Errorf("owner grant = %+v after refused updates", g)
	}
	g, _ = store.GetGrant(ctx, list.ID, "bob")
	if g == nil || g.Permission != core.PermissionEditor {
		t.Errorf("bob's grant = %+v after refused updates", g)
	}
	if n := store.called("UpdateGrant"); n != 0 {
		t.Errorf("UpdateGrant called %d times by refused updates", n)
	}
}

func TestRevoke(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	list := mustCreateList(t, svc, "Party", "alice")
	mustShare(t, svc, list.ID, "alice", "bob", core.PermissionEditor)

	if err := svc.Shares.Revoke(ctx, list.ID, "alice", "bob"); err != nil {
		t.Fatalf("Revoke() failed: %v", err)
	}
	if lists, _ := svc.Lists.ListFor(ctx, "bob"); len(lists) != 0 {
		t.Errorf("bob still sees %d lists after revoke", len(lists))
	}

	wantErr(t, svc.Shares.Revoke(ctx, list.ID, "alice", "bob"), access.ErrNotFound)

	// Revoked users can be shared with again.
	mustShare(t, svc, list.ID, "alice", "bob", core.PermissionViewer)
}

func TestRevoke_Refusals(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	list := mustCreateList(t, svc, "Party", "alice")
	mustShare(t, svc, list.ID, "alice", "bob", core.PermissionEditor)

	err := svc.Shares.Revoke(ctx, list.ID, "alice", "alice")
	wantReason(t, err, access.ReasonSelfRemoval)
	if err.Error() != "Cannot remove yourself" {
		t.Errorf("Revoke() self error = %q", err.Error())
	}

	wantReason(t, svc.Shares.Revoke(ctx, list.ID, "bob", "alice"), access.ReasonInsufficientLevel)
	wantReason(t, svc.Shares.Revoke(ctx, list.ID, "mallory", "bob"), access.ReasonNoAccess)
	wantErr(t, svc.Shares.Revoke(ctx, 999, "alice", "bob"), access.ErrNotFound)
	wantErr(t, svc.Shares.Revoke(ctx, list.ID, "alice", ""), access.ErrValidation)

	if n := ownerGrants(t, store, list.ID); n != 1 {
		t.Errorf("%d owner grants after refused revokes, want 1", n)
	}
	if g, _ := store.GetGrant(ctx, list.ID, "bob"); g == nil {
		t.Error("bob's grant removed by a refused revoke")
	}
	if n := store.called("DeleteGrant"); n != 0 {
		t.Errorf("DeleteGrant called %d times by refused revokes", n)
	}
}

func TestListGrants(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	list := mustCreateList(t, svc, "Party", "alice")
	mustShare(t, svc, list.ID, "alice", "bob", core.PermissionViewer)
	mustShare(t, svc, list.ID, "alice", "carol", core.PermissionEditor)

	grants, err := svc.Shares.ListGrants(ctx, list.ID, "bob")
	if err != nil {
		t.Fatalf("ListGrants() as viewer failed: %v", err)
	}
	var got []string
	for _, g := range grants {
		got = append(got, g.UserID)
	}
	want := []string{"carol", "bob", "alice"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListGrants() order = %v, want %v", got, want)
	}

	_, err = svc.Shares.ListGrants(ctx, list.ID, "mallory")
	wantReason(t, err, access.ReasonNoAccess)
}

func TestOwnerGrantSurvivesEveryShareOperation(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	list := mustCreateList(t, svc, "Invariant", "alice")

	ops := []func() error{
		func() error { _, err := svc.Shares.Share(ctx, list.ID, "alice", "bob", core.PermissionEditor); return err },
		func() error { _, err := svc.Shares.Share(ctx, list.ID, "alice", "bob", core.PermissionOwner); return err },
		func() error { _, err := svc.Shares.Share(ctx, list.ID, "bob", "alice", core.PermissionViewer); return err },
		func() error {
			_, err := svc.Shares.UpdatePermission(ctx, list.ID, "alice", "alice", core.PermissionEditor)
			return err
		},
		func() error {
			_, err := svc.Shares.UpdatePermission(ctx, list.ID, "alice", "bob", core.PermissionOwner)
			return err
		},
		func() error { return svc.Shares.Revoke(ctx, list.ID, "alice", "alice") },
		func() error { return svc.Shares.Revoke(ctx, list.ID, "bob", "alice") },
		func() error { return svc.Shares.Revoke(ctx, list.ID, "alice", "bob") },
	}
	for i, op := range ops {
		_ = op()
		if n := ownerGrants(t, store, list.ID); n != 1 {
			t.Fatalf("after op %d: %d owner grants, want 1", i, n)
		}
		g, _ := store.GetGrant(ctx, list.ID, "alice")
		if g == nil || g.Permission != core.PermissionOwner {
			t.Fatalf("after op %d: alice's grant = %+v", i, g)
		}
	}
}

func TestShare_StoreErrorsPropagate(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	list := mustCreateList(t, svc, "Flaky", "alice")

	store.fail("InsertGrant", errBackend)
	_, err := svc.Shares.Share(ctx, list.ID, "alice", "bob", core.PermissionViewer)
	wantErr(t, err, errBackend)
	store.fail("InsertGrant", nil)

	mustShare(t, svc, list.ID, "alice", "bob", core.PermissionViewer)

	store.fail("UpdateGrant", errBackend)
	_, err = svc.Shares.UpdatePermission(ctx, list.ID, "alice", "bob", core.PermissionEditor)
	wantErr(t, err, errBackend)

	store.fail("DeleteGrant", errBackend)
	wantErr(t, svc.Shares.Revoke(ctx, list.ID, "alice", "bob"), errBackend)

	store.fail("ListGrants", errBackend)
	_, err = svc.Shares.ListGrants(ctx, list.ID, "alice")
	wantErr(t, err, errBackend)
}

func TestShare_ConcurrentDuplicateIsConflict(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	list := mustCreateList(t, svc, "Race", "alice")

	// Another request shares with bob after the duplicate check passed.
	store.interleave("InsertGrant", func(inner core.Store) {
		g := &core.Grant{ListID: list.ID, UserID: "bob", Permission: core.PermissionViewer}
		if err := inner.InsertGrant(ctx, g); err != nil {
			t.Fatalf("concurrent InsertGrant() failed: %v", err)
		}
	})

	_, err := svc.Shares.Share(ctx, list.ID, "alice", "bob", core.PermissionEditor)
	wantErr(t, err, access.ErrConflict)
	if _, denied := access.DenialReason(err); denied {
		t.Errorf("lost share race reported as a denial: %v", err)
	}

	g, _ := store.GetGrant(ctx, list.ID, "bob")
	if g == nil || g.Permission != core.PermissionViewer {
		t.Errorf("bob's grant = %+v, want the concurrent viewer grant", g)
	}
}

func TestShare_DuplicateFromStoreIsConflict(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	list := mustCreateList(t, svc, "Race", "alice")

	store.fail("InsertGrant", fmt.Errorf("user bob on list %d: %w", list.ID, core.ErrDuplicateGrant))
	_, err := svc.Shares.Share(ctx, list.ID, "alice", "bob", core.PermissionViewer)
	wantErr(t, err, access.ErrConflict)
	if err.Error() != "User already has access" {
		t.Errorf("Share() error = %q", err.Error())
	}
}

func TestShare_ListDeletedConcurrently(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	list := mustCreateList(t, svc, "Race", "alice")

	store.interleave("InsertGrant", func(inner core.Store) {
		if _, err := inner.DeleteListCascade(ctx, list.ID); err != nil {
			t.Fatalf("concurrent DeleteListCascade() failed: %v", err)
		}
	})

	_, err := svc.Shares.Share(ctx, list.ID, "alice", "bob", core.PermissionViewer)
	wantErr(t, err, access.ErrNotFound)
	if g, _ := store.GetGrant(ctx, list.ID, "bob"); g != nil {
		t.Errorf("grant stored for a deleted list: %+v", g)
	}
}
