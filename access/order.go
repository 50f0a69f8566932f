package access

import (
	"sort"

	"sharedlists/core"
)

// Newest lists first.
func sortLists(lists []core.MemberList) {
	sort.SliceStable(lists, func(i, j int) bool {
		a, b := lists[i], lists[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// Most recently shared first.
func sortGrants(grants []core.Grant) {
	sort.SliceStable(grants, func(i, j int) bool {
		a, b := grants[i], grants[j]
		if !a.SharedAt.Equal(b.SharedAt) {
			return a.SharedAt.After(b.SharedAt)
		}
		return a.UserID < b.UserID
	})
}

// Open tasks before completed ones, each group in creation order.
func sortTasks(tasks []core.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
