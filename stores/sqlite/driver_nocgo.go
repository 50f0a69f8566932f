//go:build !cgo

package sqlite

import (
	_ "modernc.org/sqlite"
)

// CGOEnabled reports whether the store runs on the cgo driver. Without cgo
// the pure Go driver is used instead.
const CGOEnabled = false

const driverName = "sqlite"

const foreignKeysParam = "_pragma=foreign_keys(1)"
