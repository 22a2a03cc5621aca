// Package storeerr defines the tagged error kinds the Store surfaces,
// replacing exception-based control flow with explicit sentinel values
// checked via errors.Is.
package storeerr

import "errors"

// ErrIO marks a failure opening, migrating, or writing to the backing
// file (path unwritable, backend unavailable). Fatal at the CLI layer.
var ErrIO = errors.New("store: io error")

// ErrDuplicateToken marks an attempt to record an Injection whose token
// already exists (I2). The current injection is aborted; the batch
// continues.
var ErrDuplicateToken = errors.New("store: duplicate token")
