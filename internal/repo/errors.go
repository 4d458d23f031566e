package repo

import "errors"

// ErrNotFound is returned when a requested row does not exist. Callers
// translate it to a 404; repos wrap it with context.
var ErrNotFound = errors.New("not found")
