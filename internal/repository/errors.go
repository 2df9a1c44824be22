package repository

import "errors"

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint (user id or
// username) would be violated.
var ErrDuplicate = errors.New("already exists")
