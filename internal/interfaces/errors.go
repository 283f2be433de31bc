package interfaces

import "errors"

// ErrNotFound is returned by stores when a user, currency or account does not exist
var ErrNotFound = errors.New("not found")
