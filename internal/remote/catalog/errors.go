package catalog

import "errors"

// ErrNotFound indicates the catalog has no record for the requested id
var ErrNotFound = errors.New("catalog: not found")
