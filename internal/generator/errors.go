package generator

import (
	"errors"
	"fmt"
)

var (
	ErrWorkers     = errors.New("worker count must be >= 1")
	ErrNoScheme    = errors.New("no identity scheme")
	ErrNoWorkers   = errors.New("no worker could be started")
	ErrInterrupted = errors.New("search interrupted before a match")
	ErrAddressSize = errors.New("scheme returned an address of the wrong size")
)

// ConfigError rejects a search request before any worker starts.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("invalid %s: %v", e.Field, e.Err) }
func (e *ConfigError) Unwrap() error { return e.Err }

// PersistError means a match was claimed but its savedata could not be
// written. The search does not resume after it.
type PersistError struct {
	Address string
	Path    string
	Err     error
}

func (e *PersistError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("match %s found but not saved: %v", e.Address, e.Err)
	}
	return fmt.Sprintf("match %s found but not saved to %s: %v", e.Address, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
