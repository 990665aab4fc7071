// Package storage persists opaque key/value blobs for the record store.
package storage

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound is returned by Load when no blob is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Backend is the load/save port the record store is built on.
type Backend interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
	Close() error
}

// Quarantiner is implemented by backends that can set aside an unreadable
// blob so it is not overwritten on the next save.
type Quarantiner interface {
	Quarantine(key string) error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func checkKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("storage: invalid key %q", key)
	}
	return nil
}

