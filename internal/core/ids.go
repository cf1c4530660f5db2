// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package core

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// NewObjectID generates a fresh object id.
func NewObjectID() ulid.ULID {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
}

// ParseObjectID parses an object id string.
func ParseObjectID(s string) (ulid.ULID, error) {
	id, err := ulid.Parse(s)
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("invalid object id %q: %w", s, err)
	}
	return id, nil
}

// DeriveChildID derives the id of a prefab-instance child from the template
// child's id and the instance's id, bytewise xor over the full 16-byte
// payload. The derivation is its own inverse, so the same template child
// always maps to the same instance child across repeated propagation passes.
func DeriveChildID(templateChild, instance ulid.ULID) ulid.ULID {
	var derived ulid.ULID
	for i := range derived {
		derived[i] = templateChild[i] ^ instance[i]
	}
	return derived
}

// NilID reports whether an id is the zero id (the empty reference).
func NilID(id ulid.ULID) bool {
	return id == ulid.ULID{}
}
