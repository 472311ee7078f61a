package service

import (
	"crypto/rand"
	"encoding/binary"
)

// newID returns a random positive 63-bit identifier. Generating ids in
// the application keeps inserts driver-agnostic; collisions surface as
// primary-key conflicts and are practically unreachable at this scale.
func newID() int64 {
	var buf [8]byte
	_, _ = rand.Read(buf[:])
	id := int64(binary.BigEndian.Uint64(buf[:]) &^ (1 << 63))
	if id == 0 {
		id = 1
	}
	return id
}
