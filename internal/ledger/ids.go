package ledger

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

// IDGenerator hands out fresh entity ids.
type IDGenerator interface {
	NewID() uuid.UUID
}

// UUIDs generates random v4 ids.
type UUIDs struct{}

func (UUIDs) NewID() uuid.UUID { return uuid.New() }

// Sequence generates deterministic ids from a counter. Not safe for
// concurrent use; intended for tests and replays.
type Sequence struct{ n uint64 }

func (s *Sequence) NewID() uuid.UUID {
	s.n++
	var id uuid.UUID
	binary.BigEndian.PutUint64(id[8:], s.n)
	return id
}

// Clock returns the current time.
type Clock func() time.Time

// SystemClock returns a Clock reading wall time in loc.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time { return time.Now().In(loc) }
}
