// Package persist bridges the appointment store to a durable key-value slot.
// The slot holds one JSON array of appointment records under a single key;
// every store mutation re-serializes the full collection.
package persist

import "context"

// SlotKey is the key the appointment collection is stored under, for
// backends that are keyed (redis, sqlite, postgres).
const SlotKey = "appointments"

// Slot is a durable key-value slot holding one opaque payload. Load reports
// ok=false when the slot has never been written.
type Slot interface {
	Load(ctx context.Context) (payload []byte, ok bool, err error)
	Save(ctx context.Context, payload []byte) error
}
