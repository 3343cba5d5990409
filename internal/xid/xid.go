package xid

import "github.com/google/uuid"

// New returns a random identifier. The browser version of this tool created
// ids with crypto.randomUUID(), so new ids must stay interchangeable with
// the UUIDs already sitting in persisted state.
func New() string {
	return uuid.NewString()
}
