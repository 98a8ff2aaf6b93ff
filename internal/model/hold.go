package model

import "time"

// Hold represents a temporary, exclusive claim binding one browsing
// session to one item.  Holds prevent concurrent visitors from
// reserving the same item while a visitor has it in their cart.
// A UNIQUE constraint on item_id guarantees at most one active hold
// per item.  Holds expire automatically at their expires_at timestamp
// and carry no renewal mechanism.
//
// Fields:
//  ID        – primary key identifier.
//  SessionID – opaque session identifier of the holder.
//  ItemID    – item being held (unique across active holds).
//  CreatedAt – when the hold was created.
//  ExpiresAt – CreatedAt plus the configured hold duration.
type Hold struct {
	ID        uint64    `json:"id"`
	SessionID string    `json:"session_id"`
	ItemID    uint64    `json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
