package models

import "time"

// StockEvent is an immutable, timestamped record of an item's stock count.
// Events are append-only: they are created and bulk-deleted (when their
// item is deleted), never mutated. "Current stock" for an item is the
// event with the greatest (CreatedAt, Seq) among those referencing it.
type StockEvent struct {
	ID         UUID   `db:"id" json:"id"`
	ItemID     UUID   `db:"item_id" json:"item_id"`
	StockValue int    `db:"stock_value" json:"stock_value"`
	Reason     string `db:"reason" json:"reason,omitempty"`
	CreatedAt  int64  `db:"created_at" json:"created_at"`
	// Seq is assigned by the store in insertion order and breaks ties
	// between events sharing the same CreatedAt second.
	Seq int64 `db:"seq" json:"seq"`
}

// TableName returns the table name for StockEvent.
func (StockEvent) TableName() string {
	return "stock_events"
}

// CreatedAtTime returns the CreatedAt as time.Time.
func (s *StockEvent) CreatedAtTime() time.Time {
	return time.Unix(s.CreatedAt, 0)
}

// Before reports whether s was recorded before other, using Seq to
// break CreatedAt ties deterministically.
func (s *StockEvent) Before(other *StockEvent) bool {
	if s.CreatedAt != other.CreatedAt {
		return s.CreatedAt < other.CreatedAt
	}
	return s.Seq < other.Seq
}
