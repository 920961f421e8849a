package engine

import (
	"sync"

	"github.com/samaelod/anycan/types"
)

// RecordBuffer is the append-only store of captured frames. The capture
// loop is its only writer; shutdown drains it after the loop has stopped.
type RecordBuffer struct {
	mu      sync.Mutex
	records []types.Record
}

func NewRecordBuffer() *RecordBuffer {
	return &RecordBuffer{}
}

func (b *RecordBuffer) Append(r types.Record) {
	b.mu.Lock()
	b.records = append(b.records, r)
	b.mu.Unlock()
}

func (b *RecordBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Snapshot copies the records without consuming them.
func (b *RecordBuffer) Snapshot() []types.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.Record(nil), b.records...)
}

// Drain returns every record and empties the buffer.
func (b *RecordBuffer) Drain() []types.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.records
	b.records = nil
	return out
}
