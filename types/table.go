package types

import "sync"

// SlotTable is the fixed transmit table. It is safe for concurrent use: the
// sequencer reads slots while the operator or the loader edits them.
type SlotTable struct {
	mu    sync.RWMutex
	slots [SlotCount]Slot
}

// NewSlotTable returns an empty table with every slot enabled, like a fresh
// editor form.
func NewSlotTable() *SlotTable {
	t := &SlotTable{}
	for i := range t.slots {
		t.slots[i].Enabled = true
	}
	return t
}

// Len is always SlotCount.
func (t *SlotTable) Len() int { return SlotCount }

// Slot returns a copy of slot i. Out of range indexes yield an empty slot.
func (t *SlotTable) Slot(i int) Slot {
	if i < 0 || i >= SlotCount {
		return Slot{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneSlot(t.slots[i])
}

// Set replaces slot i.
func (t *SlotTable) Set(i int, s Slot) {
	if i < 0 || i >= SlotCount {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slots[i] = cloneSlot(s)
}

// SetEnabled changes the selection flag of slot i.
func (t *SlotTable) SetEnabled(i int, enabled bool) {
	if i < 0 || i >= SlotCount {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slots[i].Enabled = enabled
}

// Clear empties slot i, keeping its selection flag.
func (t *SlotTable) Clear(i int) {
	if i < 0 || i >= SlotCount {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slots[i] = Slot{Enabled: t.slots[i].Enabled}
}

// Load fills the table from write messages in order. Every slot is cleared
// first; selection flags are kept. It returns how many messages did not fit.
func (t *SlotTable) Load(msgs []WriteMessage) (dropped int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.slots {
		t.slots[i] = Slot{Enabled: t.slots[i].Enabled}
	}
	for i, m := range msgs {
		if i >= SlotCount {
			return len(msgs) - SlotCount
		}
		t.slots[i].ID = m.ID
		t.slots[i].Length = m.Length
		t.slots[i].Payload = append([]byte(nil), m.Payload...)
		t.slots[i].Delay = m.Delay
		t.slots[i].Defined = true
	}
	return 0
}

// Snapshot copies all slots.
func (t *SlotTable) Snapshot() []Slot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Slot, SlotCount)
	for i, s := range t.slots {
		out[i] = cloneSlot(s)
	}
	return out
}

// Messages converts the defined slots back into write messages.
func (t *SlotTable) Messages() []WriteMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []WriteMessage
	for _, s := range t.slots {
		if !s.Defined {
			continue
		}
		out = append(out, WriteMessage{
			ID:      s.ID,
			Length:  s.Length,
			Payload: append([]byte(nil), s.Payload...),
			Delay:   s.Delay,
		})
	}
	return out
}

func cloneSlot(s Slot) Slot {
	s.Payload = append([]byte(nil), s.Payload...)
	return s
}
