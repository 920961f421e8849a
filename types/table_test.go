package types

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotFrame(t *testing.T) {
	f, err := Slot{ID: 0x100, Length: 2, Payload: []byte{0xAA, 0xBB}, Enabled: true, Defined: true}.Frame()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x100), f.ID)
	assert.False(t, f.Extended)
	assert.Equal(t, []byte{0xAA, 0xBB}, f.Payload())

	f, err = Slot{ID: 0x18FF50E5, Length: 0}.Frame()
	require.NoError(t, err)
	assert.True(t, f.Extended)

	bad := []Slot{
		{ID: 0x100, Length: 3, Payload: []byte{0xAA, 0xBB}},
		{ID: 0x100, Length: 9, Payload: make([]byte, 9)},
		{ID: 0x100, Length: 0, Delay: -5},
		{ID: 0x20000000},
	}
	for _, s := range bad {
		_, err := s.Frame()
		assert.ErrorIs(t, err, ErrConfig, "%+v", s)
	}
}

func TestSlotTable_LoadKeepsEnabled(t *testing.T) {
	tbl := NewSlotTable()
	tbl.SetEnabled(1, false)
	tbl.Set(9, Slot{ID: 0x7FF, Length: 1, Payload: []byte{1}, Enabled: true, Defined: true})

	dropped := tbl.Load([]WriteMessage{
		{ID: 0x100, Length: 2, Payload: []byte{0xAA, 0xBB}, Delay: 50},
		{ID: 0x200, Length: 0},
	})
	assert.Equal(t, 0, dropped)

	snap := tbl.Snapshot()
	require.Len(t, snap, SlotCount)
	assert.True(t, snap[0].Active())
	assert.Equal(t, 50, snap[0].Delay)
	assert.True(t, snap[1].Defined)
	assert.False(t, snap[1].Enabled)
	assert.False(t, snap[9].Defined, "slot beyond the case must be cleared")
	assert.True(t, snap[9].Enabled)
}

func TestSlotTable_LoadOverflow(t *testing.T) {
	msgs := make([]WriteMessage, SlotCount+3)
	for i := range msgs {
		msgs[i] = WriteMessage{ID: uint32(0x100 + i)}
	}
	tbl := NewSlotTable()
	assert.Equal(t, 3, tbl.Load(msgs))
	assert.Equal(t, uint32(0x109), tbl.Slot(9).ID)
	assert.Len(t, tbl.Messages(), SlotCount)
}

func TestSlotTable_CopiesPayload(t *testing.T) {
	tbl := NewSlotTable()
	p := []byte{1, 2}
	tbl.Set(0, Slot{ID: 1, Length: 2, Payload: p, Defined: true})
	p[0] = 9
	got := tbl.Slot(0)
	assert.Equal(t, byte(1), got.Payload[0])
	got.Payload[1] = 9
	assert.Equal(t, byte(2), tbl.Slot(0).Payload[1])

	assert.Equal(t, Slot{}, tbl.Slot(-1))
	assert.Equal(t, Slot{}, tbl.Slot(SlotCount))
	tbl.Clear(0)
	assert.False(t, tbl.Slot(0).Defined)
}

func TestSlotTable_Concurrent(t *testing.T) {
	tbl := NewSlotTable()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				tbl.Set(i%SlotCount, Slot{ID: uint32(w), Length: 1, Payload: []byte{byte(i)}, Defined: true})
				_ = tbl.Snapshot()
				tbl.SetEnabled(i%SlotCount, i%2 == 0)
			}
		}(w)
	}
	wg.Wait()
}

func TestRunStatusString(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "running", StatusRunning.String())
	assert.Equal(t, "completed", StatusCompleted.String())
	assert.Equal(t, "error", StatusError.String())
}
