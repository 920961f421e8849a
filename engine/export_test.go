package engine

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaelod/anycan/types"
)

func TestExport_Rows(t *testing.T) {
	ref := time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)
	records := []types.Record{
		{Elapsed: 0, Frame: mustFrame(t, 0x100, 0xAA, 0xBB)},
		{Elapsed: 1500 * time.Millisecond, Frame: mustFrame(t, 0x18FF50E5, 0x01)},
		{Elapsed: 26 * time.Hour, Frame: mustFrame(t, 0x7FF)},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, records, ref))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Timestamp", "ID", "DLC", "Data", "Delay (ms)"},
		{"14:09:30:00", "0x100", "2", "aa bb", "0"},
		{"14:09:30:01", "0x18ff50e5", "1", "01", "0"},
		{"15:11:30:00", "0x7ff", "0", "", "0"},
	}, rows)
}

func TestAbsoluteTime_NonDecreasing(t *testing.T) {
	ref := time.Now()
	var prev time.Time
	for i, d := range []time.Duration{0, time.Millisecond, time.Millisecond, time.Second} {
		rec := types.Record{Elapsed: d}
		abs := AbsoluteTime(ref, rec)
		assert.True(t, abs.Equal(ref.Add(d)))
		if i > 0 {
			assert.False(t, abs.Before(prev))
		}
		prev = abs
	}
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.csv")
	res, err := ExportFile(empty, nil, time.Now())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	_, err = os.Stat(empty)
	assert.True(t, os.IsNotExist(err))

	path := filepath.Join(dir, "can_messages.csv")
	res, err = ExportFile(path, []types.Record{{Frame: mustFrame(t, 0x1, 1)}}, time.Now())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 1, res.Rows)
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "0x1,1,01,0")

	_, err = ExportFile(filepath.Join(dir, "missing", "x.csv"), []types.Record{{Frame: mustFrame(t, 0x1)}}, time.Now())
	assert.ErrorIs(t, err, types.ErrExport)
}
