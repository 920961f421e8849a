package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"0x100", 0x100, false},
		{"7ff", 0x7FF, false},
		{" 0X18FF50E5 ", 0x18FF50E5, false},
		{"1FFFFFFF", 0x1FFFFFFF, false},
		{"20000000", 0, true},
		{"", 0, true},
		{"0x", 0, true},
		{"xyz", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseID(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		in      string
		want    []byte
		wantErr bool
	}{
		{"AA BB", []byte{0xAA, 0xBB}, false},
		{"aabb", []byte{0xAA, 0xBB}, false},
		{"de:ad:be:ef", []byte{0xDE, 0xAD, 0xBE, 0xEF}, false},
		{"", []byte{}, false},
		{"A", nil, true},
		{"GG", nil, true},
		{"00 11 22 33 44 55 66 77 88", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePayload(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDelay(t *testing.T) {
	d, err := ParseDelay("")
	require.NoError(t, err)
	assert.Equal(t, 0, d)

	d, err = ParseDelay(" 50 ")
	require.NoError(t, err)
	assert.Equal(t, 50, d)

	_, err = ParseDelay("-1")
	assert.ErrorIs(t, err, ErrConfig)
	_, err = ParseDelay("abc")
	assert.ErrorIs(t, err, ErrConfig)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0x100", FormatID(0x100))
	assert.Equal(t, "0x18ff50e5", FormatID(0x18FF50E5))
	assert.Equal(t, "aa bb 01", FormatPayload([]byte{0xAA, 0xBB, 0x01}))
	assert.Equal(t, "", FormatPayload(nil))
}

func TestParseSlot(t *testing.T) {
	s, err := ParseSlot("0x100", "AA BB", "50", true)
	require.NoError(t, err)
	assert.Equal(t, Slot{ID: 0x100, Length: 2, Payload: []byte{0xAA, 0xBB}, Delay: 50, Enabled: true, Defined: true}, s)

	_, err = ParseSlot("0x100", "AA BB", "soon", true)
	assert.ErrorIs(t, err, ErrConfig)
}
