package types

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/samaelod/anycan/bus"
)

// ParseID parses a hexadecimal identifier such as "0x18FF50E5" or "123".
func ParseID(text string) (uint32, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, fmt.Errorf("%w: empty identifier", ErrConfig)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || v > bus.MaxExtID {
		return 0, fmt.Errorf("%w: invalid identifier %q", ErrConfig, text)
	}
	return uint32(v), nil
}

// ParsePayload parses hex bytes written with or without separators,
// e.g. "AA BB", "aabb" or "AA:BB".
func ParsePayload(text string) ([]byte, error) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', ':', ',', '-':
			return -1
		}
		return r
	}, text)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of hex digits in %q", ErrConfig, text)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid data %q", ErrConfig, text)
	}
	if len(b) > bus.MaxLen {
		return nil, fmt.Errorf("%w: %d data bytes, max %d", ErrConfig, len(b), bus.MaxLen)
	}
	return b, nil
}

// ParseDelay parses a non-negative millisecond delay. Empty text means 0.
func ParseDelay(text string) (int, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: invalid delay %q", ErrConfig, text)
	}
	return v, nil
}

// FormatPayload renders bytes as space separated pairs, "aa bb".
func FormatPayload(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02x", c)
	}
	return strings.Join(parts, " ")
}

// FormatID renders an identifier the way exported logs show it, "0x100".
func FormatID(id uint32) string {
	return fmt.Sprintf("0x%x", id)
}

// ParseSlot builds a slot from operator text fields. The length follows the
// payload, as the editor derives it.
func ParseSlot(idText, dataText, delayText string, enabled bool) (Slot, error) {
	id, err := ParseID(idText)
	if err != nil {
		return Slot{}, err
	}
	payload, err := ParsePayload(dataText)
	if err != nil {
		return Slot{}, err
	}
	delay, err := ParseDelay(delayText)
	if err != nil {
		return Slot{}, err
	}
	return Slot{
		ID:      id,
		Length:  len(payload),
		Payload: payload,
		Delay:   delay,
		Enabled: enabled,
		Defined: true,
	}, nil
}
