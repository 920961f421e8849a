package bus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Frame is a classical CAN (2.0A/2.0B) data frame.
type Frame struct {
	ID       uint32 // 11-bit (std) or 29-bit (ext)
	Extended bool   // true for 29-bit identifier
	RTR      bool   // remote transmission request
	Len      uint8  // 0..8
	Data     [8]byte
}

// Validation limits.
const (
	MaxStdID = 0x7FF
	MaxExtID = 0x1FFFFFFF
	MaxLen   = 8
)

// Linux can_frame layout.
const (
	frameSize  = 16
	canEffFlag = 0x80000000
	canRtrFlag = 0x40000000
	canErrFlag = 0x20000000
	canEffMask = 0x1FFFFFFF
	canStdMask = 0x7FF
)

var (
	ErrInvalidID  = errors.New("bus: invalid identifier")
	ErrInvalidLen = errors.New("bus: invalid data length")
)

// NewFrame builds a data frame for id and data. Identifiers above MaxStdID
// use extended addressing.
func NewFrame(id uint32, data []byte) (Frame, error) {
	var f Frame
	if len(data) > MaxLen {
		return f, ErrInvalidLen
	}
	f.ID = id
	f.Extended = id > MaxStdID
	f.Len = uint8(len(data))
	copy(f.Data[:], data)
	return f, f.Validate()
}

// Validate returns an error if the frame is not valid.
func (f Frame) Validate() error {
	if f.Len > MaxLen {
		return ErrInvalidLen
	}
	limit := uint32(MaxStdID)
	if f.Extended {
		limit = MaxExtID
	}
	if f.ID > limit {
		return ErrInvalidID
	}
	return nil
}

// Payload returns the used portion of Data.
func (f Frame) Payload() []byte {
	n := f.Len
	if n > MaxLen {
		n = MaxLen
	}
	return f.Data[:n]
}

// String renders the frame in candump style, e.g. "123 [2] DE AD".
func (f Frame) String() string {
	var b strings.Builder
	if f.Extended {
		fmt.Fprintf(&b, "%08X", f.ID)
	} else {
		fmt.Fprintf(&b, "%03X", f.ID)
	}
	fmt.Fprintf(&b, " [%d]", f.Len)
	if f.RTR {
		b.WriteString(" RTR")
		return b.String()
	}
	for _, c := range f.Payload() {
		fmt.Fprintf(&b, " %02X", c)
	}
	return b.String()
}

// MarshalBinary encodes the frame as a Linux SocketCAN struct can_frame
// (16 bytes, host byte order identifier).
//
// Layout:
//
//	0..3  can_id (with EFF/RTR flags)
//	4     can_dlc
//	5..7  padding
//	8..15 data
func (f Frame) MarshalBinary() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	id := f.ID
	if f.Extended {
		id |= canEffFlag
	}
	if f.RTR {
		id |= canRtrFlag
	}
	buf := make([]byte, frameSize)
	binary.NativeEndian.PutUint32(buf[0:4], id)
	buf[4] = f.Len
	copy(buf[8:16], f.Data[:])
	return buf, nil
}

// UnmarshalBinary decodes a frame from the SocketCAN can_frame layout.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < frameSize {
		return fmt.Errorf("bus: need %d bytes, got %d", frameSize, len(data))
	}
	f.setRawID(binary.NativeEndian.Uint32(data[0:4]))
	f.Len = data[4]
	copy(f.Data[:], data[8:16])
	return f.Validate()
}

// setRawID applies a raw can_id word (identifier plus flag bits) to f.
func (f *Frame) setRawID(id uint32) {
	f.Extended = id&canEffFlag != 0
	f.RTR = id&canRtrFlag != 0
	if f.Extended {
		f.ID = id & canEffMask
	} else {
		f.ID = id & canStdMask
	}
}

// RawID returns the can_id word with flag bits, as used by SocketCAN and
// LINKTYPE_CAN_SOCKETCAN captures.
func (f Frame) RawID() uint32 {
	id := f.ID
	if f.Extended {
		id |= canEffFlag
	}
	if f.RTR {
		id |= canRtrFlag
	}
	return id
}

// FromRawID builds a frame from a can_id word and payload. Error frames are
// rejected.
func FromRawID(raw uint32, data []byte) (Frame, error) {
	var f Frame
	if raw&canErrFlag != 0 {
		return f, fmt.Errorf("bus: error frame 0x%08X", raw)
	}
	if len(data) > MaxLen {
		return f, ErrInvalidLen
	}
	f.setRawID(raw)
	f.Len = uint8(len(data))
	copy(f.Data[:], data)
	return f, f.Validate()
}
