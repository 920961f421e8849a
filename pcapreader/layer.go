package pcapreader

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/samaelod/anycan/bus"
)

// LinkTypeSocketCAN is LINKTYPE_CAN_SOCKETCAN: a struct can_frame with the
// identifier in network byte order.
const LinkTypeSocketCAN = layers.LinkType(227)

const socketCANLen = 16

// LayerTypeSocketCAN decodes LINKTYPE_CAN_SOCKETCAN packet data.
var LayerTypeSocketCAN = gopacket.RegisterLayerType(1227, gopacket.LayerTypeMetadata{
	Name:    "SocketCAN",
	Decoder: gopacket.DecodeFunc(decodeSocketCAN),
})

// SocketCAN is one classic CAN frame as stored in a capture file.
type SocketCAN struct {
	layers.BaseLayer
	Frame bus.Frame
}

func (c *SocketCAN) LayerType() gopacket.LayerType { return LayerTypeSocketCAN }

func (c *SocketCAN) CanDecode() gopacket.LayerClass { return LayerTypeSocketCAN }

func (c *SocketCAN) NextLayerType() gopacket.LayerType { return gopacket.LayerTypeZero }

func (c *SocketCAN) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < 8 {
		df.SetTruncated()
		return fmt.Errorf("socketcan: %d bytes, need at least 8", len(data))
	}
	n := int(data[4])
	if n > bus.MaxLen {
		return fmt.Errorf("socketcan: length %d exceeds %d", n, bus.MaxLen)
	}
	if len(data) < 8+n {
		df.SetTruncated()
		return fmt.Errorf("socketcan: length %d but only %d data bytes", n, len(data)-8)
	}
	f, err := bus.FromRawID(binary.BigEndian.Uint32(data[0:4]), data[8:8+n])
	if err != nil {
		return err
	}
	c.Frame = f
	end := min(len(data), socketCANLen)
	c.Contents = data[:end]
	c.Payload = data[end:]
	return nil
}

// SerializeTo writes the frame padded to 16 bytes, the size the kernel hands
// to capture tools.
func (c *SocketCAN) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	if err := c.Frame.Validate(); err != nil {
		return err
	}
	out, err := b.PrependBytes(socketCANLen)
	if err != nil {
		return err
	}
	clear(out)
	binary.BigEndian.PutUint32(out[0:4], c.Frame.RawID())
	out[4] = c.Frame.Len
	copy(out[8:], c.Frame.Payload())
	return nil
}

func decodeSocketCAN(data []byte, p gopacket.PacketBuilder) error {
	c := &SocketCAN{}
	if err := c.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(c)
	return nil
}
