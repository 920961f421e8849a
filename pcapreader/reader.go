package pcapreader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/samaelod/anycan/types"
)

type packetSource interface {
	LinkType() layers.LinkType
	ReadPacketData() (data []byte, ci gopacket.CaptureInfo, err error)
}

func detectFormat(file *os.File) (format string, err error) {
	// Read first 4 bytes to check magic
	header := make([]byte, 4)
	n, err := io.ReadFull(file, header)
	if _, serr := file.Seek(0, io.SeekStart); serr != nil {
		return "", serr
	}
	if err != nil || n < 4 {
		return "", fmt.Errorf("file too short for a capture header")
	}

	magic := uint32(header[0]) | uint32(header[1])<<8 | uint32(header[2])<<16 | uint32(header[3])<<24

	// pcapng starts with a Section Header Block
	if magic == 0x0A0D0D0A {
		return "pcapng", nil
	}

	// Classic pcap, micro or nanosecond, either byte order
	if magic == 0xA1B2C3D4 || magic == 0xD4C3B2A1 || magic == 0xA1B23C4D || magic == 0x4D3CB2A1 {
		return "pcap", nil
	}

	return "", fmt.Errorf("unknown capture magic 0x%08X", magic)
}

func openPacketSource(file *os.File) (packetSource, error) {
	format, err := detectFormat(file)
	if err != nil {
		return nil, err
	}
	if format == "pcapng" {
		reader, err := pcapgo.NewNgReader(file, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, err
		}
		return reader, nil
	}
	reader, err := pcapgo.NewReader(file)
	if err != nil {
		return nil, err
	}
	return reader, nil
}

// ReadPCAP loads a SocketCAN capture as a test case. Every frame becomes a
// write message whose delay is the gap to the following frame.
func ReadPCAP(path string) (types.TestCase, error) {
	tc := types.TestCase{
		Path: path,
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	file, err := os.Open(path)
	if err != nil {
		return tc, fmt.Errorf("%w: %v", types.ErrLoad, err)
	}
	defer file.Close()

	source, err := openPacketSource(file)
	if err != nil {
		return tc, fmt.Errorf("%w: %s: %v", types.ErrLoad, path, err)
	}
	if lt := source.LinkType(); lt != LinkTypeSocketCAN {
		return tc, fmt.Errorf("%w: %s: link type %d is not SocketCAN", types.ErrLoad, path, lt)
	}

	packetSrc := gopacket.NewPacketSource(source, LayerTypeSocketCAN)
	packetSrc.DecodeOptions = gopacket.DecodeOptions{NoCopy: true}

	var stamps []time.Time
	for i := 1; ; i++ {
		packet, err := packetSrc.NextPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return tc, fmt.Errorf("%w: %s: packet %d: %v", types.ErrLoad, path, i, err)
		}
		if el := packet.ErrorLayer(); el != nil {
			tc.Warnings = append(tc.Warnings, fmt.Sprintf("packet %d skipped: %v", i, el.Error()))
			continue
		}
		canLayer, ok := packet.Layer(LayerTypeSocketCAN).(*SocketCAN)
		if !ok {
			continue
		}
		f := canLayer.Frame
		tc.Messages = append(tc.Messages, types.WriteMessage{
			ID:      f.ID,
			Length:  int(f.Len),
			Payload: append([]byte(nil), f.Payload()...),
		})
		stamps = append(stamps, packet.Metadata().Timestamp)
	}

	for i := 0; i+1 < len(stamps); i++ {
		if d := stamps[i+1].Sub(stamps[i]).Milliseconds(); d > 0 {
			tc.Messages[i].Delay = int(d)
		}
	}

	return tc, nil
}
