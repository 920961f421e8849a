package pcapreader

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"

	"github.com/samaelod/anycan/types"
)

// WriteRecords writes captured records as a SocketCAN pcap. Each packet is
// stamped with ref plus the record's elapsed time.
func WriteRecords(w io.Writer, records []types.Record, ref time.Time) error {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(socketCANLen, LinkTypeSocketCAN); err != nil {
		return err
	}

	buf := gopacket.NewSerializeBuffer()
	for i, rec := range records {
		if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, &SocketCAN{Frame: rec.Frame}); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		data := buf.Bytes()
		ci := gopacket.CaptureInfo{
			Timestamp:     ref.Add(rec.Elapsed),
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := pw.WritePacket(ci, data); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}

// WriteRecordsFile writes the records to path. Nothing is created for an
// empty record set.
func WriteRecordsFile(path string, records []types.Record, ref time.Time) (written bool, err error) {
	if len(records) == 0 {
		return false, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("%w: %v", types.ErrExport, err)
	}
	if err := WriteRecords(f, records, ref); err != nil {
		f.Close()
		return false, fmt.Errorf("%w: %s: %v", types.ErrExport, path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("%w: %s: %v", types.ErrExport, path, err)
	}
	return true, nil
}
