package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/samaelod/anycan/types"
)

// TimestampLayout renders day of month, hour, minute and second.
const TimestampLayout = "02:15:04:05"

var exportHeader = []string{"Timestamp", "ID", "DLC", "Data", "Delay (ms)"}

type ExportResult struct {
	Path    string
	Rows    int
	Skipped bool // nothing to export, no file written
}

// AbsoluteTime reconstructs the wall clock time of a record from the capture
// epoch.
func AbsoluteTime(ref time.Time, rec types.Record) time.Time {
	return ref.Add(rec.Elapsed)
}

// Export writes the records as CSV rows in capture order.
func Export(w io.Writer, records []types.Record, ref time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			AbsoluteTime(ref, rec).Format(TimestampLayout),
			types.FormatID(rec.Frame.ID),
			strconv.Itoa(int(rec.Frame.Len)),
			types.FormatPayload(rec.Frame.Payload()),
			"0",
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFile writes the records to path. An empty record set is skipped and
// no file is created.
func ExportFile(path string, records []types.Record, ref time.Time) (ExportResult, error) {
	res := ExportResult{Path: path, Rows: len(records)}
	if len(records) == 0 {
		res.Skipped = true
		return res, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return res, fmt.Errorf("%w: %v", types.ErrExport, err)
	}
	if err := Export(f, records, ref); err != nil {
		f.Close()
		return res, fmt.Errorf("%w: %s: %v", types.ErrExport, path, err)
	}
	if err := f.Close(); err != nil {
		return res, fmt.Errorf("%w: %s: %v", types.ErrExport, path, err)
	}
	return res, nil
}
