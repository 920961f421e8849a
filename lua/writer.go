package lua

import (
	"bufio"
	"fmt"
	"io"

	"github.com/samaelod/anycan/types"
)

// WriteTestCase renders msgs as a Lua test case that ReadTestCase loads back.
func WriteTestCase(w io.Writer, name string, msgs []types.WriteMessage) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "-- %s\n", name)
	fmt.Fprintln(bw, "local case = {}")
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "-- MESSAGES ----------------------------------------")
	fmt.Fprintln(bw, "case.messages = {")
	for _, m := range msgs {
		fmt.Fprintln(bw, "\t{")
		fmt.Fprintf(bw, "\t\tdirection = %q,\n", "write")
		fmt.Fprintf(bw, "\t\tid = %q,\n", types.FormatID(m.ID))
		fmt.Fprintf(bw, "\t\tdlc = %d,\n", m.Length)
		fmt.Fprintf(bw, "\t\tdata = %q,\n", types.FormatPayload(m.Payload))
		fmt.Fprintf(bw, "\t\tdelay = %d,\n", m.Delay)
		fmt.Fprintln(bw, "\t},")
	}
	fmt.Fprintln(bw, "}")
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "return case")

	return bw.Flush()
}
