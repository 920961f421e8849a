package lua

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"

	"github.com/samaelod/anycan/bus"
	"github.com/samaelod/anycan/types"
)

// row is one entry of the messages array. Loose types let a table use
// numbers or strings for id, delay and dlc.
type row struct {
	Direction string
	ID        any
	Data      any
	Delay     any
	DLC       any
}

// ReadTestCase runs a Lua file that returns either a table with a messages
// array or the array itself, and keeps its write rows. Rows that cannot be
// used are skipped with a warning.
func ReadTestCase(path string) (types.TestCase, error) {
	tc := types.TestCase{
		Path: path,
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	L := lua.NewState()
	defer L.Close()

	// Execute Lua file
	if err := L.DoFile(path); err != nil {
		return tc, fmt.Errorf("%w: %v", types.ErrLoad, err)
	}

	table, ok := L.Get(-1).(*lua.LTable)
	if !ok {
		return tc, fmt.Errorf("%w: %s did not return a table", types.ErrLoad, path)
	}
	if msgs, ok := table.RawGetString("messages").(*lua.LTable); ok {
		table = msgs
	}

	for i := 1; i <= table.Len(); i++ {
		rt, ok := table.RawGetInt(i).(*lua.LTable)
		if !ok {
			tc.Warnings = append(tc.Warnings, fmt.Sprintf("row %d: not a table", i))
			continue
		}
		var r row
		if err := gluamapper.Map(rt, &r); err != nil {
			tc.Warnings = append(tc.Warnings, fmt.Sprintf("row %d: %v", i, err))
			continue
		}
		msg, keep, err := r.message()
		if err != nil {
			tc.Warnings = append(tc.Warnings, fmt.Sprintf("row %d: %v", i, err))
			continue
		}
		if keep {
			tc.Messages = append(tc.Messages, msg)
		}
	}

	return tc, nil
}

// message converts a row. keep is false for read rows.
func (r row) message() (msg types.WriteMessage, keep bool, err error) {
	switch strings.ToLower(strings.TrimSpace(r.Direction)) {
	case "", "write":
	case "read":
		return msg, false, nil
	default:
		return msg, false, fmt.Errorf("unknown direction %q", r.Direction)
	}

	switch v := r.ID.(type) {
	case string:
		msg.ID, err = types.ParseID(v)
	case float64:
		var n int
		n, err = wholeNumber(v, bus.MaxExtID)
		msg.ID = uint32(n)
	case nil:
		err = fmt.Errorf("missing id")
	default:
		err = fmt.Errorf("id has type %T", v)
	}
	if err != nil {
		return msg, false, err
	}

	switch v := r.Data.(type) {
	case string:
		msg.Payload, err = types.ParsePayload(v)
	case nil:
		msg.Payload = []byte{}
	default:
		err = fmt.Errorf("data must be hex text, got %T", v)
	}
	if err != nil {
		return msg, false, err
	}
	msg.Length = len(msg.Payload)

	if msg.Delay, err = optionalInt(r.Delay, "delay", math.MaxInt32); err != nil {
		return msg, false, err
	}
	if r.DLC != nil {
		if msg.Length, err = optionalInt(r.DLC, "dlc", bus.MaxLen); err != nil {
			return msg, false, err
		}
	}
	return msg, true, nil
}

func optionalInt(v any, what string, limit int) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		n, err := wholeNumber(x, limit)
		if err != nil {
			return 0, fmt.Errorf("%s: %v", what, err)
		}
		return n, nil
	case string:
		if strings.TrimSpace(x) == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil || n < 0 || n > limit {
			return 0, fmt.Errorf("invalid %s %q", what, x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s has type %T", what, v)
	}
}

func wholeNumber(f float64, limit int) (int, error) {
	if f < 0 || f != math.Trunc(f) || f > float64(limit) {
		return 0, fmt.Errorf("%v out of range 0..%d", f, limit)
	}
	return int(f), nil
}
