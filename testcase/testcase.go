// Package testcase finds and loads test case sources. Lua tables and
// SocketCAN captures are supported.
package testcase

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samaelod/anycan/lua"
	"github.com/samaelod/anycan/pcapreader"
	"github.com/samaelod/anycan/types"
)

// Extensions lists the file types Load understands.
var Extensions = []string{".lua", ".pcap", ".pcapng", ".cap"}

// Supported reports whether path has a test case extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// List returns the test case files directly inside dir, sorted by name.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrLoad, err)
	}
	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !Supported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Load reads one test case, choosing the reader by extension.
func Load(path string) (types.TestCase, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lua":
		return lua.ReadTestCase(path)
	case ".pcap", ".pcapng", ".cap":
		return pcapreader.ReadPCAP(path)
	default:
		return types.TestCase{Path: path}, fmt.Errorf("%w: unsupported test case %s", types.ErrLoad, path)
	}
}
