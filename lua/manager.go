package lua

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samaelod/anycan/types"
)

// SaveToRecent saves msgs as a new Lua file in recentDir.
// It uses the original filename as a base and appends an incrementing number,
// so "foo.pcap" becomes "foo_1.lua", then "foo_2.lua".
// Returns the path to the newly created file.
func SaveToRecent(msgs []types.WriteMessage, originalPath, recentDir string) (string, error) {
	if recentDir == "" {
		recentDir = "recent"
	}

	if err := os.MkdirAll(recentDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create recent directory: %w", err)
	}

	baseName := filepath.Base(originalPath)
	nameWithoutExt := strings.TrimSuffix(baseName, filepath.Ext(baseName))

	var f *os.File
	var newPath string
	for counter := 1; ; counter++ {
		newPath = filepath.Join(recentDir, fmt.Sprintf("%s_%d.lua", nameWithoutExt, counter))

		// O_EXCL so two saves never pick the same name
		var err error
		f, err = os.OpenFile(newPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("failed to create test case file: %w", err)
		}
	}

	if err := WriteTestCase(f, nameWithoutExt, msgs); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write test case: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write test case: %w", err)
	}

	return newPath, nil
}
