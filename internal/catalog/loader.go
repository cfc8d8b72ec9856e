package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Loader produces the library. Loading happens per generation run so docs
// updates land without a restart.
type Loader func() (*Library, error)

// DirLoader reads the docs dumps under modelDir on each call.
func DirLoader(modelDir string) Loader {
	return func() (*Library, error) {
		return LoadDir(modelDir)
	}
}

// LoadDir reads component-lib/dump.json and icons/dump.json under dir. The
// icon dump is optional.
func LoadDir(dir string) (*Library, error) {
	componentDump, err := os.ReadFile(filepath.Join(dir, "component-lib", "dump.json"))
	if err != nil {
		return nil, fmt.Errorf("read component dump: %w", err)
	}
	iconDump, err := os.ReadFile(filepath.Join(dir, "icons", "dump.json"))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read icon dump: %w", err)
		}
		iconDump = nil
	}
	return Parse(componentDump, iconDump)
}

// Parse decodes raw dump JSON into a Library.
func Parse(componentDump, iconDump []byte) (*Library, error) {
	var components []ComponentDoc
	if err := json.Unmarshal(componentDump, &components); err != nil {
		return nil, fmt.Errorf("decode component dump: %w", err)
	}
	var icons []IconDoc
	if len(iconDump) > 0 {
		if err := json.Unmarshal(iconDump, &icons); err != nil {
			return nil, fmt.Errorf("decode icon dump: %w", err)
		}
	}
	return New(components, icons)
}
