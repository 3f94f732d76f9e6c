package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile reads, parses and compiles a plan file (YAML or JSON by extension).
// A definition without a name is named after the file.
func LoadFile(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	def, err := NewParser().Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	plan, err := Compile(def)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return plan, nil
}
