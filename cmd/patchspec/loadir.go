package main

import (
	"fmt"
	"os"

	"patchspec/internal/adapter"
	"patchspec/internal/errors"
	"patchspec/internal/irtext"
	"patchspec/internal/xlog"
)

// loadAdapter reads and parses an IR text module from path, wrapping
// it in a fresh C1 adapter.
func loadAdapter(path string) (*adapter.Adapter, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		xlog.Fatal(errors.KindConfigError, path, err)
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	prog, err := irtext.Parse(string(src))
	if err != nil {
		xlog.Fatal(errors.ErrorUnexpectedToken, path, err)
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return adapter.New(prog), nil
}
