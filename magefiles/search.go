//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search builds the CLI and runs one search for $DESCRIPTION (and the
// optional $FIELD), printing a table.
func Search() error {
	mg.Deps(Build)
	description := os.Getenv("DESCRIPTION")
	if description == "" {
		return fmt.Errorf("set DESCRIPTION to the research description to search for")
	}
	args := []string{"search", "--description", description}
	if field := os.Getenv("FIELD"); field != "" {
		args = append(args, "--field", field)
	}
	return sh.RunV(filepath.Join(binDir, binName), args...)
}
