//go:build mage

// Package main contains Mage build targets for labscout developer tooling.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// secretsDir holds one credential per file; see internal/secrets.
const secretsDir = ".secrets"

// secretFiles are created empty by Init so users know what to fill in.
var secretFiles = []string{
	"openai-api-key",
	"anthropic-api-key",
	"gemini-api-key",
	"semantic-scholar-api-key",
	"ncbi-api-key",
	"crossref-mailto",
}

const configTemplate = `# labscout configuration. Every key can also be set as LABSCOUT_<SECTION>_<KEY>.
timeout: 60s
default_limit: 3
search:
  timeout: 15s
  per_source_limit: 15
  enable_openalex: false
  requests_per_second: 0
understanding:
  provider: ""    # openai or anthropic; empty picks whichever key exists
fallback:
  provider: ""
embedding:
  provider: ""    # openai or genai
store:
  path: labscout.db
`

// Init creates .secrets/ with empty credential files and a starter
// labscout.yaml. Existing files are left alone.
func Init() error {
	if err := os.MkdirAll(secretsDir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", secretsDir, err)
	}
	for _, name := range secretFiles {
		path := filepath.Join(secretsDir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		fmt.Println("  ", path)
	}
	if _, err := os.Stat("labscout.yaml"); os.IsNotExist(err) {
		if err := os.WriteFile("labscout.yaml", []byte(configTemplate), 0o644); err != nil {
			return fmt.Errorf("writing labscout.yaml: %w", err)
		}
		fmt.Println("   labscout.yaml")
	}
	fmt.Println("Project initialized. Put API keys into .secrets/.")
	return nil
}

const (
	binDir  = "bin"
	binName = "labscout"
	cmdPkg  = "./cmd/labscout"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Vet runs go vet over the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs Vet and Test.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Stats prints Go production and test line counts per top-level directory
// and the word count of Markdown documentation.
func Stats() error {
	counts := map[string]*lineCount{}
	docWords := 0
	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(path) {
		case ".go":
			n, err := nonBlankLines(path)
			if err != nil {
				return err
			}
			top := strings.SplitN(filepath.ToSlash(path), "/", 2)[0]
			c := counts[top]
			if c == nil {
				c = &lineCount{}
				counts[top] = c
			}
			if strings.HasSuffix(path, "_test.go") {
				c.test += n
			} else {
				c.prod += n
			}
		case ".md":
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			docWords += len(strings.Fields(string(data)))
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(counts))
	for dir := range counts {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	var total lineCount
	fmt.Printf("%-12s  %8s  %8s\n", "Directory", "Prod", "Test")
	for _, dir := range dirs {
		c := counts[dir]
		fmt.Printf("%-12s  %8d  %8d\n", dir, c.prod, c.test)
		total.prod += c.prod
		total.test += c.test
	}
	fmt.Printf("%-12s  %8d  %8d\n", "total", total.prod, total.test)
	fmt.Printf("Words (documentation): %d\n", docWords)
	return nil
}

type lineCount struct {
	prod, test int
}

// skipDir reports whether a directory is outside the module's own code.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == binDir || name == "vendor"
}

func nonBlankLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n, nil
}
