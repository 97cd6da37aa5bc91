// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads labscout credentials from a directory holding one
// file per credential. The file name is the key and its trimmed contents
// are the value.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/labscout/internal/logging"
)

// Keys understood by the search pipeline.
const (
	OpenAIAPIKey          = "openai-api-key"
	AnthropicAPIKey       = "anthropic-api-key"
	GeminiAPIKey          = "gemini-api-key"
	SemanticScholarAPIKey = "semantic-scholar-api-key"
	NCBIAPIKey            = "ncbi-api-key"
	CrossRefMailto        = "crossref-mailto"
)

// Known lists every key the pipeline reads, in a stable order.
var Known = []string{
	OpenAIAPIKey,
	AnthropicAPIKey,
	GeminiAPIKey,
	SemanticScholarAPIKey,
	NCBIAPIKey,
	CrossRefMailto,
}

// Set maps a key to its credential.
type Set map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory
// yields an empty Set. Files that cannot be read are logged and skipped,
// and files that are blank after trimming are ignored.
func Load(dir string, logger *zap.Logger) (Set, error) {
	logger = logging.OrNop(logger)

	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Set{}, nil
	case err != nil:
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	set := make(Set, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("skipping unreadable secret", zap.String("key", name), zap.Error(err))
			continue
		}
		if v := strings.TrimSpace(string(raw)); v != "" {
			set[name] = v
		}
	}
	return set, nil
}

// EnvName is the environment variable consulted for key, e.g.
// "ncbi-api-key" reads NCBI_API_KEY.
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// WithEnv returns a copy of s in which every Known key missing from s is
// taken from getenv(EnvName(key)). Files take precedence over the
// environment.
func (s Set) WithEnv(getenv func(string) string) Set {
	out := make(Set, len(s)+len(Known))
	for k, v := range s {
		out[k] = v
	}
	for _, k := range Known {
		if out[k] != "" {
			continue
		}
		if v := strings.TrimSpace(getenv(EnvName(k))); v != "" {
			out[k] = v
		}
	}
	return out
}

// Get returns explicit when it is non-empty and the stored value for key
// otherwise. Configuration set by the user always beats a stored secret.
func (s Set) Get(key, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return s[key]
}

// Keys returns the stored key names, sorted, for logging without values.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
