package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rainycape/unidecode"

	"tunesport/internal/config"
	"tunesport/internal/library"
)

var (
	ErrNoLocation = errors.New("track has no location")
	ErrNotFileURL = errors.New("location is not a file URL")
)

// Locator turns track locations into local file paths, rewriting
// prefixes with the configured path mappings.
type Locator struct {
	mappings []config.PathMapping
}

// NewLocator keeps a copy of mappings ordered longest prefix first.
func NewLocator(mappings []config.PathMapping) *Locator {
	sorted := append([]config.PathMapping(nil), mappings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].From) > len(sorted[j].From)
	})
	return &Locator{mappings: sorted}
}

// Path returns the local path of t.
func (l *Locator) Path(t *library.Track) (string, error) {
	if t.Location == nil {
		return "", ErrNoLocation
	}
	if t.Location.Scheme != "file" {
		return "", fmt.Errorf("%w: %s", ErrNotFileURL, t.Location.Scheme)
	}
	return l.Map(t.Location.Path), nil
}

// Map applies the first matching mapping to p. Prefixes only match on
// path boundaries, so /a does not match /ab.
func (l *Locator) Map(p string) string {
	for _, m := range l.mappings {
		if hasPathPrefix(p, m.From) {
			rest := strings.TrimPrefix(p, strings.TrimSuffix(m.From, "/"))
			return filepath.FromSlash(strings.TrimSuffix(m.To, "/") + rest)
		}
	}
	return filepath.FromSlash(p)
}

func hasPathPrefix(p, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

var invalidNameChars = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_",
)

// SafeName makes name usable as a single path element. With ascii set,
// non-ASCII letters are transliterated.
func SafeName(name string, ascii bool) string {
	if ascii {
		name = unidecode.Unidecode(name)
	}
	name = strings.TrimSpace(invalidNameChars.Replace(name))
	name = strings.TrimRight(name, ". ")
	if name == "" {
		return "_"
	}
	return name
}

// uniqueNames hands out names that are unique within one directory,
// case-insensitively, by appending " (2)", " (3)" and so on.
type uniqueNames map[string]struct{}

func (u uniqueNames) claim(name, ext string) string {
	candidate := name + ext
	for n := 2; ; n++ {
		key := strings.ToLower(candidate)
		if _, taken := u[key]; !taken {
			u[key] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s (%d)%s", name, n, ext)
	}
}
