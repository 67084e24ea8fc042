// ABOUTME: Immutable registry of IANA timezone names built once per process
// ABOUTME: Case-insensitive lookup backed by system zoneinfo or the embedded tzdata

package timezone

import (
	"archive/zip"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"
)

// Registry maps timezone names to locations. It is read-only after New.
type Registry struct {
	names     []string
	byLower   map[string]string
	locations map[string]*time.Location
}

// New builds a registry from candidate names. Names that do not load are
// skipped; UTC is always present.
func New(candidates []string) *Registry {
	r := &Registry{
		byLower:   make(map[string]string),
		locations: make(map[string]*time.Location),
	}
	r.add("UTC", time.UTC)
	for _, name := range candidates {
		if _, ok := r.locations[name]; ok {
			continue
		}
		loc, err := time.LoadLocation(name)
		if err != nil || name == "Local" {
			continue
		}
		r.add(name, loc)
	}
	sort.Strings(r.names)
	return r
}

func (r *Registry) add(name string, loc *time.Location) {
	r.names = append(r.names, name)
	r.byLower[strings.ToLower(name)] = name
	r.locations[name] = loc
}

// Lookup resolves a name case-insensitively.
func (r *Registry) Lookup(name string) (*time.Location, bool) {
	canonical, ok := r.byLower[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return r.locations[canonical], true
}

// Names returns every known name in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return New(discoverNames())
})

// Default returns the process-wide registry, built on first use.
func Default() *Registry {
	return defaultRegistry()
}

func zoneinfoSources() []string {
	var sources []string
	if env := os.Getenv("ZONEINFO"); env != "" {
		sources = append(sources, env)
	}
	sources = append(sources,
		"/usr/share/zoneinfo",
		"/usr/share/lib/zoneinfo",
		"/usr/lib/locale/TZ",
		filepath.Join(runtime.GOROOT(), "lib", "time", "zoneinfo.zip"),
	)
	return sources
}

func discoverNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, src := range zoneinfoSources() {
		var found []string
		if strings.HasSuffix(src, ".zip") {
			found = namesFromZip(src)
		} else {
			found = namesFromDir(src)
		}
		for _, n := range found {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}

func namesFromDir(root string) []string {
	var names []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}
		if d.IsDir() {
			if rel == "posix" || rel == "right" || rel == "Etc/posix" {
				return fs.SkipDir
			}
			return nil
		}
		if isZoneName(rel) {
			names = append(names, filepath.ToSlash(rel))
		}
		return nil
	})
	return names
}

func namesFromZip(path string) []string {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil
	}
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() && isZoneName(f.Name) {
			names = append(names, f.Name)
		}
	}
	return names
}

// isZoneName filters out data files that live next to zone files.
func isZoneName(name string) bool {
	if name == "" || strings.Contains(name, ".") {
		return false
	}
	first := name[0]
	return first >= 'A' && first <= 'Z' && !strings.HasPrefix(name, "SECURITY")
}
