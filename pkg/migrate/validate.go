package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

// Migration is one goose SQL file on disk.
type Migration struct {
	Version string
	Name    string
	Path    string
}

// ScanDir lists the SQL migrations in dir ordered by version. Files that are
// not .sql are ignored; badly named or duplicated versions are errors.
func ScanDir(dir string) ([]Migration, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	var out []Migration
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name
		out = append(out, Migration{Version: m[1], Name: m[2], Path: filepath.Join(dir, name)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// ValidateDir checks names and that every file has an Up section followed
// by a Down section. An empty directory is valid.
func ValidateDir(dir string) error {
	migrations, err := ScanDir(dir)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		b, err := os.ReadFile(m.Path)
		if err != nil {
			return fmt.Errorf("read file %q: %w", m.Path, err)
		}
		txt := string(b)
		up := strings.Index(txt, upMarker)
		down := strings.Index(txt, downMarker)
		switch {
		case up < 0:
			return fmt.Errorf("migration %s_%s missing %q", m.Version, m.Name, upMarker)
		case down < 0:
			return fmt.Errorf("migration %s_%s missing %q", m.Version, m.Name, downMarker)
		case down < up:
			return fmt.Errorf("migration %s_%s has its Down section before Up", m.Version, m.Name)
		}
	}
	return nil
}
