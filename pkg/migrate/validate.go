package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"
)

var (
	sqlFileRe     = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
	createTableRe = regexp.MustCompile(`(?i)create\s+table\s+(if\s+not\s+exists\s+)?([a-z0-9_."]+)`)
)

// ValidateDir checks the migration files under dir on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	if dir == EmbeddedDir {
		return ValidateEmbedded()
	}
	return validateFS(os.DirFS(dir), ".")
}

// ValidateEmbedded checks the migrations compiled into the binary.
func ValidateEmbedded() error {
	return validateFS(embedded, EmbeddedDir)
}

// validateFS enforces goose naming and markers. Tables must be created with
// IF NOT EXISTS because a hosted remote may already carry them.
func validateFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		name := e.Name()

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		version := m[1]
		if prev, ok := seen[version]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name)
		}
		seen[version] = name

		b, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read file %q: %w", name, err)
		}
		if err := validateBody(name, string(b)); err != nil {
			return err
		}
	}
	return nil
}

func validateBody(name, txt string) error {
	up := strings.Index(txt, "-- +goose Up")
	down := strings.Index(txt, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	case down < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	case down < up:
		return fmt.Errorf("migration %q has Down before Up", name)
	}

	for _, m := range createTableRe.FindAllStringSubmatch(txt[up:down], -1) {
		if strings.TrimSpace(m[1]) == "" {
			return fmt.Errorf("migration %q creates table %s without IF NOT EXISTS", name, m[2])
		}
	}
	return nil
}
