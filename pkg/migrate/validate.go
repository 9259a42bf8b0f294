package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var migrationFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks every .sql file in dir: the name must be
// YYYYMMDDHHMMSS_slug.sql, versions must be unique, and both goose
// sections must be present with Up before Down.
func ValidateDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	versions := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".sql" {
			continue
		}
		match := migrationFileRe.FindStringSubmatch(name)
		if match == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := versions[match[1]]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", match[1], prev, name)
		}
		versions[match[1]] = name

		if err := validateFile(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	if len(versions) == 0 {
		return fmt.Errorf("no migrations found in %q", dir)
	}
	return nil
}

func validateFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file %q: %w", path, err)
	}
	text := string(raw)
	up := strings.Index(text, "-- +goose Up")
	down := strings.Index(text, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", filepath.Base(path))
	case down < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", filepath.Base(path))
	case down < up:
		return fmt.Errorf("migration %q declares Down before Up", filepath.Base(path))
	}
	return nil
}
