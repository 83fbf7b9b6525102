package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var fileNamePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// Migration is one versioned schema file.
type Migration struct {
	Version     string
	Description string
	File        string
	SQL         string
	Checksum    string
}

// Scan reads every *.sql file of dir inside fsys, sorted by numeric version.
func Scan(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migration directory %s: %w", dir, err)
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		matches := fileNamePattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			return nil, &MigrationError{File: entry.Name(), Operation: "validate filename", Err: ErrInvalidMigrationFile}
		}
		number, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, &MigrationError{File: entry.Name(), Operation: "parse version", Err: ErrInvalidMigrationFile}
		}
		if other, ok := seen[number]; ok {
			return nil, &MigrationError{
				Version:   matches[1],
				File:      entry.Name(),
				Operation: "check duplicates",
				Err:       fmt.Errorf("%w: also declared by %s", ErrDuplicateVersion, other),
			}
		}
		seen[number] = entry.Name()

		raw, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		content := string(raw)
		if len(splitStatements(content)) == 0 {
			return nil, &MigrationError{Version: matches[1], File: entry.Name(), Operation: "parse", Err: ErrInvalidMigrationFile}
		}
		sum := sha256.Sum256(raw)
		migrations = append(migrations, Migration{
			Version:     matches[1],
			Description: strings.ReplaceAll(matches[2], "_", " "),
			File:        entry.Name(),
			SQL:         content,
			Checksum:    hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		vi, _ := strconv.Atoi(migrations[i].Version)
		vj, _ := strconv.Atoi(migrations[j].Version)
		return vi < vj
	})
	return migrations, nil
}

// splitStatements breaks a file into statements on semicolons, dropping
// comment-only lines. Statements must not embed semicolons in literals.
func splitStatements(content string) []string {
	var statements []string
	for _, raw := range strings.Split(content, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			lines = append(lines, trimmed)
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}
	return statements
}
