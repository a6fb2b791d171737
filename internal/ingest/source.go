package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkordes/school-directory/internal/domain"
)

// DefaultCandidates lists the extract files in preference order: the variant
// with the most accurate coordinates first, the raw extract last.
func DefaultCandidates() []string {
	return []string{
		"nl_highschools_accurate_coordinates.csv",
		"nl_highschools_with_coordinates.csv",
		"nl_highschools_full.csv",
	}
}

// ResolveExtract returns the path of the first candidate that exists as a
// regular file in dir. It returns an error wrapping domain.ErrPrecondition
// when none does.
func ResolveExtract(dir string, candidates []string) (string, error) {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("ingest.ResolveExtract: %w", err)
		}
		if info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", fmt.Errorf("ingest.ResolveExtract: %w: no extract in %s (looked for %v)",
		domain.ErrPrecondition, dir, candidates)
}
