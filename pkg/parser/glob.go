package parser

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ExpandGlobs expands a list of file paths and glob patterns into a
// deduplicated, sorted list of matching file paths. Patterns that don't
// match any files are returned as-is so the caller can report
// file-not-found errors precisely.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			if !seen[pattern] {
				seen[pattern] = true
				result = append(result, pattern)
			}
			continue
		}

		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				result = append(result, match)
			}
		}
	}

	sort.Strings(result)

	return result, nil
}

// DiscoverDir lists the files in dir that look like PostgreSQL log files:
// anything with a .log or .txt extension, or an extensionless name
// containing "postgres" or "pg". Empty files are excluded.
func DiscoverDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading log directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !looksLikeLogFile(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}

	sort.Strings(files)
	return files, nil
}

func looksLikeLogFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".log", ".txt":
		return true
	case "":
		lower := strings.ToLower(name)
		return strings.Contains(lower, "postgres") || strings.Contains(lower, "pg")
	}
	return false
}

// ReadFileList reads a file containing one log file path per line.
// Blank lines and lines starting with '#' are ignored.
func ReadFileList(path string) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided list path is expected
	if err != nil {
		return nil, fmt.Errorf("opening logfile list %s: %w", path, err)
	}
	defer f.Close()

	var files []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		files = append(files, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading logfile list %s: %w", path, err)
	}

	return files, nil
}
