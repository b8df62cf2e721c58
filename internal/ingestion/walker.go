package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileEntry represents an ontology file to be imported.
type FileEntry struct {
	// Path is the absolute file path.
	Path string

	// RelPath is the path relative to the walked root.
	RelPath string

	// Format is the detected file format.
	Format Format

	// Content is the file content.
	Content []byte

	// SHA256 is the hash of the file content.
	SHA256 string
}

// Default patterns to ignore (in addition to .gitignore).
var defaultIgnorePatterns = []string{
	".git/",
	"node_modules/",
	".ontotree/",
	".venv/",
	"venv/",
	"dist/",
	"build/",
	"package.json",
	"package-lock.json",
	"tsconfig.json",
	".DS_Store",
}

// WalkOntologyFiles walks root and returns every supported ontology file,
// honoring .gitignore and the default ignore list. A root that is a file
// yields that single file.
func WalkOntologyFiles(root string) ([]FileEntry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		entry, err := readEntry(root, filepath.Dir(root))
		if err != nil {
			return nil, err
		}
		return []FileEntry{entry}, nil
	}

	patterns, err := loadGitignore(root)
	if err != nil {
		return nil, err
	}
	matcher := newMatcher(patterns)

	var entries []FileEntry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && shouldSkipDir(d.Name(), path, root, matcher) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isSupportedFile(d.Name()) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if matcher.Match(splitPath(relPath), false) {
			return nil
		}

		entry, err := readEntry(path, root)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})

	return entries, err
}

func readEntry(path, root string) (FileEntry, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return FileEntry{}, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return FileEntry{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileEntry{}, err
	}
	relPath, err := filepath.Rel(root, path)
	if err != nil {
		relPath = filepath.Base(path)
	}

	hash := sha256.Sum256(content)
	return FileEntry{
		Path:    abs,
		RelPath: relPath,
		Format:  format,
		Content: content,
		SHA256:  hex.EncodeToString(hash[:]),
	}, nil
}

// newMatcher combines the default ignore list with loaded patterns.
func newMatcher(patterns []gitignore.Pattern) gitignore.Matcher {
	all := make([]gitignore.Pattern, 0, len(defaultIgnorePatterns)+len(patterns))
	for _, p := range defaultIgnorePatterns {
		all = append(all, gitignore.ParsePattern(p, nil))
	}
	all = append(all, patterns...)
	return gitignore.NewMatcher(all)
}

// loadGitignore loads .gitignore patterns from root.
func loadGitignore(root string) ([]gitignore.Pattern, error) {
	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns, nil
}

// isSupportedFile checks if a file has a supported extension.
func isSupportedFile(filename string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// shouldSkipDir checks if a directory should be skipped.
func shouldSkipDir(name, path, root string, matcher gitignore.Matcher) bool {
	if name == ".git" {
		return true
	}

	relPath, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return matcher.Match(splitPath(relPath), true)
}

// splitPath splits a path into its components.
func splitPath(path string) []string {
	return strings.Split(path, string(filepath.Separator))
}
