// Package walker enumerates indexable files under a directory tree.
package walker

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo holds metadata about a discovered source file.
type FileInfo struct {
	Path    string // absolute
	RelPath string
	Size    int64
}

// maxFileSize is the largest file we'll consider (1 MB).
const maxFileSize = 1 << 20

// defaultIgnores are used when no .semdexignore file exists. Build output,
// dependency, and VCS-metadata directories.
var defaultIgnores = []string{
	".git",
	".svn",
	".hg",
	".vs",
	".vscode",
	".idea",
	".godot",
	".import",
	".mono",
	".semdex",
	"bin",
	"obj",
	"build",
	"dist",
	"node_modules",
	"packages",
	"vendor",
	"__pycache__",
}

// Walk traverses the directory tree rooted at root and sends discovered
// files on the returned channel. It only emits files whose extension is in
// allowedExts (keys without the leading dot), and skips any subtree whose
// directory matches an ignore pattern. Empty files are emitted; the caller
// decides how to count them. Cancelling the context stops the walk: both
// channels close even when the consumer has stopped reading, with the
// context error delivered on the error channel.
func Walk(ctx context.Context, root string, allowedExts map[string]bool) (<-chan FileInfo, <-chan error) {
	files := make(chan FileInfo, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		absRoot, err := filepath.Abs(root)
		if err != nil {
			errs <- err
			return
		}

		ignores := loadIgnorePatterns(absRoot)

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			if err != nil {
				return nil // skip errors, keep walking
			}

			if d.IsDir() {
				if path == absRoot {
					return nil
				}
				rel, _ := filepath.Rel(absRoot, path)
				if matchesIgnore(d.Name(), filepath.ToSlash(rel), ignores) {
					return filepath.SkipDir
				}
				return nil
			}

			// Skip symlinks.
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}

			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
			if !allowedExts[ext] {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}
			if info.Size() > maxFileSize {
				return nil
			}

			relPath, _ := filepath.Rel(absRoot, path)
			select {
			case files <- FileInfo{
				Path:    path,
				RelPath: filepath.ToSlash(relPath),
				Size:    info.Size(),
			}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return files, errs
}

// loadIgnorePatterns reads .semdexignore from the root. Missing file or no
// usable patterns means the defaults apply.
func loadIgnorePatterns(root string) []string {
	f, err := os.Open(filepath.Join(root, ".semdexignore"))
	if err != nil {
		return defaultIgnores
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if len(patterns) == 0 {
		return defaultIgnores
	}
	return patterns
}

// matchesIgnore checks if a directory name or relative path matches any
// ignore pattern.
func matchesIgnore(name, relPath string, patterns []string) bool {
	for _, p := range patterns {
		// Exact directory name match (e.g. "node_modules", ".git").
		if name == p {
			return true
		}
		// Path prefix match (e.g. "third_party/vendor").
		if strings.HasPrefix(relPath, p) {
			return true
		}
		// Glob match against the relative path or the name.
		if matched, _ := filepath.Match(p, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}
