// Package discover enumerates candidate source files under a project
// root, applying the closed language table, the configured
// include/exclude globs, and the size ceiling.
package discover

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/codeatlas/codeatlas/internal/errs"
	"github.com/codeatlas/codeatlas/internal/lang"
)

// ignoreDirs are directory names always skipped during discovery.
var ignoreDirs = map[string]bool{
	".git": true, ".hg": true, ".svn": true, ".idea": true, ".vscode": true,
	".cache": true, ".venv": true, "venv": true, "env": true,
	"__pycache__": true, ".mypy_cache": true, ".pytest_cache": true,
	"node_modules": true, "bower_components": true, ".pnpm-store": true,
	"vendor": true, "target": true, "build": true, "dist": true,
	"out": true, "bin": true, "obj": true, "coverage": true,
	".codeatlas": true,
}

// FileInfo is one discovered source file.
type FileInfo struct {
	Path     string // absolute path
	RelPath  string // slash-separated, relative to the root
	Language lang.Language
	Size     int64
	ModTime  time.Time
}

// Warning records a skipped file worth surfacing.
type Warning struct {
	Path    string
	Kind    errs.Kind
	Message string
}

// Options configures discovery.
type Options struct {
	// Include globs; empty means everything.
	Include []string
	// Exclude globs, gitignore syntax.
	Exclude []string
	// MaxFileSize in bytes; 0 disables the ceiling.
	MaxFileSize int64
	// Languages restricts discovery; empty means all supported.
	Languages []lang.Language
}

// Discover walks root and returns candidate files plus skip warnings.
// Cancellation is observed between directory entries.
func Discover(ctx context.Context, root string, opts Options) ([]FileInfo, []Warning, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, err
	}

	var include, exclude *ignore.GitIgnore
	if len(opts.Include) > 0 {
		include = ignore.CompileIgnoreLines(opts.Include...)
	}
	if len(opts.Exclude) > 0 {
		exclude = ignore.CompileIgnoreLines(opts.Exclude...)
	}

	enabled := map[lang.Language]bool{}
	for _, l := range opts.Languages {
		enabled[l] = true
	}

	var files []FileInfo
	var warnings []Warning

	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel != "." && (ignoreDirs[info.Name()] || (exclude != nil && exclude.MatchesPath(rel))) {
				return filepath.SkipDir
			}
			return nil
		}

		if exclude != nil && exclude.MatchesPath(rel) {
			return nil
		}
		if include != nil && !include.MatchesPath(rel) {
			return nil
		}

		l, ok := lang.LanguageForExtension(strings.ToLower(filepath.Ext(path)))
		if !ok {
			// Silently skip stray files, but warn when the include set
			// explicitly asked for one we cannot parse.
			if include != nil && include.MatchesPath(rel) {
				warnings = append(warnings, Warning{
					Path: rel, Kind: errs.LanguageUnsupported,
					Message: "no grammar for extension " + filepath.Ext(path),
				})
			}
			return nil
		}
		if len(enabled) > 0 && !enabled[l] {
			return nil
		}

		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			warnings = append(warnings, Warning{
				Path: rel, Kind: errs.OversizedFile,
				Message: "exceeds configured maxFileSize",
			})
			return nil
		}

		files = append(files, FileInfo{
			Path:     path,
			RelPath:  rel,
			Language: l,
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return files, warnings, nil
}
