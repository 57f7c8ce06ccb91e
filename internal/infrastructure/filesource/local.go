package filesource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// LocalStrategy reads a file or walks a directory tree on the local filesystem.
type LocalStrategy struct {
	logger *slog.Logger
}

// NewLocalStrategy builds the filesystem strategy.
func NewLocalStrategy(log *slog.Logger) *LocalStrategy {
	if log == nil {
		log = slog.Default()
	}
	return &LocalStrategy{logger: log}
}

// Kind reports the source kind served by this strategy.
func (l *LocalStrategy) Kind() domain.SourceKind {
	return domain.SourceKindLocal
}

// Files yields the location itself when it is a file, otherwise every file below it in lexical order.
func (l *LocalStrategy) Files(ctx context.Context, location string) ([]domain.CandidateFile, error) {
	root, err := filepath.Abs(strings.TrimPrefix(location, "file://"))
	if err != nil {
		return nil, fmt.Errorf("absolute path %s: %w", location, err)
	}

	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", root, ports.ErrLocationNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	if !info.IsDir() {
		return []domain.CandidateFile{candidate(root)}, nil
	}

	var files []domain.CandidateFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			l.logger.Warn("skip unreadable entry", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !isFile(path, d) {
			return nil
		}
		files = append(files, candidate(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return files, nil
}

// isFile accepts regular files and symlinks that point at regular files.
func isFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	target, err := os.Stat(path)
	return err == nil && target.Mode().IsRegular()
}

func candidate(path string) domain.CandidateFile {
	return domain.CandidateFile{
		Path:      path,
		Extension: strings.ToLower(filepath.Ext(path)),
	}
}
