package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// FS archives attachments under a local directory. Keys map to relative
// paths below the root. Content types are not persisted; reads derive
// them from the key's extension.
type FS struct {
	root string
}

func NewFS(root string) (*FS, error) {
	if root == "" {
		return nil, fmt.Errorf("archive directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving archive directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &FS{root: abs}, nil
}

func (s *FS) Driver() string { return "fs" }

// path maps key to an absolute path, rejecting keys that climb out of
// the archive root.
func (s *FS) path(key string) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive key %q escapes the archive directory", key)
	}
	return path, nil
}

func (s *FS) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating archive subdirectory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing archive file: %w", err)
	}
	return path, nil
}

func (s *FS) Get(ctx context.Context, key string) ([]byte, string, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", fmt.Errorf("archive key %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading archive file: %w", err)
	}
	return data, mime.TypeByExtension(filepath.Ext(key)), nil
}

func (s *FS) Head(ctx context.Context, key string) (*Info, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("archive key %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("stat archive file: %w", err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("archive key %q: %w", key, ErrNotFound)
	}
	return &Info{Key: key, Size: fi.Size(), ContentType: mime.TypeByExtension(filepath.Ext(key))}, nil
}

func (s *FS) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting archive file: %w", err)
	}
	return nil
}

// List walks the archive root. WalkDir visits lexically, so keys come
// back ordered.
func (s *FS) List(ctx context.Context, prefix string) ([]Info, error) {
	var infos []Info
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		infos = append(infos, Info{Key: key, Size: fi.Size(), ContentType: mime.TypeByExtension(filepath.Ext(key))})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing archive directory: %w", err)
	}
	return infos, nil
}
