package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalBucket stores objects as files under a root directory. The HTTP layer
// serves the same directory at the public base URL.
type LocalBucket struct {
	root    string
	baseURL string
}

func NewLocalBucket(root, baseURL string) (*LocalBucket, error) {
	if root == "" {
		root = "data/images"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create bucket dir: %w", err)
	}
	return &LocalBucket{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the directory holding the objects.
func (b *LocalBucket) Root() string {
	return b.root
}

func (b *LocalBucket) Put(_ context.Context, key, _ string, body io.Reader) (string, error) {
	path, err := b.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return b.baseURL + "/" + key, nil
}

func (b *LocalBucket) List(_ context.Context, prefix string) ([]string, error) {
	keys := []string{}
	err := filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *LocalBucket) Remove(_ context.Context, keys []string) error {
	for _, key := range keys {
		path, err := b.path(key)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", key, err)
		}
	}
	return nil
}

func (b *LocalBucket) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(b.root, clean), nil
}
