package memory

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
)

// ImageStore is an in-memory object bucket.
type ImageStore struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

func NewImageStore(baseURL string) *ImageStore {
	return &ImageStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string][]byte),
	}
}

func (s *ImageStore) Put(_ context.Context, key, _ string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()
	return s.baseURL + "/" + key, nil
}

func (s *ImageStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *ImageStore) Remove(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.objects, key)
	}
	return nil
}

// Get returns a stored object.
func (s *ImageStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}
