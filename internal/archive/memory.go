package archive

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Memory keeps archived attachments in process memory. Used by tests.
type Memory struct {
	mu      sync.Mutex
	objects map[string]Object
}

// Object is one archived attachment.
type Object struct {
	ContentType string
	Data        []byte
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]Object)}
}

func (s *Memory) Driver() string { return "memory" }

func (s *Memory) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = Object{ContentType: contentType, Data: buf}
	return "memory://" + key, nil
}

func (s *Memory) Get(ctx context.Context, key string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("archive key %q: %w", key, ErrNotFound)
	}
	buf := make([]byte, len(obj.Data))
	copy(buf, obj.Data)
	return buf, obj.ContentType, nil
}

func (s *Memory) Head(ctx context.Context, key string) (*Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("archive key %q: %w", key, ErrNotFound)
	}
	return &Info{Key: key, Size: int64(len(obj.Data)), ContentType: obj.ContentType}, nil
}

func (s *Memory) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *Memory) List(ctx context.Context, prefix string) ([]Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	infos := make([]Info, 0, len(keys))
	for _, key := range keys {
		obj := s.objects[key]
		infos = append(infos, Info{Key: key, Size: int64(len(obj.Data)), ContentType: obj.ContentType})
	}
	return infos, nil
}

// Object returns the stored object for key, if present.
func (s *Memory) Object(key string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Len reports how many objects the store holds.
func (s *Memory) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
