package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
)

type Object struct {
	Data        []byte
	ContentType string
	PublicRead  bool
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]Object
}

func NewMemory(bucket string) *Memory {
	return &Memory{bucket: bucket, objects: make(map[string]Object)}
}

func (m *Memory) Bucket() string { return m.bucket }

type memoryWriter struct {
	bytes.Buffer
	commit  func([]byte)
	aborted bool
}

func (w *memoryWriter) Close() error {
	if !w.aborted {
		w.commit(w.Bytes())
	}
	return nil
}

func (w *memoryWriter) Abort() { w.aborted = true }

func (m *Memory) Create(_ context.Context, fullPath string, opts WriteOptions) (Writer, error) {
	if _, _, err := SplitPath(fullPath); err != nil {
		return nil, err
	}
	return &memoryWriter{commit: func(data []byte) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.objects[fullPath] = Object{
			Data:        append([]byte(nil), data...),
			ContentType: opts.ContentType,
			PublicRead:  opts.PublicRead,
		}
	}}, nil
}

func (m *Memory) Open(_ context.Context, fullPath string) (io.ReadCloser, error) {
	obj, ok := m.Get(fullPath)
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.Data)), nil
}

func (m *Memory) PublicURL(fullPath string) string {
	return "https://storage.googleapis.com" + fullPath
}

// Get returns a copy of the stored object.
func (m *Memory) Get(fullPath string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[fullPath]
	if !ok {
		return Object{}, false
	}
	obj.Data = append([]byte(nil), obj.Data...)
	return obj, true
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
