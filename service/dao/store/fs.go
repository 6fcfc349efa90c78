package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"

	"github.com/slateops/slate/service/dao"
)

// FsStore is a filesystem-backed implementation of dao.Service built on
// viant/afs, so the base URL can point at any supported scheme (plain paths,
// file://, mem:// in tests). One JSON document per record, named by key.
// Mutation goes through a store-level mutex; the pipeline is single-node so
// this is sufficient for concurrent-safe read-modify-write.
type FsStore[T any] struct {
	fs          afs.Service
	baseURL     string
	keySelector func(*T) string
	mu          sync.RWMutex
}

// NewFsStore creates a filesystem store rooted at baseURL.
func NewFsStore[T any](fs afs.Service, baseURL string, keySelector func(*T) string) *FsStore[T] {
	return &FsStore[T]{fs: fs, baseURL: baseURL, keySelector: keySelector}
}

func (s *FsStore[T]) recordURL(key string) string {
	return path.Join(s.baseURL, key+".json")
}

// Save persists a record as a JSON document.
func (s *FsStore[T]) Save(ctx context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilRecord
	}
	key := s.keySelector(v)
	if key == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fs.Upload(ctx, s.recordURL(key), file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save record %s: %w", key, err)
	}
	return nil
}

// Load reads a record by key, returning nil when absent.
func (s *FsStore[T]) Load(ctx context.Context, key string) (*T, error) {
	if key == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	URL := s.recordURL(key)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check record %s: %w", key, err)
	}
	if !exists {
		return nil, nil
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", key, err)
	}
	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", key, err)
	}
	return &record, nil
}

// Delete removes a record; deleting an absent record is not an error.
func (s *FsStore[T]) Delete(ctx context.Context, key string) error {
	if key == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.recordURL(key)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to check record %s: %w", key, err)
	}
	if !exists {
		return nil
	}
	if err := s.fs.Delete(ctx, URL); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", key, err)
	}
	return nil
}

// List returns all stored records.
func (s *FsStore[T]) List(ctx context.Context) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.baseURL, option.NewRecursive(false))
	if err != nil {
		if ok, _ := s.fs.Exists(ctx, s.baseURL); !ok {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	var out []*T
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.DownloadWithURL(ctx, object.URL())
		if err != nil {
			return nil, fmt.Errorf("failed to read record %s: %w", object.Name(), err)
		}
		var record T
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record %s: %w", object.Name(), err)
		}
		out = append(out, &record)
	}
	return out, nil
}

var _ dao.Service[string, any] = (*FsStore[any])(nil)
