package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
)

type testRecord struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

func recordKey(r *testRecord) string { return r.ID }

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[string, testRecord](recordKey)

	loaded, err := s.Load(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, loaded)

	assert.Error(t, s.Save(ctx, nil))
	assert.NoError(t, s.Save(ctx, &testRecord{ID: "r1", Value: 1}))
	assert.NoError(t, s.Save(ctx, &testRecord{ID: "r1", Value: 2}))

	loaded, err = s.Load(ctx, "r1")
	assert.NoError(t, err)
	if assert.NotNil(t, loaded) {
		assert.Equal(t, 2, loaded.Value)
	}

	assert.NoError(t, s.Delete(ctx, "r1"))
	loaded, err = s.Load(ctx, "r1")
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFsStore(t *testing.T) {
	ctx := context.Background()
	s := NewFsStore[testRecord](afs.New(), "mem://localhost/slate/records", recordKey)

	assert.NoError(t, s.Save(ctx, &testRecord{ID: "r1", Value: 1}))
	assert.NoError(t, s.Save(ctx, &testRecord{ID: "r2", Value: 2}))

	loaded, err := s.Load(ctx, "r1")
	assert.NoError(t, err)
	if assert.NotNil(t, loaded) {
		assert.Equal(t, 1, loaded.Value)
	}

	all, err := s.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	assert.NoError(t, s.Delete(ctx, "r1"))
	loaded, err = s.Load(ctx, "r1")
	assert.NoError(t, err)
	assert.Nil(t, loaded)

	// deleting twice is a no-op
	assert.NoError(t, s.Delete(ctx, "r1"))
}
