package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"structcalc/core/types"
	"structcalc/core/workspace"
	apperrors "structcalc/internal/errors"
)

func sampleSnapshot() types.WorkspaceSnapshot {
	in := types.DefaultInput().WithProjectType("V.2")
	in.Area = 640
	return types.WorkspaceSnapshot{
		Name: "Office",
		Projects: []types.SavedProject{
			{ID: "a", Name: "Hall", LastModified: 1700000000000, Data: in},
			{ID: "b", Name: "Old", LastModified: 1600000000000, Data: types.DefaultInput(), IsArchived: true},
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "workspace.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Projects)

	require.NoError(t, store.Save(ctx, sampleSnapshot()))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileStoreReadsLegacyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"x","name":"Legacy","lastModified":1,"data":{},"isArchived":false}]`), 0644))

	store, err := NewFileStore(path)
	require.NoError(t, err)
	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Projects, 1)
	assert.Equal(t, "Legacy", snap.Projects[0].Name)
	assert.Equal(t, "", snap.Name)
}

func TestFileStoreRepairsMistypedRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "workspace.json")
	data := `{"name":"Office","projects":[
		{"id":1700000000000,"name":"a","lastModified":"1700000000000","data":{"projectType":"II.1"}},
		{"id":"b","name":"b","lastModified":5,"data":{"projectType":"V.2","area":"450"},"isArchived":1},
		42
	]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	store, err := NewFileStore(path)
	require.NoError(t, err)
	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Office", snap.Name)
	require.Len(t, snap.Projects, 2)
	assert.Equal(t, "1700000000000", snap.Projects[0].ID)
	assert.Equal(t, int64(1700000000000), snap.Projects[0].LastModified)
	assert.Equal(t, 450.0, snap.Projects[1].Data.Area)
	assert.True(t, snap.Projects[1].IsArchived)

	w, err := workspace.Open(ctx, store)
	require.NoError(t, err)
	assert.Len(t, w.List(), 2)
}

func TestFileStoreEmptySnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"","projects":null}`), 0644))

	store, err := NewFileStore(path)
	require.NoError(t, err)
	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Projects)
	assert.Equal(t, "", snap.Name)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"projects": [`), 0644))

	store, err := NewFileStore(path)
	require.NoError(t, err)
	_, err = store.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.TypeStorage, apperrors.TypeOf(err))
}

func TestWorkspaceOverFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "workspace.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	w, err := workspace.Open(ctx, store)
	require.NoError(t, err)

	in := types.DefaultInput().WithProjectType("II.1")
	in.ObjectName = "House"
	saved, err := w.Save(ctx, in, "", false)
	require.NoError(t, err)
	require.NoError(t, w.Rename(ctx, "Office"))

	reopened, err := workspace.Open(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "Office", reopened.Name())
	got, err := reopened.Get(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	snap := sampleSnapshot()
	require.NoError(t, store.Save(ctx, snap))
	snap.Projects[0].Name = "mutated"

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hall", got.Projects[0].Name)
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	require.NoError(t, client.Ping(context.Background()).Err())
	return client, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, mr := setupTestRedis(t)
	store := NewRedisStoreWithClient(client, RedisOptions{Key: "test:ws"})
	defer store.Close()

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Projects)

	require.NoError(t, store.Save(ctx, sampleSnapshot()))
	assert.True(t, mr.Exists("test:ws"))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)
}

func TestRedisStoreGivesUpAfterRetries(t *testing.T) {
	ctx := context.Background()
	client, mr := setupTestRedis(t)
	store := NewRedisStoreWithClient(client, RedisOptions{MaxRetries: 2, RetryInterval: time.Millisecond})

	mr.SetError("ERR injected failure")
	err := store.Save(ctx, sampleSnapshot())
	require.Error(t, err)
	assert.Equal(t, apperrors.TypeStorage, apperrors.TypeOf(err))

	mr.SetError("")
	require.NoError(t, store.Save(ctx, sampleSnapshot()))
	assert.True(t, mr.Exists(DefaultRedisKey))
}

func TestRedisStoreStopsOnCancel(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStoreWithClient(client, RedisOptions{MaxRetries: 50, RetryInterval: 10 * time.Millisecond})
	mr.SetError("ERR injected failure")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Load(ctx)
	assert.Error(t, err)
}

func TestStoreFactory(t *testing.T) {
	dir := t.TempDir()

	s, err := StoreFactory(BackendFile, map[string]string{"path": filepath.Join(dir, "ws.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = StoreFactory(BackendMemory, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, mr := setupTestRedis(t)
	s, err = StoreFactory(BackendRedis, map[string]string{"addr": mr.Addr(), "db": "0", "key": "k"})
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), sampleSnapshot()))
	assert.True(t, mr.Exists("k"))
	require.NoError(t, s.Close())

	_, err = StoreFactory(BackendRedis, map[string]string{})
	assert.Equal(t, apperrors.TypeConfig, apperrors.TypeOf(err))

	_, err = StoreFactory(BackendRedis, map[string]string{"addr": mr.Addr(), "db": "one"})
	assert.Equal(t, apperrors.TypeConfig, apperrors.TypeOf(err))

	_, err = StoreFactory("s3", nil)
	assert.Equal(t, apperrors.TypeConfig, apperrors.TypeOf(err))
}
