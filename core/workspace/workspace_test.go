package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"structcalc/core/types"
	apperrors "structcalc/internal/errors"
)

var testNow = time.Date(2026, 3, 7, 9, 5, 0, 0, time.UTC)

type fakeStorage struct {
	snap    types.WorkspaceSnapshot
	saves   int
	failing error
}

func (s *fakeStorage) Load(context.Context) (types.WorkspaceSnapshot, error) {
	return s.snap.Clone(), nil
}

func (s *fakeStorage) Save(_ context.Context, snap types.WorkspaceSnapshot) error {
	if s.failing != nil {
		return s.failing
	}
	s.saves++
	s.snap = snap.Clone()
	return nil
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("id-%d", n.Add(1))
	}
}

func open(t *testing.T, store *fakeStorage) *Workspace {
	t.Helper()
	w, err := Open(context.Background(), store, WithClock(func() time.Time { return testNow }), WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)
	return w
}

func ids(projects []types.SavedProject) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.ID
	}
	return out
}

func TestSaveNewProjectsArePrepended(t *testing.T) {
	ctx := context.Background()
	store := &fakeStorage{}
	w := open(t, store)

	in := types.DefaultInput().WithProjectType("II.1")
	in.ObjectName = "  First  "
	first, err := w.Save(ctx, in, "", false)
	require.NoError(t, err)
	assert.Equal(t, "id-1", first.ID)
	assert.Equal(t, "First", first.Name)
	assert.Equal(t, "First", first.Data.ObjectName)
	assert.Equal(t, testNow.UnixMilli(), first.LastModified)

	in.ObjectName = "Second"
	_, err = w.Save(ctx, in, "", false)
	require.NoError(t, err)

	assert.Equal(t, []string{"id-2", "id-1"}, ids(w.List()))
	assert.Equal(t, 2, store.saves)
	assert.Equal(t, []string{"id-2", "id-1"}, ids(store.snap.Projects))
}

func TestSaveDefaultName(t *testing.T) {
	w := open(t, &fakeStorage{})

	p, err := w.Save(context.Background(), types.DefaultInput(), "", false)
	require.NoError(t, err)
	assert.Equal(t, "Project 07.03 09:05", p.Name)
	assert.Equal(t, p.Name, p.Data.ObjectName)
}

func TestSaveUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	w := open(t, &fakeStorage{})

	in := types.DefaultInput()
	in.ObjectName = "A"
	a, err := w.Save(ctx, in, "", false)
	require.NoError(t, err)
	in.ObjectName = "B"
	_, err = w.Save(ctx, in, "", false)
	require.NoError(t, err)

	in.ObjectName = "A renamed"
	in.Area = 42
	updated, err := w.Save(ctx, in, a.ID, false)
	require.NoError(t, err)
	assert.Equal(t, a.ID, updated.ID)

	list := w.List()
	assert.Equal(t, []string{"id-2", "id-1"}, ids(list), "update keeps position")
	assert.Equal(t, "A renamed", list[1].Name)
	assert.Equal(t, 42.0, list[1].Data.Area)

	copyOf, err := w.Save(ctx, in, a.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "id-3", copyOf.ID)
	assert.Len(t, w.List(), 3)
}

func TestSaveErrors(t *testing.T) {
	ctx := context.Background()
	w := open(t, &fakeStorage{})

	_, err := w.Save(ctx, types.DefaultInput(), "missing", false)
	assert.Equal(t, apperrors.TypeNotFound, apperrors.TypeOf(err))

	bad := types.DefaultInput()
	bad.Area = -1
	_, err = w.Save(ctx, bad, "", false)
	assert.Equal(t, apperrors.TypeInput, apperrors.TypeOf(err))
	assert.Empty(t, w.List())
}

func TestFailedPersistLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &fakeStorage{}
	w := open(t, store)

	_, err := w.Save(ctx, types.DefaultInput(), "", false)
	require.NoError(t, err)

	store.failing = errors.New("disk full")
	_, err = w.Save(ctx, types.DefaultInput(), "", false)
	require.Error(t, err)
	assert.Equal(t, apperrors.TypeStorage, apperrors.TypeOf(err))
	assert.Len(t, w.List(), 1)

	assert.Error(t, w.Clear(ctx))
	assert.Len(t, w.List(), 1)
}

func seeded(t *testing.T, n int) (*Workspace, *fakeStorage) {
	t.Helper()
	store := &fakeStorage{}
	for i := 1; i <= n; i++ {
		store.snap.Projects = append(store.snap.Projects, types.SavedProject{
			ID:           fmt.Sprintf("p%d", i),
			Name:         fmt.Sprintf("Project %d", i),
			LastModified: 1,
			Data:         types.DefaultInput(),
		})
	}
	return open(t, store), store
}

func TestDeleteArchiveReorder(t *testing.T) {
	ctx := context.Background()
	w, store := seeded(t, 3)

	require.NoError(t, w.SetArchived(ctx, "p2", true))
	assert.Equal(t, []string{"p1", "p3"}, ids(w.Active()))
	assert.Equal(t, []string{"p2"}, ids(w.Archived()))
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(w.List()), "archiving keeps position")

	require.NoError(t, w.SetArchived(ctx, "p2", false))
	assert.Empty(t, w.Archived())

	require.NoError(t, w.Reorder(ctx, []string{"p3", "p1", "p2"}))
	assert.Equal(t, []string{"p3", "p1", "p2"}, ids(w.List()))
	assert.Equal(t, []string{"p3", "p1", "p2"}, ids(store.snap.Projects))

	require.NoError(t, w.Delete(ctx, "p1"))
	assert.Equal(t, []string{"p3", "p2"}, ids(w.List()))

	assert.Equal(t, apperrors.TypeNotFound, apperrors.TypeOf(w.Delete(ctx, "p1")))
	assert.Equal(t, apperrors.TypeNotFound, apperrors.TypeOf(w.SetArchived(ctx, "nope", true)))
}

func TestReorderMustBePermutation(t *testing.T) {
	ctx := context.Background()
	w, _ := seeded(t, 3)

	tests := [][]string{
		{"p1", "p2"},
		{"p1", "p2", "p2"},
		{"p1", "p2", "p9"},
		{"p1", "p2", "p3", "p4"},
	}
	for _, order := range tests {
		err := w.Reorder(ctx, order)
		assert.Equal(t, apperrors.TypeInput, apperrors.TypeOf(err), "%v", order)
	}
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(w.List()))
}

func TestClearAndRename(t *testing.T) {
	ctx := context.Background()
	w, store := seeded(t, 2)

	require.NoError(t, w.Rename(ctx, " Office "))
	assert.Equal(t, "Office", w.Name())
	assert.Equal(t, "Office", store.snap.Name)

	require.NoError(t, w.Clear(ctx))
	assert.Empty(t, w.List())
	assert.Equal(t, "", w.Name())
	assert.NotNil(t, store.snap.Projects)
}

func TestOpenRepairsStoredProjects(t *testing.T) {
	store := &fakeStorage{snap: types.WorkspaceSnapshot{
		Name: "Office",
		Projects: []types.SavedProject{
			{ID: "", Name: "", Data: types.PricingInput{ObjectName: "From data"}},
			{ID: "dup", Name: "One", LastModified: 5},
			{ID: "dup", Name: "Two", LastModified: 6},
		},
	}}
	w := open(t, store)

	list := w.List()
	require.Len(t, list, 3)
	assert.Equal(t, "id-1", list[0].ID)
	assert.Equal(t, "From data", list[0].Name)
	assert.Equal(t, testNow.UnixMilli(), list[0].LastModified)
	assert.Equal(t, "dup", list[1].ID)
	assert.NotEqual(t, "dup", list[2].ID)
	assert.Equal(t, "Office", w.Name())
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	w, _ := seeded(t, 3)
	require.NoError(t, w.Rename(ctx, "Office"))
	require.NoError(t, w.SetArchived(ctx, "p3", true))

	bundle := w.Export(testNow)
	assert.Equal(t, types.BundleVersion, bundle.Version)
	assert.Equal(t, testNow.UnixMilli(), bundle.ExportedAt)

	data, err := EncodeBundle(bundle)
	require.NoError(t, err)

	other := open(t, &fakeStorage{})
	decoded, err := other.Import(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, ShapeBundle, decoded.Shape)
	assert.Equal(t, "Office", other.Name())
	assert.Equal(t, w.List(), other.List())
}

func TestImportReplaces(t *testing.T) {
	ctx := context.Background()
	w, _ := seeded(t, 2)

	_, err := w.Import(ctx, []byte(`[{"objectName":"Raw","projectType":"II.1"}]`))
	require.NoError(t, err)

	list := w.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Raw", list[0].Name)
	assert.Equal(t, ImportedWorkspace, w.Name())
}

func TestImportRejects(t *testing.T) {
	ctx := context.Background()
	w, _ := seeded(t, 2)

	tests := []struct {
		name string
		data string
		kind apperrors.Type
	}{
		{"not json", `hello`, apperrors.TypeParsing},
		{"truncated", `{"projects": [`, apperrors.TypeParsing},
		{"scalar", `42`, apperrors.TypeParsing},
		{"empty bundle", `{"version":1,"name":"x","projects":[]}`, apperrors.TypeInput},
		{"empty array", `[]`, apperrors.TypeInput},
		{"single project", `{"projectType":"II.1"}`, apperrors.TypeInput},
		{"no project records", `[1, null, "x"]`, apperrors.TypeParsing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.Import(ctx, []byte(tt.data))
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperrors.TypeOf(err))
			assert.Len(t, w.List(), 2, "failed import leaves workspace alone")
		})
	}
}

func TestImportKeepsGoodProjectsNextToBadOnes(t *testing.T) {
	ctx := context.Background()
	w, _ := seeded(t, 2)

	decoded, err := w.Import(ctx, []byte(`{"version":1,"name":"Office","projects":[
		{"id":"a","name":"Good","data":{"projectType":"II.1"}},
		{"id":"b","name":"Stringly","data":{"projectType":"V.2","area":"450","isAccelerated":"true"}},
		{"id":"c","name":"Garbage","data":{"projectType":"V.2","area":"big","wallSections":[1]}},
		"not a project"
	]}`))
	require.NoError(t, err)
	assert.Equal(t, []int{3}, decoded.Skipped)

	list := w.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"a", "b", "c"}, ids(list))
	assert.Equal(t, 450.0, list[1].Data.Area)
	assert.True(t, list[1].Data.IsAccelerated)
	assert.Equal(t, 0.0, list[2].Data.Area, "unreadable value keeps the form default")
	assert.Equal(t, 1, list[2].Data.WallSections)
	assert.Equal(t, "V.2", list[2].Data.ProjectType)
}

func TestMerge(t *testing.T) {
	ctx := context.Background()
	w, _ := seeded(t, 1)

	res, err := w.Merge(ctx,
		[]byte(`{"id":"p1","name":"Wrapped","data":{"projectType":"V.1"}}`),
		[]byte(`not json`),
		[]byte(`[{"objectName":"A"},{"objectName":"B"}]`),
		[]byte(`{"version":1,"projects":[{"id":7,"name":"Bundled","data":{}}]}`),
	)
	require.NoError(t, err)

	require.Len(t, res.Failed, 1)
	assert.Contains(t, res.Failed, 1)
	require.Len(t, res.Added, 4)

	names := make([]string, 0, 5)
	for _, p := range w.List() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Wrapped", "A", "B", "Bundled", "Project 1"}, names)

	list := w.List()
	assert.NotEqual(t, "p1", list[0].ID, "colliding id is replaced")
	assert.Equal(t, "7", list[3].ID)
	assert.Equal(t, "p1", list[4].ID)
}

func TestMergeNothingReadable(t *testing.T) {
	store := &fakeStorage{}
	w := open(t, store)

	res, err := w.Merge(context.Background(), []byte(`nope`))
	require.NoError(t, err)
	assert.Empty(t, res.Added)
	assert.Len(t, res.Failed, 1)
	assert.Equal(t, 0, store.saves)
}

func TestMergeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := open(t, &fakeStorage{})
	_, err := w.Merge(ctx, []byte(`[]`))
	assert.ErrorIs(t, err, context.Canceled)
}
