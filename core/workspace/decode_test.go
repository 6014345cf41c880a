package workspace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"structcalc/core/types"
)

func testSanitizer() Sanitizer {
	return Sanitizer{
		Now:   func() time.Time { return testNow },
		NewID: func() string { return "fresh" },
	}
}

func fullInput() types.PricingInput {
	in := types.DefaultInput().WithProjectType("VIII.2")
	in.Area = 12.5
	in.WallSections = 4
	in.AdditionalLength = 33
	in.ObjectName = "Wall at the river"
	in.CurrencyDisplay = types.CurrencyBoth
	in.HasCrane = true
	in = in.WithComplexity(true, 12.5)
	in.IsAccelerated = true
	in.IncludeSupervision = true
	return in
}

func TestRoundTripWrappedProject(t *testing.T) {
	p := types.SavedProject{
		ID:           "abc",
		Name:         "Wall",
		LastModified: 1700000000000,
		Data:         fullInput(),
		IsArchived:   true,
	}
	data, err := EncodeProject(p)
	require.NoError(t, err)

	got, err := testSanitizer().DecodeProject(data)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestRoundTripLegacyInput(t *testing.T) {
	in := fullInput()
	data, err := EncodeInput(in)
	require.NoError(t, err)

	got, err := testSanitizer().DecodeProject(data)
	require.NoError(t, err)
	assert.Equal(t, in, got.Data)
	assert.Equal(t, "fresh", got.ID)
	assert.Equal(t, in.ObjectName, got.Name)
	assert.Equal(t, testNow.UnixMilli(), got.LastModified)
	assert.False(t, got.IsArchived)
}

func TestSanitizeFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		id       string
		project  string
		modified int64
		archived bool
	}{
		{
			name:     "numeric id becomes string",
			src:      `{"id": 1712345678901, "name": "N", "lastModified": 5, "data": {}}`,
			id:       "1712345678901",
			project:  "N",
			modified: 5,
		},
		{
			name:     "id from data",
			src:      `{"data": {"id": "inner", "objectName": "Obj"}}`,
			id:       "inner",
			project:  "Obj",
			modified: testNow.UnixMilli(),
		},
		{
			name:     "zero id is missing",
			src:      `{"id": 0, "data": {}}`,
			id:       "fresh",
			project:  UnnamedProject,
			modified: testNow.UnixMilli(),
		},
		{
			name:     "string timestamp and truthy archive flag",
			src:      `{"id": "x", "name": "N", "lastModified": "1234", "isArchived": 1, "data": {}}`,
			id:       "x",
			project:  "N",
			modified: 1234,
			archived: true,
		},
		{
			name:     "raw input without name",
			src:      `{"projectType": "II.1"}`,
			id:       "fresh",
			project:  ImportedProject,
			modified: testNow.UnixMilli(),
		},
		{
			name:     "null data is a raw input",
			src:      `{"id": "r", "data": null, "objectName": "Raw"}`,
			id:       "r",
			project:  "Raw",
			modified: testNow.UnixMilli(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := testSanitizer().DecodeProject([]byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.id, p.ID)
			assert.Equal(t, tt.project, p.Name)
			assert.Equal(t, tt.modified, p.LastModified)
			assert.Equal(t, tt.archived, p.IsArchived)
		})
	}
}

func TestMissingFieldsKeepFormDefaults(t *testing.T) {
	p, err := testSanitizer().DecodeProject([]byte(`{"data": {"projectType": "VIII.1"}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Data.WallSections)
	assert.Equal(t, types.CurrencyEUR, p.Data.CurrencyDisplay)
}

func TestDecodeProjectsShapes(t *testing.T) {
	s := testSanitizer()

	tests := []struct {
		name   string
		src    string
		shape  Shape
		wsName string
		count  int
	}{
		{"bundle", `{"version":1,"name":"Office","projects":[{"id":"a","data":{}}],"exportedAt":1}`, ShapeBundle, "Office", 1},
		{"unnamed bundle", `{"projects":[{"id":"a","data":{}},{"id":"b","data":{}}]}`, ShapeBundle, UnnamedProject, 2},
		{"array", `[{"objectName":"x"}]`, ShapeArray, ImportedWorkspace, 1},
		{"wrapped", `{"id":"a","data":{}}`, ShapeProject, "", 1},
		{"legacy", `{"projectType":"II.1","area":0}`, ShapeProject, "", 1},
		{"projects not a list", `{"projects":"nope","objectName":"x"}`, ShapeProject, "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := s.DecodeProjects([]byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.shape, d.Shape)
			assert.Equal(t, tt.wsName, d.Name)
			assert.Len(t, d.Projects, tt.count)
		})
	}

	_, err := s.DecodeProjects([]byte("   "))
	assert.Error(t, err)
	_, err = s.DecodeProjects([]byte(`[1, 2]`))
	assert.Error(t, err)
}

func TestDecodeInputCoercesScalars(t *testing.T) {
	p, err := testSanitizer().DecodeProject([]byte(`{"data":{
		"projectType":"VIII.1","wallSections":"3","additionalLength":" 25 ",
		"objectName":7,"hasComplexity":"yes","complexityPercentage":"10"}}`))
	require.NoError(t, err)

	assert.Equal(t, 3, p.Data.WallSections)
	assert.Equal(t, 25.0, p.Data.AdditionalLength)
	assert.Equal(t, "7", p.Data.ObjectName)
	assert.False(t, p.Data.HasComplexity)
	assert.Equal(t, 10.0, p.Data.ComplexityPercentage)
}

func TestDecodeSnapshot(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wsName   string
		projects int
	}{
		{"empty", ``, "", 0},
		{"null projects", `{"name":"Office","projects":null}`, "Office", 0},
		{"bare list", `[{"id":"a","data":{}},{"objectName":"legacy"}]`, "", 2},
		{"bad records dropped", `{"projects":[{"id":"a","data":{}},null,3]}`, "", 1},
		{"all records bad", `{"name":"Office","projects":[null]}`, "Office", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := DecodeSnapshot([]byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.wsName, snap.Name)
			assert.Len(t, snap.Projects, tt.projects)
		})
	}

	snap, err := DecodeSnapshot([]byte(`[{"data":{}}]`))
	require.NoError(t, err)
	assert.Empty(t, snap.Projects[0].ID, "Open assigns the id")
	assert.Zero(t, snap.Projects[0].LastModified)

	_, err = DecodeSnapshot([]byte(`{"projects": [`))
	assert.Error(t, err)
	_, err = DecodeSnapshot([]byte(`"text"`))
	assert.Error(t, err)
}
