package workspace

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"structcalc/core/types"
	apperrors "structcalc/internal/errors"
	"structcalc/internal/logging"
)

// Fallback names for projects and workspaces without one
const (
	UnnamedProject    = "Unnamed"
	ImportedProject   = "Imported project"
	ImportedWorkspace = "Imported workspace"
)

// Shape is the top-level layout of a project or workspace file
type Shape int

const (
	// ShapeProject is a single project, wrapped or legacy raw input
	ShapeProject Shape = iota
	// ShapeArray is a bare list of projects
	ShapeArray
	// ShapeBundle is a versioned workspace export
	ShapeBundle
)

// String returns string representation
func (s Shape) String() string {
	switch s {
	case ShapeProject:
		return "project"
	case ShapeArray:
		return "array"
	case ShapeBundle:
		return "bundle"
	default:
		return "unknown"
	}
}

// Decoded is the content of one file
type Decoded struct {
	Shape    Shape
	Name     string
	Projects []types.SavedProject

	// Skipped holds the list positions of records that were not objects
	Skipped []int
}

// Sanitizer repairs imported projects. IDs and timestamps missing from a
// file are filled from its functions.
type Sanitizer struct {
	Now   func() time.Time
	NewID func() string
}

// DecodeProjects reads a bundle, an array of projects, a wrapped project
// or a legacy raw input. Files that are not JSON, or whose top level is
// not an object or array, are parsing errors.
func (s Sanitizer) DecodeProjects(data []byte) (Decoded, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Decoded{}, apperrors.Parsing("empty file", nil)
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Decoded{}, apperrors.Parsing("invalid project list", err)
		}
		projects, skipped, err := s.sanitizeList(items)
		if err != nil {
			return Decoded{}, err
		}
		return Decoded{Shape: ShapeArray, Name: ImportedWorkspace, Projects: projects, Skipped: skipped}, nil

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return Decoded{}, apperrors.Parsing("invalid project file", err)
		}
		if raw, ok := obj["projects"]; ok && isArray(raw) {
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return Decoded{}, apperrors.Parsing("invalid project list", err)
			}
			projects, skipped, err := s.sanitizeList(items)
			if err != nil {
				return Decoded{}, err
			}
			name := stringField(obj["name"])
			if name == "" {
				name = UnnamedProject
			}
			return Decoded{Shape: ShapeBundle, Name: name, Projects: projects, Skipped: skipped}, nil
		}
		p, err := s.sanitizeObject(obj)
		if err != nil {
			return Decoded{}, err
		}
		return Decoded{Shape: ShapeProject, Projects: []types.SavedProject{p}}, nil

	default:
		return Decoded{}, apperrors.Parsing("file is neither a project nor a workspace", nil)
	}
}

// DecodeProject reads a single-project file in either shape
func (s Sanitizer) DecodeProject(data []byte) (types.SavedProject, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return types.SavedProject{}, apperrors.Parsing("invalid project file", err)
	}
	return s.sanitizeObject(obj)
}

// Sanitize repairs a typed project: it fills a missing id, name or
// timestamp.
func (s Sanitizer) Sanitize(p types.SavedProject) types.SavedProject {
	if strings.TrimSpace(p.ID) == "" {
		p.ID = s.NewID()
	}
	if p.Name == "" {
		p.Name = p.Data.ObjectName
	}
	if p.Name == "" {
		p.Name = UnnamedProject
	}
	if p.LastModified <= 0 {
		p.LastModified = s.Now().UnixMilli()
	}
	return p
}

// sanitizeList repairs every object in a project list and skips the rest.
// A non-empty list with nothing readable is a parsing error.
func (s Sanitizer) sanitizeList(items []json.RawMessage) ([]types.SavedProject, []int, error) {
	projects, skipped := s.sanitizeItems(items)
	if len(items) > 0 && len(projects) == 0 {
		return nil, nil, apperrors.Parsing("no readable project in list", nil).
			WithContext("records", len(items))
	}
	return projects, skipped, nil
}

func (s Sanitizer) sanitizeItems(items []json.RawMessage) ([]types.SavedProject, []int) {
	projects := make([]types.SavedProject, 0, len(items))
	var skipped []int
	for i, item := range items {
		var obj map[string]json.RawMessage
		if !isObject(item) || json.Unmarshal(item, &obj) != nil {
			skipped = append(skipped, i)
			continue
		}
		p, err := s.sanitizeObject(obj)
		if err != nil {
			skipped = append(skipped, i)
			continue
		}
		projects = append(projects, p)
	}
	return projects, skipped
}

// DecodeSnapshot reads a stored workspace: a snapshot object or a bare
// project list, as older versions wrote. Records are repaired like
// imports, but missing ids and timestamps stay empty for Open to fill.
// Records that are not objects are dropped with a warning.
func DecodeSnapshot(data []byte) (types.WorkspaceSnapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return types.WorkspaceSnapshot{}, nil
	}

	var snap types.WorkspaceSnapshot
	var items []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return types.WorkspaceSnapshot{}, apperrors.Parsing("invalid stored project list", err)
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return types.WorkspaceSnapshot{}, apperrors.Parsing("invalid stored workspace", err)
		}
		snap.Name = stringField(obj["name"])
		if raw := obj["projects"]; isArray(raw) {
			if err := json.Unmarshal(raw, &items); err != nil {
				return types.WorkspaceSnapshot{}, apperrors.Parsing("invalid stored project list", err)
			}
		}
	default:
		return types.WorkspaceSnapshot{}, apperrors.Parsing("stored workspace is neither an object nor a list", nil)
	}

	deferred := Sanitizer{
		Now:   func() time.Time { return time.UnixMilli(0) },
		NewID: func() string { return "" },
	}
	projects, skipped := deferred.sanitizeItems(items)
	if len(skipped) > 0 {
		logging.Warn("dropped unreadable stored projects", zap.Ints("records", skipped))
	}
	snap.Projects = projects
	return snap, nil
}

// sanitizeObject handles both project layouts. A "data" object marks a
// wrapped project; anything else is read as a raw input.
func (s Sanitizer) sanitizeObject(obj map[string]json.RawMessage) (types.SavedProject, error) {
	var dataObj map[string]json.RawMessage
	wrapped := false
	if raw, ok := obj["data"]; ok && isObject(raw) {
		if err := json.Unmarshal(raw, &dataObj); err == nil {
			wrapped = true
		}
	}

	id := idField(obj["id"])
	if id == "" && wrapped {
		id = idField(dataObj["id"])
	}
	if id == "" {
		id = s.NewID()
	}

	now := s.Now().UnixMilli()

	if wrapped {
		in, err := decodeInput(obj["data"])
		if err != nil {
			return types.SavedProject{}, err
		}
		name := stringField(obj["name"])
		if name == "" {
			name = in.ObjectName
		}
		if name == "" {
			name = UnnamedProject
		}
		modified := numberField(obj["lastModified"])
		if modified <= 0 {
			modified = now
		}
		return types.SavedProject{
			ID:           id,
			Name:         name,
			LastModified: modified,
			Data:         in,
			IsArchived:   truthy(obj["isArchived"]),
		}, nil
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return types.SavedProject{}, apperrors.Parsing("invalid project", err)
	}
	in, err := decodeInput(raw)
	if err != nil {
		return types.SavedProject{}, err
	}
	name := in.ObjectName
	if name == "" {
		name = ImportedProject
	}
	return types.SavedProject{
		ID:           id,
		Name:         name,
		LastModified: now,
		Data:         in,
	}, nil
}

// decodeInput reads an input over the empty-form defaults, so fields a
// file omits keep their form values. A field of the wrong JSON type is
// coerced when it can be ("450" for a number) and otherwise keeps its
// default; only a non-object is an error.
func decodeInput(raw json.RawMessage) (types.PricingInput, error) {
	in := types.DefaultInput()
	if err := json.Unmarshal(raw, &in); err == nil {
		return in, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return types.PricingInput{}, apperrors.Parsing("invalid project data", err)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	in = types.DefaultInput()
	for _, k := range keys {
		if decodeField(&in, k, fields[k]) {
			continue
		}
		if coerced, ok := coerceScalar(fields[k]); ok {
			decodeField(&in, k, coerced)
		}
	}
	return in, nil
}

// decodeField sets one input field, leaving in untouched on failure
func decodeField(in *types.PricingInput, key string, value json.RawMessage) bool {
	obj, err := json.Marshal(map[string]json.RawMessage{key: value})
	if err != nil {
		return false
	}
	next := *in
	if json.Unmarshal(obj, &next) != nil {
		return false
	}
	*in = next
	return true
}

// coerceScalar rewrites a scalar as the other plausible JSON type:
// numeric and boolean strings become numbers and booleans, numbers
// become strings.
func coerceScalar(raw json.RawMessage) (json.RawMessage, bool) {
	var v interface{}
	if json.Unmarshal(raw, &v) != nil {
		return nil, false
	}
	switch x := v.(type) {
	case string:
		x = strings.TrimSpace(x)
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return json.RawMessage(strconv.FormatFloat(f, 'f', -1, 64)), true
		}
		if b, err := strconv.ParseBool(x); err == nil {
			return json.RawMessage(strconv.FormatBool(b)), true
		}
	case float64:
		return json.RawMessage(strconv.Quote(strconv.FormatFloat(x, 'f', -1, 64))), true
	}
	return nil, false
}

func isArray(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '['
}

func isObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}

func stringField(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// idField accepts string and numeric ids and returns them as strings.
// Empty, zero and non-scalar ids count as missing.
func idField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		if f, err := id.Float64(); err == nil && f == 0 {
			return ""
		}
		return id.String()
	default:
		return ""
	}
}

// numberField reads an epoch-ms timestamp written as a number or a
// numeric string
func numberField(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int64(f)
	}
	if s := stringField(raw); s != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return int64(f)
		}
	}
	return 0
}

func truthy(raw json.RawMessage) bool {
	var v interface{}
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		return b != ""
	case nil:
		return false
	default:
		return true
	}
}

// EncodeProject writes the wrapped single-project file
func EncodeProject(p types.SavedProject) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.TypeInternal, "failed to encode project", err)
	}
	return data, nil
}

// EncodeInput writes the legacy raw-input file
func EncodeInput(in types.PricingInput) ([]byte, error) {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.TypeInternal, "failed to encode input", err)
	}
	return data, nil
}

// EncodeBundle writes a workspace export
func EncodeBundle(b types.WorkspaceBundle) ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.TypeInternal, "failed to encode workspace", err)
	}
	return data, nil
}
