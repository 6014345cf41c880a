// Package workspace keeps the ordered list of saved projects.
//
// Every mutation writes a full snapshot through the Storage port; the last
// write wins. The list is guarded by a mutex so one Workspace can be
// shared by the HTTP handlers.
package workspace

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"structcalc/core/types"
	apperrors "structcalc/internal/errors"
	"structcalc/internal/logging"
	"structcalc/internal/validate"
)

// Storage persists workspace snapshots
type Storage interface {
	// Load returns the last saved snapshot, or an empty one
	Load(ctx context.Context) (types.WorkspaceSnapshot, error)

	// Save overwrites the stored snapshot
	Save(ctx context.Context, snap types.WorkspaceSnapshot) error
}

// Workspace is the in-process project list
type Workspace struct {
	mu       sync.RWMutex
	storage  Storage
	name     string
	projects []types.SavedProject

	sanitizer Sanitizer
	logger    *zap.Logger
}

// Option configures a Workspace
type Option func(*Workspace)

// WithClock sets the time source for timestamps and default names
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.sanitizer.Now = now }
}

// WithIDGenerator sets the project id source
func WithIDGenerator(newID func() string) Option {
	return func(w *Workspace) { w.sanitizer.NewID = newID }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(w *Workspace) { w.logger = l }
}

// Open loads the stored snapshot and repairs any project missing an id,
// name or timestamp.
func Open(ctx context.Context, storage Storage, opts ...Option) (*Workspace, error) {
	w := &Workspace{
		storage: storage,
		sanitizer: Sanitizer{
			Now:   time.Now,
			NewID: uuid.NewString,
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logging.Named("workspace")
	}

	snap, err := storage.Load(ctx)
	if err != nil {
		return nil, apperrors.Storage("failed to load workspace", err)
	}

	w.name = snap.Name
	w.projects = make([]types.SavedProject, 0, len(snap.Projects))
	seen := make(map[string]bool, len(snap.Projects))
	for _, p := range snap.Projects {
		p = w.sanitizer.Sanitize(p)
		if seen[p.ID] {
			p.ID = w.sanitizer.NewID()
		}
		seen[p.ID] = true
		w.projects = append(w.projects, p)
	}

	w.logger.Debug("workspace opened", zap.Int("projects", len(w.projects)))
	return w, nil
}

// Sanitizer returns the sanitizer bound to this workspace's clock and ids
func (w *Workspace) Sanitizer() Sanitizer {
	return w.sanitizer
}

// Name returns the workspace name
func (w *Workspace) Name() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.name
}

// List returns all projects in order
func (w *Workspace) List() []types.SavedProject {
	return w.filter(func(types.SavedProject) bool { return true })
}

// Active returns the projects that are not archived, in order
func (w *Workspace) Active() []types.SavedProject {
	return w.filter(func(p types.SavedProject) bool { return !p.IsArchived })
}

// Archived returns the archived projects, in order
func (w *Workspace) Archived() []types.SavedProject {
	return w.filter(func(p types.SavedProject) bool { return p.IsArchived })
}

func (w *Workspace) filter(keep func(types.SavedProject) bool) []types.SavedProject {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]types.SavedProject, 0, len(w.projects))
	for _, p := range w.projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Get returns a project by id
func (w *Workspace) Get(id string) (types.SavedProject, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	i := w.index(id)
	if i < 0 {
		return types.SavedProject{}, apperrors.NotFound("project", id)
	}
	return w.projects[i], nil
}

// Save stores a form. With an id of an existing project and asNew unset
// the project is updated in place; otherwise a new project is put first.
// An empty object name is replaced by "Project <date time>" and written
// back into the stored input.
func (w *Workspace) Save(ctx context.Context, in types.PricingInput, id string, asNew bool) (types.SavedProject, error) {
	if err := validate.Struct(in); err != nil {
		return types.SavedProject{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.sanitizer.Now()
	name := strings.TrimSpace(in.ObjectName)
	if name == "" {
		name = DefaultProjectName(now)
	}
	in.ObjectName = name

	projects := w.cloneProjects()
	var saved types.SavedProject

	if id != "" && !asNew {
		i := w.index(id)
		if i < 0 {
			return types.SavedProject{}, apperrors.NotFound("project", id)
		}
		projects[i].Name = name
		projects[i].LastModified = now.UnixMilli()
		projects[i].Data = in
		saved = projects[i]
	} else {
		saved = types.SavedProject{
			ID:           w.sanitizer.NewID(),
			Name:         name,
			LastModified: now.UnixMilli(),
			Data:         in,
		}
		projects = append([]types.SavedProject{saved}, projects...)
	}

	if err := w.commit(ctx, w.name, projects); err != nil {
		return types.SavedProject{}, err
	}
	w.logger.Debug("project saved", zap.String("id", saved.ID), zap.String("name", saved.Name))
	return saved, nil
}

// DefaultProjectName names a project saved without an object name
func DefaultProjectName(now time.Time) string {
	return "Project " + now.Format("02.01 15:04")
}

// Delete removes a project
func (w *Workspace) Delete(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := w.index(id)
	if i < 0 {
		return apperrors.NotFound("project", id)
	}
	projects := w.cloneProjects()
	projects = append(projects[:i], projects[i+1:]...)
	return w.commit(ctx, w.name, projects)
}

// SetArchived archives or restores a project. Its position is kept.
func (w *Workspace) SetArchived(ctx context.Context, id string, archived bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := w.index(id)
	if i < 0 {
		return apperrors.NotFound("project", id)
	}
	projects := w.cloneProjects()
	projects[i].IsArchived = archived
	return w.commit(ctx, w.name, projects)
}

// Reorder sets the list order. ids must name every project exactly once.
func (w *Workspace) Reorder(ctx context.Context, ids []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(ids) != len(w.projects) {
		return apperrors.Newf(apperrors.TypeInput, "reorder needs %d ids, got %d", len(w.projects), len(ids))
	}

	byID := make(map[string]types.SavedProject, len(w.projects))
	for _, p := range w.projects {
		byID[p.ID] = p
	}
	projects := make([]types.SavedProject, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return apperrors.Newf(apperrors.TypeInput, "reorder names unknown or repeated project %q", id)
		}
		delete(byID, id)
		projects = append(projects, p)
	}
	return w.commit(ctx, w.name, projects)
}

// Clear removes every project and the workspace name
func (w *Workspace) Clear(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.commit(ctx, "", []types.SavedProject{})
}

// Rename sets the workspace name
func (w *Workspace) Rename(ctx context.Context, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.commit(ctx, strings.TrimSpace(name), w.cloneProjects())
}

// Export returns the whole workspace as a versioned bundle
func (w *Workspace) Export(now time.Time) types.WorkspaceBundle {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return types.WorkspaceBundle{
		Version:    types.BundleVersion,
		Name:       w.name,
		Projects:   w.cloneProjects(),
		ExportedAt: now.UnixMilli(),
	}
}

// Import replaces the workspace with a bundle or project array. Single
// project files and files without projects are rejected.
func (w *Workspace) Import(ctx context.Context, data []byte) (Decoded, error) {
	decoded, err := w.sanitizer.DecodeProjects(data)
	if err != nil {
		return Decoded{}, err
	}
	if decoded.Shape == ShapeProject {
		return Decoded{}, apperrors.Input("file holds a single project, not a workspace")
	}
	if len(decoded.Projects) == 0 {
		return Decoded{}, apperrors.Input("file contains no projects")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.commit(ctx, decoded.Name, dedupe(decoded.Projects, w.sanitizer.NewID)); err != nil {
		return Decoded{}, err
	}
	w.logger.Info("workspace imported",
		zap.String("name", decoded.Name),
		zap.Int("projects", len(decoded.Projects)),
		zap.Ints("skipped", decoded.Skipped))
	return decoded, nil
}

// MergeResult reports a Merge
type MergeResult struct {
	// Added are the projects put in front of the list, in file order
	Added []types.SavedProject

	// Failed maps the index of each unreadable file to its error
	Failed map[int]error
}

// Merge decodes several files of any shape and puts their projects in
// front of the list, keeping file order. Unreadable files are skipped and
// reported; the rest are still added.
func (w *Workspace) Merge(ctx context.Context, files ...[]byte) (MergeResult, error) {
	decoded := make([]Decoded, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, data := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			decoded[i], errs[i] = w.sanitizer.DecodeProjects(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MergeResult{}, err
	}

	result := MergeResult{Failed: make(map[int]error)}
	for i, d := range decoded {
		if errs[i] != nil {
			result.Failed[i] = errs[i]
			w.logger.Warn("skipping unreadable file", zap.Int("file", i), zap.Error(errs[i]))
			continue
		}
		if len(d.Skipped) > 0 {
			w.logger.Warn("skipping unreadable records", zap.Int("file", i), zap.Ints("records", d.Skipped))
		}
		result.Added = append(result.Added, d.Projects...)
	}
	if len(result.Added) == 0 {
		return result, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	taken := make(map[string]bool, len(w.projects))
	for _, p := range w.projects {
		taken[p.ID] = true
	}
	for i := range result.Added {
		if taken[result.Added[i].ID] {
			result.Added[i].ID = w.sanitizer.NewID()
		}
		taken[result.Added[i].ID] = true
	}

	projects := append(append([]types.SavedProject{}, result.Added...), w.projects...)
	if err := w.commit(ctx, w.name, projects); err != nil {
		return MergeResult{}, err
	}
	return result, nil
}

// commit persists a snapshot and, only if that succeeds, makes it current.
// Callers hold the write lock.
func (w *Workspace) commit(ctx context.Context, name string, projects []types.SavedProject) error {
	snap := types.WorkspaceSnapshot{Name: name, Projects: projects}
	if err := w.storage.Save(ctx, snap); err != nil {
		w.logger.Error("failed to persist workspace", zap.Error(err))
		return apperrors.Storage("failed to save workspace", err)
	}
	w.name = name
	w.projects = projects
	return nil
}

func (w *Workspace) index(id string) int {
	for i, p := range w.projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (w *Workspace) cloneProjects() []types.SavedProject {
	out := make([]types.SavedProject, len(w.projects))
	copy(out, w.projects)
	return out
}

// dedupe gives repeated ids in one file fresh ids
func dedupe(projects []types.SavedProject, newID func() string) []types.SavedProject {
	seen := make(map[string]bool, len(projects))
	for i := range projects {
		if seen[projects[i].ID] {
			projects[i].ID = newID()
		}
		seen[projects[i].ID] = true
	}
	return projects
}

// String implements fmt.Stringer for logs
func (d Decoded) String() string {
	return fmt.Sprintf("%s %q with %d projects", d.Shape, d.Name, len(d.Projects))
}
