// Package types - Workspace project types
package types

// BundleVersion is the workspace bundle format version
const BundleVersion = 1

// SavedProject is a named snapshot of a calculation input kept in the
// workspace.
type SavedProject struct {
	ID string `json:"id"`

	Name string `json:"name"`

	// LastModified is epoch milliseconds
	LastModified int64 `json:"lastModified"`

	Data PricingInput `json:"data"`

	IsArchived bool `json:"isArchived"`
}

// WorkspaceBundle is the export file of a whole workspace
type WorkspaceBundle struct {
	Version int `json:"version"`

	Name string `json:"name"`

	Projects []SavedProject `json:"projects"`

	// ExportedAt is epoch milliseconds
	ExportedAt int64 `json:"exportedAt"`
}

// WorkspaceSnapshot is what a workspace store persists. Each save
// overwrites the previous snapshot.
type WorkspaceSnapshot struct {
	Name string `json:"name"`

	Projects []SavedProject `json:"projects"`
}

// Clone returns a deep copy of the snapshot
func (s WorkspaceSnapshot) Clone() WorkspaceSnapshot {
	projects := make([]SavedProject, len(s.Projects))
	copy(projects, s.Projects)
	return WorkspaceSnapshot{Name: s.Name, Projects: projects}
}
