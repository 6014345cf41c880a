package output

import (
	"regexp"
	"strings"
	"time"
)

// DefaultFileStem names exports of projects without an object name
const DefaultFileStem = "project_SK"

// WorkspaceExtension is appended to workspace bundle exports
const WorkspaceExtension = "sk_workspace.json"

var unsafeFileChars = regexp.MustCompile(`[\s/\\?%*:|"<>]`)

// FileName builds "YYYY-MM-DD_HH-MM_<name>.<ext>" in now's location.
// Whitespace and characters unsafe in file names become underscores.
func FileName(objectName, ext string, now time.Time) string {
	stem := strings.TrimSpace(objectName)
	if stem == "" {
		stem = DefaultFileStem
	}
	stem = unsafeFileChars.ReplaceAllString(stem, "_")
	return now.Format("2006-01-02_15-04") + "_" + stem + "." + ext
}

// WorkspaceFileName names a workspace bundle export
func WorkspaceFileName(workspaceName string, now time.Time) string {
	if strings.TrimSpace(workspaceName) == "" {
		workspaceName = "Workspace"
	}
	return FileName(workspaceName, WorkspaceExtension, now)
}

// ProjectsFileName names the spreadsheet summary of a workspace
func ProjectsFileName(workspaceName string, now time.Time) string {
	if strings.TrimSpace(workspaceName) == "" {
		workspaceName = "Workspace"
	}
	return FileName(workspaceName, string(FormatXLSX), now)
}
