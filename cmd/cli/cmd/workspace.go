// Package cmd - workspace commands
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"structcalc/core/output"
	"structcalc/core/types"
	"structcalc/core/workspace"
	apperrors "structcalc/internal/errors"
)

// newWorkspaceCmd groups the saved-project commands
func newWorkspaceCmd(a *app) *cobra.Command {
	workspaceCmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Manage saved projects",
		Long: `Manage the workspace: the ordered list of saved projects.

The workspace is stored by the configured backend (file, redis or memory).`,
	}

	workspaceCmd.AddCommand(
		newWorkspaceListCmd(a),
		newWorkspaceSaveCmd(a),
		newWorkspaceShowCmd(a),
		newWorkspaceMutateCmd(a, "delete <id>", "Delete a project", cobra.ExactArgs(1),
			func(ctx context.Context, ws *workspace.Workspace, args []string) (string, error) {
				return "Deleted " + args[0], ws.Delete(ctx, args[0])
			}),
		newWorkspaceMutateCmd(a, "archive <id>", "Move a project to the archive", cobra.ExactArgs(1),
			func(ctx context.Context, ws *workspace.Workspace, args []string) (string, error) {
				return "Archived " + args[0], ws.SetArchived(ctx, args[0], true)
			}),
		newWorkspaceMutateCmd(a, "unarchive <id>", "Restore a project from the archive", cobra.ExactArgs(1),
			func(ctx context.Context, ws *workspace.Workspace, args []string) (string, error) {
				return "Restored " + args[0], ws.SetArchived(ctx, args[0], false)
			}),
		newWorkspaceMutateCmd(a, "reorder <id>...", "Set the project order; every id must be listed once", cobra.MinimumNArgs(1),
			func(ctx context.Context, ws *workspace.Workspace, args []string) (string, error) {
				return "Order updated", ws.Reorder(ctx, args)
			}),
		newWorkspaceMutateCmd(a, "rename <name>", "Rename the workspace", cobra.ExactArgs(1),
			func(ctx context.Context, ws *workspace.Workspace, args []string) (string, error) {
				return "Workspace renamed", ws.Rename(ctx, args[0])
			}),
		newWorkspaceClearCmd(a),
		newWorkspaceExportCmd(a),
		newWorkspaceImportCmd(a),
		newWorkspaceMergeCmd(a),
	)

	return workspaceCmd
}

func newWorkspaceListCmd(a *app) *cobra.Command {
	var archived, all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved projects in workspace order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, store, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			var projects []types.SavedProject
			switch {
			case all:
				projects = ws.List()
			case archived:
				projects = ws.Archived()
			default:
				projects = ws.Active()
			}

			w := a.writer(cmd.OutOrStdout())
			if name := ws.Name(); name != "" {
				w.Header(name)
			}
			w.RenderProjects(projects)
			return nil
		},
	}

	cmd.Flags().BoolVar(&archived, "archived", false, "list archived projects only")
	cmd.Flags().BoolVar(&all, "all", false, "list active and archived projects")

	return cmd
}

func newWorkspaceSaveCmd(a *app) *cobra.Command {
	var id string
	var asNew bool

	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Save a project file to the workspace",
		Long: `Save the input of a project file to the workspace. With --id the
project is updated in place unless --as-new is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, store, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			project, err := ws.Sanitizer().DecodeProject(data)
			if err != nil {
				return err
			}

			saved, err := ws.Save(cmd.Context(), project.Data, id, asNew)
			if err != nil {
				return err
			}
			a.writer(cmd.OutOrStdout()).Success("Saved %q as %s", saved.Name, saved.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "update this project")
	cmd.Flags().BoolVar(&asNew, "as-new", false, "save a copy even when --id is set")

	return cmd
}

func newWorkspaceShowCmd(a *app) *cobra.Command {
	var legacy bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a project file",
		Long: `Print a saved project as a project file. --legacy prints only the
input, the single-project layout older versions saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, store, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			project, err := ws.Get(args[0])
			if err != nil {
				return err
			}

			var data []byte
			if legacy {
				data, err = workspace.EncodeInput(project.Data)
			} else {
				data, err = workspace.EncodeProject(project)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	cmd.Flags().BoolVar(&legacy, "legacy", false, "print the raw input without the project wrapper")

	return cmd
}

// newWorkspaceMutateCmd builds a command that applies one change and
// reports it
func newWorkspaceMutateCmd(a *app, use, short string, args cobra.PositionalArgs,
	apply func(context.Context, *workspace.Workspace, []string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, store, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			msg, err := apply(cmd.Context(), ws, args)
			if err != nil {
				return err
			}
			a.writer(cmd.OutOrStdout()).Success("%s", msg)
			return nil
		},
	}
}

func newWorkspaceClearCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every project and the workspace name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the workspace without --yes")
			}
			ws, store, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := ws.Clear(cmd.Context()); err != nil {
				return err
			}
			a.writer(cmd.OutOrStdout()).Success("Workspace cleared")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm")

	return cmd
}

func newWorkspaceExportCmd(a *app) *cobra.Command {
	var outputPath, format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the workspace as a bundle file",
		Long: `Export every project, archived ones included, as a versioned bundle.
Without --output the file is named after the workspace and the current
time; "-" writes to stdout.

--format xlsx writes a priced spreadsheet summary instead. It cannot be
imported back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, store, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			now := time.Now()
			var data []byte
			var defaultPath string
			switch output.Format(format) {
			case output.FormatJSON:
				data, err = workspace.EncodeBundle(ws.Export(now))
				if err != nil {
					return err
				}
				data = append(data, '\n')
				defaultPath = output.WorkspaceFileName(ws.Name(), now)
			case output.FormatXLSX:
				cat, err := a.catalog()
				if err != nil {
					return err
				}
				var buf bytes.Buffer
				if err := output.WriteProjectsWorkbook(&buf, ws.List(), cat); err != nil {
					return err
				}
				data = buf.Bytes()
				defaultPath = output.ProjectsFileName(ws.Name(), now)
			default:
				return apperrors.Input(fmt.Sprintf("unsupported export format %q", format)).
					WithContext("supported", "json, xlsx")
			}

			if outputPath == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if outputPath == "" {
				outputPath = defaultPath
			}
			if err := os.WriteFile(outputPath, data, 0644); err != nil {
				return fmt.Errorf("writing %s: %w", outputPath, err)
			}
			a.writer(cmd.OutOrStdout()).Success("Exported %d projects to %s", len(ws.List()), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "file to write")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "export format (json, xlsx)")

	return cmd
}

func newWorkspaceImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the workspace with a bundle or project list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			ws, store, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			decoded, err := ws.Import(cmd.Context(), data)
			if err != nil {
				return err
			}
			a.writer(cmd.OutOrStdout()).Success("Imported %s", decoded)
			return nil
		},
	}
}

func newWorkspaceMergeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <file>...",
		Short: "Add the projects of one or more files to the workspace",
		Long: `Add the projects of project, list or bundle files in front of the
workspace, keeping file order. Unreadable files are reported and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := a.writer(cmd.OutOrStdout())

			files := make([][]byte, len(args))
			for i, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					// an empty payload fails to decode and is reported below
					w.Warning("Cannot read %s: %v", path, err)
					continue
				}
				files[i] = data
			}

			ws, store, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := ws.Merge(cmd.Context(), files...)
			if err != nil {
				return err
			}
			for i, ferr := range res.Failed {
				if files[i] != nil {
					w.Warning("Skipped %s: %v", args[i], ferr)
				}
			}
			if len(res.Added) == 0 {
				return fmt.Errorf("no projects could be read from %d files", len(args))
			}
			w.Success("Added %d projects", len(res.Added))
			return nil
		},
	}
}
