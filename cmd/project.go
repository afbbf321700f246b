package cmd

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/grovetools/projsync/logging"
	"github.com/grovetools/projsync/pkg/localfiles"
	"github.com/grovetools/projsync/pkg/models"
	"github.com/grovetools/projsync/pkg/projectview"
	"github.com/spf13/cobra"
)

// viewOutput is the JSON form of a projectview.Result.
type viewOutput struct {
	State    string               `json:"state"`
	Selected models.ProjectID     `json:"selected,omitempty"`
	HasCloud bool                 `json:"has_cloud"`
	HasLocal bool                 `json:"has_local"`
	Project  *models.WholeProject `json:"project,omitempty"`
}

func toViewOutput(r projectview.Result) viewOutput {
	return viewOutput{
		State:    r.State.String(),
		Selected: r.Selected,
		HasCloud: r.HasCloud,
		HasLocal: r.HasLocal,
		Project:  r.Project,
	}
}

// NewShowCmd prints the current project view.
func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the currently selected project",
		Long: `Load cloud metadata and the local inventory, then show the selected project
merged from both. A project is only shown when both sides know it.

Examples:
  projsync show
  projsync show --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			e.loadAll(cmd.Context())
			return renderResult(cmd, e.session.Current(), e.json)
		},
	}
}

// NewSelectCmd makes a project current and persists the choice.
func NewSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <project-id>",
		Short: "Select the current project",
		Long: `Select a project by id. The selection is remembered in .projsync/state.yml
and used by later commands. Selecting an id that is missing locally or in the
cloud is allowed; the project is then reported as unavailable.

Examples:
  projsync select 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			e.loadAll(cmd.Context())
			if err := e.session.Select(id); err != nil {
				return fmt.Errorf("failed to save selection: %w", err)
			}
			e.logger.WithField("project", id).Info("Project selected")
			return renderResult(cmd, e.session.Current(), e.json)
		},
	}
}

// NewClearCmd removes the selection.
func NewClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the current project selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.session.Clear(); err != nil {
				return fmt.Errorf("failed to save selection: %w", err)
			}
			if e.json {
				return printJSON(cmd, toViewOutput(e.session.Current()))
			}
			logging.NewConsole(cmd.OutOrStdout()).Success("Selection cleared")
			return nil
		},
	}
}

// NewWatchCmd follows the current project view as the inventory changes.
func NewWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the current project as local files change",
		Long: `Print the current project view every time it changes. Changes are pushed
by the daemon; without a daemon the view is printed once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			e.loadAll(ctx)

			// The view calls back on the store's dispatcher; rendering is
			// serialised there.
			unsub := e.session.View().Subscribe(func(r projectview.Result) {
				if err := renderResult(cmd, r, e.json); err != nil {
					e.logger.WithError(err).Warn("Failed to render view")
				}
			})
			defer unsub()

			if _, ok := e.session.Bridge().Provider().(localfiles.Notifier); !ok {
				e.logger.Info("No daemon running, not following changes")
			}
			return e.session.Watch(ctx)
		},
	}
}

func renderResult(cmd *cobra.Command, r projectview.Result, asJSON bool) error {
	if asJSON {
		return printJSON(cmd, toViewOutput(r))
	}
	renderView(cmd.OutOrStdout(), r)
	return nil
}

func renderView(w io.Writer, r projectview.Result) {
	p := logging.NewConsole(w)

	switch r.State {
	case projectview.NotSelected:
		p.Info("No project selected. Use 'projsync select <id>'.")
		return
	case projectview.Unavailable:
		var missing string
		switch {
		case !r.HasCloud && !r.HasLocal:
			missing = "not found in the cloud or locally"
		case !r.HasCloud:
			missing = "not found in the cloud"
		default:
			missing = "has no local files"
		}
		p.Warn(fmt.Sprintf("Project %d is unavailable: %s", r.Selected, missing))
		return
	}

	meta := r.Project.Metadata
	p.Success(fmt.Sprintf("Project %d: %s", meta.ID, meta.Name))
	if meta.Description != nil {
		p.Field("description", *meta.Description)
	}
	if !meta.CreatedAt.IsZero() {
		p.Field("created", meta.CreatedAt.Format("2006-01-02"))
	}
	p.Field("cloud files", len(meta.CloudFiles))
	p.Field("local files", len(r.Project.LocalFiles))
	for _, path := range r.Project.LocalFiles.Paths() {
		p.Path("  file", path)
	}
}
