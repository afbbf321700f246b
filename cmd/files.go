package cmd

import (
	"fmt"
	"strconv"

	"github.com/grovetools/projsync/errors"
	"github.com/grovetools/projsync/pkg/models"
	"github.com/spf13/cobra"
)

type projectSummary struct {
	ID    models.ProjectID `json:"id"`
	Files int              `json:"files"`
}

// NewFilesCmd lists the local inventory.
func NewFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files [project-id]",
		Short: "List local files per project",
		Long: `List the local inventory. Without an argument, prints one line per project
with its file count. With a project id, prints that project's files.

Examples:
  projsync files
  projsync files 42 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.session.RefreshFiles(cmd.Context()); err != nil {
				return err
			}
			inv := e.session.Bridge().Files().Get()

			if len(args) == 0 {
				return printInventory(cmd, inv, e.json)
			}

			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			files, ok := inv[id]
			if !ok {
				return errors.ProjectNotFound(int64(id))
			}
			return printFiles(cmd, files, e.json)
		},
	}
}

func printInventory(cmd *cobra.Command, inv models.ProjectFileMapping, asJSON bool) error {
	summaries := make([]projectSummary, 0, len(inv))
	for _, id := range inv.ProjectIDs() {
		summaries = append(summaries, projectSummary{ID: id, Files: len(inv[id])})
	}
	if asJSON {
		return printJSON(cmd, summaries)
	}

	t := newTable("PROJECT", "FILES")
	for _, s := range summaries {
		t.Row(strconv.FormatInt(int64(s.ID), 10), strconv.Itoa(s.Files))
	}
	fmt.Fprintln(cmd.OutOrStdout(), t)
	return nil
}

func printFiles(cmd *cobra.Command, files models.FileMapping, asJSON bool) error {
	if asJSON {
		return printJSON(cmd, files)
	}

	t := newTable("PATH", "UPDATED", "HASH")
	for _, p := range files.Paths() {
		rec := files[p]
		t.Row(rec.Path, rec.UpdatedAt.Format("2006-01-02 15:04:05"), rec.ContentHash)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t)
	return nil
}
