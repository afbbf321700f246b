// Package cmd implements the projsync subcommands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/grovetools/projsync/cli"
	"github.com/grovetools/projsync/config"
	"github.com/grovetools/projsync/errors"
	"github.com/grovetools/projsync/pkg/cloud"
	"github.com/grovetools/projsync/pkg/inventory"
	"github.com/grovetools/projsync/pkg/localfiles"
	"github.com/grovetools/projsync/pkg/models"
	"github.com/grovetools/projsync/pkg/paths"
	"github.com/grovetools/projsync/pkg/profiling"
	"github.com/grovetools/projsync/pkg/session"
	"github.com/grovetools/projsync/state"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// env is what a client subcommand works with: the loaded configuration and a
// session over the daemon or an in-process scanner.
type env struct {
	cfg     *config.Config
	session *session.Session
	logger  *logrus.Entry
	json    bool
}

func openEnv(cmd *cobra.Command) (*env, error) {
	logger := cli.GetLogger(cmd, "projsync")

	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}

	scanner, err := inventory.NewScanner(cfg.Ignore,
		inventory.WithWorkers(cfg.Daemon.HashWorkers),
		inventory.WithLogger(logger.WithField("scope", "scanner")),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid ignore patterns")
	}
	local := localfiles.NewLocalProvider(scanner, cfg.InventoryProjects())
	provider := localfiles.NewProvider(paths.SocketPath(), local)
	logger.WithField("provider", provider.Name()).Debug("Selected local data provider")

	statePath, err := state.DefaultPath()
	if err != nil {
		return nil, err
	}
	s, err := session.New(provider, session.WithLogger(logger), session.WithStateFile(statePath))
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:     cfg,
		session: s,
		logger:  logger,
		json:    cli.GetOptions(cmd).JSONOutput,
	}, nil
}

func (e *env) Close() {
	if err := e.session.Close(); err != nil {
		e.logger.WithError(err).Debug("Failed to close session")
	}
}

// syncCloud fetches cloud metadata when a source is configured.
func (e *env) syncCloud(ctx context.Context) error {
	if e.cfg.Cloud.Source == "" {
		e.logger.Debug("No cloud.source configured, skipping cloud sync")
		return nil
	}
	return e.session.SyncCloud(ctx, cloud.NewFetcher(e.cfg.Cloud.Source))
}

// loadAll populates both sources. Failures are logged and leave the affected
// store as it was, so the view reports the project as unavailable.
func (e *env) loadAll(ctx context.Context) {
	defer profiling.Start("load").Stop()

	span := profiling.Start("cloud sync")
	if err := e.syncCloud(ctx); err != nil {
		e.logger.WithError(err).Warn("Cloud sync failed")
	}
	span.Stop()

	span = profiling.Start("refresh files")
	if err := e.session.RefreshFiles(ctx); err != nil {
		e.logger.WithError(err).Warn("Local file refresh failed")
	}
	span.Stop()
}

func parseProjectID(arg string) (models.ProjectID, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("invalid project id %q", arg)).
			WithDetail("arg", arg)
	}
	return models.ProjectID(id), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
