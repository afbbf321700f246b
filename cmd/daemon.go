package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grovetools/projsync/cli"
	"github.com/grovetools/projsync/errors"
	"github.com/grovetools/projsync/internal/daemon/collector"
	"github.com/grovetools/projsync/internal/daemon/engine"
	"github.com/grovetools/projsync/internal/daemon/hashindex"
	"github.com/grovetools/projsync/internal/daemon/metrics"
	"github.com/grovetools/projsync/internal/daemon/pidfile"
	"github.com/grovetools/projsync/internal/daemon/server"
	"github.com/grovetools/projsync/internal/daemon/store"
	"github.com/grovetools/projsync/logging"
	"github.com/grovetools/projsync/pkg/inventory"
	"github.com/grovetools/projsync/pkg/localfiles"
	"github.com/grovetools/projsync/pkg/paths"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewDaemonCmd returns the daemon command with subcommands.
func NewDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the local inventory daemon",
		Long: `The daemon keeps the local inventory warm: it watches the configured
project roots, rescans on change and serves the result over a unix socket.
Client commands use it automatically when it is running.`,
	}

	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())

	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the daemon",
		Long:  "Start the projsync daemon in foreground mode.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cli.GetLogger(cmd, "projsyncd")

			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("failed to create projsync directories: %w", err)
			}

			pidPath := paths.PidFilePath()
			sockPath := paths.SocketPath()

			if err := pidfile.Acquire(pidPath); err != nil {
				return err
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.Errorf("Failed to release pidfile: %v", err)
				}
			}()

			indexPath := cfg.Daemon.Index
			if indexPath == "" {
				indexPath = paths.IndexPath()
			}
			idx, err := hashindex.Open(indexPath, logger.WithField("scope", "hashindex"))
			if err != nil {
				return err
			}
			defer idx.Close()

			scanner, err := inventory.NewScanner(cfg.Ignore,
				inventory.WithWorkers(cfg.Daemon.HashWorkers),
				inventory.WithHashCache(idx),
				inventory.WithLogger(logger.WithField("scope", "scanner")),
			)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid ignore patterns")
			}

			projects := cfg.InventoryProjects()
			st := store.New()
			eng := engine.New(st, logger)
			eng.Register(collector.NewInventoryCollector(scanner, projects,
				collector.WithInterval(cfg.Daemon.Interval()),
				collector.WithDebounce(cfg.Daemon.Debounce()),
				collector.WithLogger(logger.WithField("collector", "inventory")),
				collector.WithScanObserver(metrics.RecordScan),
			))

			srv := server.New(logger)
			srv.SetEngine(eng)
			srv.SetRunningConfig(&server.RunningConfig{
				ScanInterval: cfg.Daemon.Interval(),
				Debounce:     cfg.Daemon.Debounce(),
				HashWorkers:  cfg.Daemon.HashWorkers,
				IndexPath:    idx.Path(),
				Projects:     len(projects),
				StartedAt:    time.Now(),
			})

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			go func() {
				<-ctx.Done()
				logger.Info("Received stop signal")

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Errorf("Server shutdown error: %v", err)
				}
			}()

			engineDone := make(chan struct{})
			go func() {
				defer close(engineDone)
				eng.Start(ctx)
			}()

			logger.WithFields(logrus.Fields{
				"pid":      os.Getpid(),
				"socket":   sockPath,
				"projects": len(projects),
			}).Info("Starting daemon")

			serveErr := srv.ListenAndServe(sockPath)
			cancel()
			<-engineDone
			if serveErr != nil {
				return fmt.Errorf("server error: %w", serveErr)
			}
			return nil
		},
	}
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()

			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}
			if !running {
				return errors.DaemonNotRunning(paths.SocketPath())
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("failed to find process %d: %w", pid, err)
			}
			if err := process.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("failed to send stop signal: %w", err)
			}

			logging.NewConsole(cmd.OutOrStdout()).
				Success(fmt.Sprintf("Sent SIGTERM to process %d", pid))
			return nil
		},
	}
}

type daemonStatus struct {
	Running    bool   `json:"running"`
	PID        int    `json:"pid,omitempty"`
	Socket     string `json:"socket"`
	Responding bool   `json:"responding"`
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}

			status := daemonStatus{
				Running: running,
				PID:     pid,
				Socket:  paths.SocketPath(),
			}
			if running {
				client := localfiles.NewRemoteProvider(status.Socket)
				status.Responding = client.IsRunning()
				client.Close()
			}

			if cli.GetOptions(cmd).JSONOutput {
				if err := printJSON(cmd, status); err != nil {
					return err
				}
			} else {
				p := logging.NewConsole(cmd.OutOrStdout())
				if running {
					p.Success(fmt.Sprintf("Running (PID: %d)", pid))
					p.Path("socket", status.Socket)
					p.Field("responding", status.Responding)
				} else {
					p.Warn("Stopped")
				}
			}

			if !running {
				return errors.DaemonNotRunning(status.Socket)
			}
			return nil
		},
	}
}
