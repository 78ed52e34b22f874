package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bazuu/investorconnect/internal/daemon"
)

var (
	newSystem    = func() daemon.System { return daemon.RealSystem{} }
	daemonStart  = daemon.Start
	daemonStop   = daemon.Stop
	daemonStatus = daemon.Status
)

func newDaemonStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "daemon:start",
		Aliases: []string{"d:start", "up"},
		Short:   "Install and start the server as a user service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			unit, err := daemonUnit(cmd)
			if err != nil {
				return err
			}
			if err := daemonStart(newSystem(), unit); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Service started. Logs: %s\n", unit.LogFile)
			return nil
		},
	}
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "daemon:stop",
		Aliases: []string{"d:stop", "down"},
		Short:   "Stop and uninstall the user service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := daemonStop(newSystem()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Service stopped.")
			return nil
		},
	}
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "daemon:status",
		Aliases: []string{"d:status"},
		Short:   "Show the user service status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := daemonStatus(newSystem())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Service: %s\n", state)
			return nil
		},
	}
}

// daemonUnit resolves the config path to an absolute one since the service
// manager starts the binary from a different directory.
func daemonUnit(cmd *cobra.Command) (daemon.Unit, error) {
	home, err := userHomeDir()
	if err != nil {
		return daemon.Unit{}, fmt.Errorf("getting home directory: %w", err)
	}
	unit := daemon.Unit{LogFile: filepath.Join(home, ".investorconnect", "investorconnect.log")}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if unit.ConfigPath, err = filepath.Abs(path); err != nil {
			return daemon.Unit{}, fmt.Errorf("resolving config path: %w", err)
		}
	}
	return unit, nil
}
