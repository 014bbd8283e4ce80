package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	easylogging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/MakeNowJust/heredoc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/KonishchevDmitry/storage-harness/internal/config"
	"github.com/KonishchevDmitry/storage-harness/internal/containers"
	"github.com/KonishchevDmitry/storage-harness/internal/handles"
	"github.com/KonishchevDmitry/storage-harness/internal/logging"
	"github.com/KonishchevDmitry/storage-harness/internal/metrics"
	"github.com/KonishchevDmitry/storage-harness/internal/util"
)

type action func(ctx context.Context, cfg config.Config, lister containers.Lister) error

func run() error {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s [flags] command", os.Args[0]),
		Short: "Storage integration tests environment tool",
		Long: heredoc.Doc(`
			Inspects and prepares the environment of storage integration tests: running containers of
			the compose project, their management API endpoints and scratch files.

			All flags may be also set via STORAGE_HARNESS_* environment variables or a configuration file.
		`),
		Args: cobra.NoArgs,

		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
	}

	flags := cmd.PersistentFlags()
	flags.Bool("devel", false, "development mode logging")
	flags.Bool("metrics", false, "print harness metrics on exit")
	flags.String(config.FileKey, "", "configuration file path")
	flags.String(config.ProjectKey, config.DefaultProject, "compose project name")
	flags.String(config.RuntimeKey, string(config.Docker), "container runtime: docker or podman")
	flags.String(config.NetworkKey, handles.DefaultNetwork, "storage network name")

	for _, key := range []string{config.FileKey, config.ProjectKey, config.RuntimeKey, config.NetworkKey} {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			return err
		}
	}

	cmd.AddCommand(
		newCommand(v, "containers", "Print running containers of the project and their storage addresses", listContainers),
		newCommand(v, "prepare", "Recreate scratch files of all containers of the project", prepareScratchFiles),
		newCommand(v, "connect", "Connect to the management API of all containers of the project", connect),
	)

	return cmd.Execute()
}

func newCommand(v *viper.Viper, name string, description string, action action) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: description,
		Args:  cobra.NoArgs,

		Run: func(cmd *cobra.Command, args []string) {
			if err := execute(cmd, v, action); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Error: %s.\n", err)
				os.Exit(1)
			}
		},
	}
}

func execute(cmd *cobra.Command, v *viper.Viper, action action) (retErr error) {
	flags := cmd.Flags()

	develMode, err := flags.GetBool("devel")
	if err != nil {
		return err
	}

	printMetrics, err := flags.GetBool("metrics")
	if err != nil {
		return err
	}

	logger, err := logging.Configure(develMode)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // Always fails to sync stderr
	}()
	ctx := logging.Component(easylogging.WithLogger(context.Background(), logger), cmd.Name())

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	logger.Debugf("%s runtime, %q project.", util.Title(string(cfg.Runtime)), cfg.Project)

	if printMetrics {
		defer func() {
			if err := dumpMetrics(os.Stdout); err != nil && retErr == nil {
				retErr = err
			}
		}()
	}

	lister := cfg.Lister()
	defer func() {
		if err := lister.Close(); err != nil {
			logger.Errorf("Failed to close container runtime client: %s.", err)
		}
	}()

	return action(ctx, cfg, lister)
}

func dumpMetrics(writer io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}

	for _, family := range families {
		if strings.HasPrefix(family.GetName(), metrics.Namespace+"_") {
			if _, err := expfmt.MetricFamilyToText(writer, family); err != nil {
				return err
			}
		}
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Command line arguments parsing error: %s.\n", err)
		os.Exit(1)
	}
}
