package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	easylogging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/sanity-io/litter"
	"golang.org/x/xerrors"

	"github.com/KonishchevDmitry/storage-harness/internal/config"
	"github.com/KonishchevDmitry/storage-harness/internal/containers"
	"github.com/KonishchevDmitry/storage-harness/internal/handles"
	"github.com/KonishchevDmitry/storage-harness/internal/util"
)

func listContainers(ctx context.Context, cfg config.Config, lister containers.Lister) error {
	set, err := lister.List(ctx)
	if err != nil {
		return err
	}
	easylogging.L(ctx).Debugf("Containers: %s", litter.Sdump(set))

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(writer, "NAME\tID\t%s\n", cfg.Network)
	for _, name := range set.Names() {
		container := set[name]
		_, _ = fmt.Fprintf(writer, "%s\t%.12s\t%s\n", name, container.ID, container.Address(cfg.Network).OrElse("-"))
	}

	return writer.Flush()
}

func prepareScratchFiles(ctx context.Context, cfg config.Config, lister containers.Lister) error {
	set, err := lister.List(ctx)
	if err != nil {
		return err
	}

	preparer := cfg.Scratch()
	if err := preparer.Prepare(ctx, set.Names()); err != nil {
		return err
	}

	for _, name := range set.Names() {
		fmt.Println(preparer.Path(name))
	}

	return nil
}

func connect(ctx context.Context, cfg config.Config, lister containers.Lister) (retErr error) {
	set, err := lister.List(ctx)
	if err != nil {
		return err
	}

	if cfg.DialTimeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	dialer := cfg.Dialer()
	dialer.WaitReady = true

	opened, err := handles.Open(ctx, set, cfg.Network, dialer.Open)
	if err != nil {
		return err
	}
	defer func() {
		if err := opened.Close(); err != nil && retErr == nil {
			retErr = xerrors.Errorf("Failed to close the connections: %w", err)
		}
	}()

	for _, name := range opened.Names() {
		conn := opened[name].(*handles.Conn)
		fmt.Printf("%s: %s (%s)\n", name, conn.Target(), conn.ClientConn().GetState())
	}
	easylogging.L(ctx).Infof("Connected to %s.", util.FormatList(opened.Names()))

	return nil
}
