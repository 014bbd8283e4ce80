// Package handles opens management API handles to the storage nodes of a container set.
package handles

import (
	"context"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"go.uber.org/multierr"
	"golang.org/x/xerrors"

	"github.com/KonishchevDmitry/storage-harness/internal/containers"
	"github.com/KonishchevDmitry/storage-harness/internal/metrics"
	"github.com/KonishchevDmitry/storage-harness/internal/util"
)

// DefaultNetwork is the network the storage nodes talk to each other and to the tests on.
const DefaultNetwork = "mayastor_net"

var ErrNoAddress = xerrors.New("Container is not attached to the network")

type Handle interface {
	Address() string
	Close() error
}

// Opener constructs a handle bound to the address. It may connect and thus block or fail.
type Opener func(ctx context.Context, address string) (Handle, error)

type Set map[string]Handle

func (s Set) Names() []string {
	return util.SortedKeys(s)
}

func (s Set) Close() error {
	var err error
	for _, name := range s.Names() {
		if closeErr := s[name].Close(); closeErr != nil {
			err = multierr.Append(err, xerrors.Errorf("Failed to close %s handle: %w", name, closeErr))
		}
	}
	return err
}

// Open opens exactly one handle per container using the container address on the specified network.
// Nothing is returned on error: handles opened so far are closed.
func Open(ctx context.Context, set containers.Set, network string, opener Opener) (retHandles Set, retErr error) {
	handles := make(Set, len(set))
	defer func() {
		if retErr != nil {
			if err := handles.Close(); err != nil {
				logging.L(ctx).Warnf("Failed to release handles: %s.", err)
			}
		}
	}()

	for _, name := range set.Names() {
		address, ok := set[name].Address(network).Get()
		if !ok {
			return nil, xerrors.Errorf("%s: %q: %w", name, network, ErrNoAddress)
		}

		handle, err := opener(ctx, address)
		if err != nil {
			return nil, xerrors.Errorf("Unable to open %s handle at %s: %w", name, address, err)
		}
		metrics.HandlesOpenedMetric.Inc()

		logging.L(ctx).Debugf("Opened %s handle at %s.", name, handle.Address())
		handles[name] = handle
	}

	return handles, nil
}
