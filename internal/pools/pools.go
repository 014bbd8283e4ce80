// Package pools checks storage pool space accounting between two usage snapshots.
//
// Only the first pool of a snapshot is consulted: the test topologies have a single pool per node.
package pools

import (
	"context"
	"math"

	"github.com/sanity-io/litter"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

var ErrNoPools = xerrors.New("Snapshot has no pools")

type Pool struct {
	Name     string
	Capacity uint64
	Used     uint64
}

type Snapshot struct {
	Pools []Pool
}

// Lister is implemented on top of the management API client of a storage node.
type Lister interface {
	ListPools(ctx context.Context) (Snapshot, error)
}

type ListerFunc func(ctx context.Context) (Snapshot, error)

func (f ListerFunc) ListPools(ctx context.Context) (Snapshot, error) {
	return f(ctx)
}

const mebibyteShift = 20

// SizeDelta returns how many MiB the first pool has released between the snapshots. The value is negative
// when usage has grown: the arithmetic shift rounds it towards negative infinity, so growing by a single
// byte already gives -1. Usage above math.MaxInt64 is rejected.
func SizeDelta(prev Snapshot, current Snapshot) (int64, error) {
	if len(prev.Pools) == 0 {
		return 0, xerrors.Errorf("Previous snapshot: %w", ErrNoPools)
	} else if len(current.Pools) == 0 {
		return 0, xerrors.Errorf("Current snapshot: %w", ErrNoPools)
	}

	before, after := prev.Pools[0].Used, current.Pools[0].Used
	for _, used := range []uint64{before, after} {
		if used > math.MaxInt64 {
			return 0, xerrors.Errorf("Pool usage is out of range: %d", used)
		}
	}

	return (int64(before) - int64(after)) >> mebibyteShift, nil
}

// CheckSize fails the test if the first pool usage hasn't changed by exactly deltaMiB.
func CheckSize(t require.TestingT, prev Snapshot, current Snapshot, deltaMiB int64) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}

	delta, err := SizeDelta(prev, current)
	if err != nil {
		t.Errorf("Unable to check pool usage: %s", err)
		t.FailNow()
		return
	}

	require.Equal(t, deltaMiB, delta,
		"Unexpected pool usage delta: %d MiB instead of %d MiB.\nBefore: %s\nAfter: %s",
		delta, deltaMiB, litter.Sdump(prev.Pools[0]), litter.Sdump(current.Pools[0]))
}

// Track takes pool usage snapshots before and after the operation and checks the delta between them.
func Track(ctx context.Context, t require.TestingT, lister Lister, deltaMiB int64, operation func()) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}

	prev, err := lister.ListPools(ctx)
	if err != nil {
		t.Errorf("Unable to list pools: %s", err)
		t.FailNow()
		return
	}

	operation()

	current, err := lister.ListPools(ctx)
	if err != nil {
		t.Errorf("Unable to list pools: %s", err)
		t.FailNow()
		return
	}

	CheckSize(t, prev, current, deltaMiB)
}
