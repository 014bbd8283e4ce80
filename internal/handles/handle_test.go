package handles

import (
	"context"
	"testing"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/xerrors"

	"github.com/KonishchevDmitry/storage-harness/internal/containers"
)

func testContext(t *testing.T) context.Context {
	return logging.WithLogger(context.Background(), zaptest.NewLogger(t).Sugar())
}

func storageNode(name string, address string) containers.Container {
	return containers.Container{
		ID:       name + "-id",
		Name:     name,
		Networks: map[string]string{DefaultNetwork: address, "bridge": "172.17.0.2"},
	}
}

func TestOpen(t *testing.T) {
	ctx := testContext(t)

	t.Run("single node", func(t *testing.T) {
		var opener OpenerMock

		handles, err := Open(ctx, containers.Set{"node1": storageNode("node1", "10.0.0.5")}, DefaultNetwork, opener.Open)
		require.NoError(t, err)
		require.Len(t, handles, 1)
		require.Equal(t, "10.0.0.5", handles["node1"].Address())
	})

	t.Run("handle per container", func(t *testing.T) {
		var opener OpenerMock

		set := containers.Set{
			"ms0": storageNode("ms0", "10.1.0.2"),
			"ms1": storageNode("ms1", "10.1.0.3"),
			"ms2": storageNode("ms2", "10.1.0.4"),
		}

		handles, err := Open(ctx, set, DefaultNetwork, opener.Open)
		require.NoError(t, err)
		require.Equal(t, []string{"ms0", "ms1", "ms2"}, handles.Names())
		require.Len(t, opener.Opened(), 3)

		for name, handle := range handles {
			address, ok := set[name].Address(DefaultNetwork).Get()
			require.True(t, ok)
			require.Equal(t, address, handle.Address())
		}

		require.NoError(t, handles.Close())
		for _, handle := range opener.Opened() {
			require.True(t, handle.Closed())
		}
	})

	t.Run("empty", func(t *testing.T) {
		var opener OpenerMock

		handles, err := Open(ctx, containers.Set{}, DefaultNetwork, opener.Open)
		require.NoError(t, err)
		require.Empty(t, handles)
	})

	t.Run("missing network", func(t *testing.T) {
		var opener OpenerMock

		detached := containers.Container{ID: "ms1-id", Name: "ms1", Networks: map[string]string{"bridge": "172.17.0.3"}}
		set := containers.Set{"ms0": storageNode("ms0", "10.1.0.2"), "ms1": detached}

		handles, err := Open(ctx, set, DefaultNetwork, opener.Open)
		require.ErrorIs(t, err, ErrNoAddress)
		require.ErrorContains(t, err, "ms1")
		require.Nil(t, handles)

		// ms0 is opened first and must be released
		opened := opener.Opened()
		require.Len(t, opened, 1)
		require.True(t, opened[0].Closed())
	})

	t.Run("no fallback network", func(t *testing.T) {
		var opener OpenerMock

		_, err := Open(ctx, containers.Set{"ms0": storageNode("ms0", "10.1.0.2")}, "other_net", opener.Open)
		require.ErrorIs(t, err, ErrNoAddress)
		require.Empty(t, opener.Opened())
	})

	t.Run("open error", func(t *testing.T) {
		refused := xerrors.New("Connection refused")
		opener := OpenerMock{Failures: map[string]error{"10.1.0.3": refused}}

		set := containers.Set{"ms0": storageNode("ms0", "10.1.0.2"), "ms1": storageNode("ms1", "10.1.0.3")}

		_, err := Open(ctx, set, DefaultNetwork, opener.Open)
		require.ErrorIs(t, err, refused)
		require.ErrorContains(t, err, "Unable to open ms1 handle at 10.1.0.3")

		opened := opener.Opened()
		require.Len(t, opened, 1)
		require.True(t, opened[0].Closed())
	})
}

type failingHandle struct {
	address string
}

func (h failingHandle) Address() string {
	return h.address
}

func (h failingHandle) Close() error {
	return xerrors.Errorf("%s is gone", h.address)
}

func TestSetClose(t *testing.T) {
	ok := &HandleMock{address: "10.1.0.4"}

	err := Set{
		"ms0": failingHandle{address: "10.1.0.2"},
		"ms1": failingHandle{address: "10.1.0.3"},
		"ms2": ok,
	}.Close()

	require.Error(t, err)
	require.ErrorContains(t, err, "Failed to close ms0 handle: 10.1.0.2 is gone")
	require.ErrorContains(t, err, "Failed to close ms1 handle: 10.1.0.3 is gone")
	require.True(t, ok.Closed())

	require.NoError(t, Set{}.Close())
}
