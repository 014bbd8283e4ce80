package containers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type contextKey struct{}

func TestPodmanContext(t *testing.T) {
	connection := context.WithValue(context.Background(), contextKey{}, "connection")

	request, cancel := context.WithCancel(context.Background())
	ctx := withClient(request, connection)
	require.Equal(t, "connection", ctx.Value(contextKey{}))

	cancel()
	<-ctx.Done()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
	require.NoError(t, connection.Err())

	// Request values take precedence
	ctx = withClient(context.WithValue(request, contextKey{}, "request"), connection)
	require.Equal(t, "request", ctx.Value(contextKey{}))
}
