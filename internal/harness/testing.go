package harness

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/KonishchevDmitry/storage-harness/internal/handles"
	loggingconfig "github.com/KonishchevDmitry/storage-harness/internal/logging"
)

// New sets up an environment for a single test and releases it when the test finishes.
func New(t testing.TB, opts ...Option) *Environment {
	t.Helper()

	ctx := logging.WithLogger(context.Background(), zaptest.NewLogger(t).Sugar())

	env, err := Setup(ctx, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, env.Close())
	})

	return env
}

// Main sets up an environment shared by all tests of the package and runs them. It's intended to be
// called from TestMain:
//
//	var env *harness.Environment
//
//	func TestMain(m *testing.M) {
//		os.Exit(harness.Main(m, func(shared *harness.Environment) { env = shared }))
//	}
func Main(m *testing.M, setup func(env *Environment), opts ...Option) int {
	if !flag.Parsed() {
		flag.Parse()
	}

	logger, err := loggingconfig.Configure(testing.Verbose())
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to configure logging: %s.\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	env, err := Setup(logging.WithLogger(context.Background(), logger), opts...)
	if err != nil {
		logger.Errorf("Failed to set up test environment: %s.", err)
		return 1
	}

	setup(env)
	code := m.Run()

	if err := env.Close(); err != nil {
		logger.Errorf("Failed to release test environment: %s.", err)
		if code == 0 {
			code = 1
		}
	}

	return code
}

func (e *Environment) Handle(t require.TestingT, name string) handles.Handle {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}

	handle, ok := e.Handles[name]
	if !ok {
		t.Errorf("There is no %q storage node. Available nodes: %v.", name, e.Handles.Names())
		t.FailNow()
		return nil
	}

	return handle
}

// Conn returns gRPC connection of the storage node to create the management API clients on top of.
func (e *Environment) Conn(t require.TestingT, name string) *handles.Conn {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}

	handle := e.Handle(t, name)
	if handle == nil {
		return nil
	}

	conn, ok := handle.(*handles.Conn)
	if !ok {
		t.Errorf("%q storage node handle is not a gRPC connection: %T.", name, handle)
		t.FailNow()
		return nil
	}

	return conn
}
