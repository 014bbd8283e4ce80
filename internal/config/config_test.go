package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/stretchr/testify/require"

	"github.com/KonishchevDmitry/storage-harness/internal/handles"
)

func TestDefaults(t *testing.T) {
	config, err := FromEnv()
	require.NoError(t, err)

	require.Equal(t, Config{
		Project:      "storage",
		Runtime:      Docker,
		PodmanSocket: "unix:///run/podman/podman.sock",
		Network:      "mayastor_net",
		GRPCPort:     10124,
		DialTimeout:  30 * time.Second,
		ScratchDir:   "/tmp",
		ScratchSize:  1073741824,
	}, config)

	require.Equal(t, handles.Dialer{Port: 10124}, config.Dialer())
	require.Equal(t, "/tmp/ms0.img", config.Scratch().Path("ms0"))
}

func TestEnv(t *testing.T) {
	t.Setenv("STORAGE_HARNESS_PROJECT", "nexus")
	t.Setenv("STORAGE_HARNESS_RUNTIME", "Podman")
	t.Setenv("STORAGE_HARNESS_NETWORK", "storage_net")
	t.Setenv("STORAGE_HARNESS_GRPC_PORT", "10125")
	t.Setenv("STORAGE_HARNESS_WAIT_READY", "true")
	t.Setenv("STORAGE_HARNESS_DIAL_TIMEOUT", "5s")
	t.Setenv("STORAGE_HARNESS_SCRATCH_DIR", "/var/tmp")
	t.Setenv("STORAGE_HARNESS_SCRATCH_SIZE", "64M")

	config, err := FromEnv()
	require.NoError(t, err)

	require.Equal(t, "nexus", config.Project)
	require.Equal(t, Podman, config.Runtime)
	require.Equal(t, "storage_net", config.Network)
	require.Equal(t, handles.Dialer{Port: 10125, WaitReady: true}, config.Dialer())
	require.Equal(t, 5*time.Second, config.DialTimeout)
	require.Equal(t, "/var/tmp/ms0.img", config.Scratch().Path("ms0"))
	require.Equal(t, int64(64<<20), config.ScratchSize)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harness.yaml")
	require.NoError(t, os.WriteFile(path, []byte(heredoc.Doc(`
		project: rebuild
		network: rebuild_net
		scratch-size: 128M
	`)), 0o644))

	t.Setenv("STORAGE_HARNESS_CONFIG", path)
	t.Setenv("STORAGE_HARNESS_NETWORK", "env_net")

	config, err := FromEnv()
	require.NoError(t, err)

	require.Equal(t, "rebuild", config.Project)
	require.Equal(t, "env_net", config.Network)
	require.Equal(t, int64(128<<20), config.ScratchSize)
	require.Equal(t, Docker, config.Runtime)
}

func TestInvalid(t *testing.T) {
	for _, c := range []struct {
		name    string
		key     string
		value   string
		message string
	}{
		{"runtime", "STORAGE_HARNESS_RUNTIME", "containerd", "Unknown container runtime"},
		{"port", "STORAGE_HARNESS_GRPC_PORT", "70000", "Invalid gRPC port"},
		{"size", "STORAGE_HARNESS_SCRATCH_SIZE", "huge", "Invalid scratch file size"},
		{"network", "STORAGE_HARNESS_NETWORK", "", "Storage network name is not specified"},
		{"file", "STORAGE_HARNESS_CONFIG", "/nonexistent/harness.yaml", "configuration file"},
	} {
		t.Run(c.name, func(t *testing.T) {
			t.Setenv(c.key, c.value)

			_, err := FromEnv()
			require.ErrorContains(t, err, c.message)
		})
	}

	t.Setenv("STORAGE_HARNESS_RUNTIME", "lxc")
	_, err := FromEnv()
	require.ErrorIs(t, err, ErrUnknownRuntime)
}
