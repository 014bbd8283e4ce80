package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/xerrors"

	"github.com/KonishchevDmitry/storage-harness/internal/containers"
	"github.com/KonishchevDmitry/storage-harness/internal/handles"
	"github.com/KonishchevDmitry/storage-harness/internal/scratch"
)

const EnvPrefix = "STORAGE_HARNESS"

const (
	FileKey         = "config"
	ProjectKey      = "project"
	RuntimeKey      = "runtime"
	PodmanSocketKey = "podman-socket"
	NetworkKey      = "network"
	GRPCPortKey     = "grpc-port"
	WaitReadyKey    = "wait-ready"
	DialTimeoutKey  = "dial-timeout"
	ScratchDirKey   = "scratch-dir"
	ScratchSizeKey  = "scratch-size"
)

const DefaultProject = "storage"

type Runtime string

const (
	Docker Runtime = "docker"
	Podman Runtime = "podman"
)

var ErrUnknownRuntime = xerrors.New("Unknown container runtime")

type Config struct {
	Project      string
	Runtime      Runtime
	PodmanSocket string

	Network     string
	GRPCPort    int
	WaitReady   bool
	DialTimeout time.Duration

	ScratchDir  string
	ScratchSize int64
}

// NewViper returns a viper instance reading STORAGE_HARNESS_* environment variables with all defaults set.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	v.SetDefault(ProjectKey, DefaultProject)
	v.SetDefault(RuntimeKey, string(Docker))
	v.SetDefault(PodmanSocketKey, containers.DefaultPodmanSocket)
	v.SetDefault(NetworkKey, handles.DefaultNetwork)
	v.SetDefault(GRPCPortKey, handles.DefaultPort)
	v.SetDefault(WaitReadyKey, false)
	v.SetDefault(DialTimeoutKey, 30*time.Second)
	v.SetDefault(ScratchDirKey, scratch.DefaultDir)
	v.SetDefault(ScratchSizeKey, "1G")

	return v
}

func FromEnv() (Config, error) {
	return Load(NewViper())
}

// Load reads the configuration file if it's specified and returns the validated configuration.
func Load(v *viper.Viper) (Config, error) {
	if path := v.GetString(FileKey); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, xerrors.Errorf("Unable to read %q configuration file: %w", path, err)
		}
	}

	config := Config{
		Project:      v.GetString(ProjectKey),
		Runtime:      Runtime(strings.ToLower(v.GetString(RuntimeKey))),
		PodmanSocket: v.GetString(PodmanSocketKey),
		Network:      v.GetString(NetworkKey),
		GRPCPort:     v.GetInt(GRPCPortKey),
		WaitReady:    v.GetBool(WaitReadyKey),
		DialTimeout:  v.GetDuration(DialTimeoutKey),
		ScratchDir:   v.GetString(ScratchDirKey),
	}

	scratchSize, err := scratch.ParseSize(v.GetString(ScratchSizeKey))
	if err != nil {
		return Config{}, err
	}
	config.ScratchSize = scratchSize

	if err := config.validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) validate() error {
	switch {
	case c.Project == "":
		return xerrors.New("Compose project name is not specified")
	case c.Network == "":
		return xerrors.New("Storage network name is not specified")
	case c.ScratchDir == "":
		return xerrors.New("Scratch files directory is not specified")
	case c.GRPCPort <= 0 || c.GRPCPort > 65535:
		return xerrors.Errorf("Invalid gRPC port: %d", c.GRPCPort)
	case c.DialTimeout < 0:
		return xerrors.Errorf("Invalid dial timeout: %s", c.DialTimeout)
	}

	switch c.Runtime {
	case Docker:
	case Podman:
		if c.PodmanSocket == "" {
			return xerrors.New("Podman socket is not specified")
		}
	default:
		return xerrors.Errorf("%w: %q", ErrUnknownRuntime, c.Runtime)
	}

	return nil
}

func (c Config) Dialer() handles.Dialer {
	return handles.Dialer{
		Port:      c.GRPCPort,
		WaitReady: c.WaitReady,
	}
}

func (c Config) Scratch() *scratch.Preparer {
	return scratch.New(c.ScratchDir, c.ScratchSize)
}

func (c Config) Lister() containers.Lister {
	if c.Runtime == Podman {
		return containers.NewPodmanLister(c.Project, c.PodmanSocket)
	}
	return containers.NewDockerLister(c.Project)
}
