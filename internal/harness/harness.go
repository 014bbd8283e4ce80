// Package harness composes the fixtures of storage integration tests: the running containers of the
// compose project, management API handles to them and scratch files for their block devices.
//
// Per-test environments are created with New and released by the test cleanup. Per-package environments
// are created once from TestMain by Main and shared by all tests of the package, so the tests must not
// corrupt the state they share.
package harness

import (
	"context"
	"sync"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/samber/mo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/KonishchevDmitry/storage-harness/internal/config"
	"github.com/KonishchevDmitry/storage-harness/internal/containers"
	"github.com/KonishchevDmitry/storage-harness/internal/handles"
	loggingconfig "github.com/KonishchevDmitry/storage-harness/internal/logging"
	"github.com/KonishchevDmitry/storage-harness/internal/scratch"
)

type Environment struct {
	Config     config.Config
	Containers containers.Set
	Handles    handles.Set
	Scratch    *scratch.Preparer

	lister       containers.Lister
	scratchNames []string

	closeOnce sync.Once
	closeErr  error
}

type options struct {
	config         mo.Option[config.Config]
	lister         containers.Lister
	opener         handles.Opener
	logger         *zap.SugaredLogger
	scratchFiles   bool
	scratchCleanup bool
}

type Option func(*options)

// WithConfig overrides the configuration which is read from the environment by default.
func WithConfig(config config.Config) Option {
	return func(o *options) {
		o.config = mo.Some(config)
	}
}

// WithLister overrides the container runtime client. The environment takes the lister ownership.
func WithLister(lister containers.Lister) Option {
	return func(o *options) {
		o.lister = lister
	}
}

func WithOpener(opener handles.Opener) Option {
	return func(o *options) {
		o.opener = opener
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithScratchFiles recreates the scratch files of all containers during setup.
func WithScratchFiles() Option {
	return func(o *options) {
		o.scratchFiles = true
	}
}

// WithScratchCleanup deletes the scratch files on Close.
func WithScratchCleanup() Option {
	return func(o *options) {
		o.scratchCleanup = true
	}
}

// Setup acquires all environment resources. On error everything acquired so far is released. The context
// must carry a logger unless WithLogger is specified.
func Setup(ctx context.Context, opts ...Option) (retEnv *Environment, retErr error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger != nil {
		ctx = logging.WithLogger(ctx, o.logger)
	}

	cfg, ok := o.config.Get()
	if !ok {
		var err error
		if cfg, err = config.FromEnv(); err != nil {
			if o.lister != nil {
				_ = o.lister.Close()
			}
			return nil, err
		}
	}

	lister := o.lister
	if lister == nil {
		lister = cfg.Lister()
	}

	opener := o.opener
	if opener == nil {
		opener = dialOpener(cfg)
	}

	env := &Environment{
		Config:  cfg,
		Scratch: cfg.Scratch(),
		lister:  lister,
	}
	defer func() {
		if retErr != nil {
			if err := env.Close(); err != nil {
				logging.L(ctx).Warnf("Failed to release the environment: %s.", err)
			}
		}
	}()

	set, err := lister.List(loggingconfig.Component(ctx, "containers"))
	if err != nil {
		return nil, err
	}
	env.Containers = set
	logging.L(ctx).Debugf("%q project containers: %v.", cfg.Project, set.Names())

	if o.scratchFiles {
		if err := env.Scratch.Prepare(loggingconfig.Component(ctx, "scratch"), set.Names()); err != nil {
			return nil, err
		}
		if o.scratchCleanup {
			env.scratchNames = set.Names()
		}
	}

	env.Handles, err = handles.Open(loggingconfig.Component(ctx, "handles"), set, cfg.Network, opener)
	if err != nil {
		return nil, err
	}

	return env, nil
}

func dialOpener(cfg config.Config) handles.Opener {
	dialer := cfg.Dialer()
	return func(ctx context.Context, address string) (handles.Handle, error) {
		if dialer.WaitReady && cfg.DialTimeout != 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
			defer cancel()
		}
		return dialer.Open(ctx, address)
	}
}

// Close releases the environment. It's safe to call it multiple times.
func (e *Environment) Close() error {
	e.closeOnce.Do(func() {
		var err error

		if e.Handles != nil {
			err = multierr.Append(err, e.Handles.Close())
		}

		if len(e.scratchNames) != 0 {
			if cleanupErr := e.Scratch.Cleanup(e.scratchNames); cleanupErr != nil {
				err = multierr.Append(err, xerrors.Errorf("Failed to delete scratch files: %w", cleanupErr))
			}
		}

		if closeErr := e.lister.Close(); closeErr != nil {
			err = multierr.Append(err, xerrors.Errorf("Failed to close container runtime client: %w", closeErr))
		}

		e.closeErr = err
	})
	return e.closeErr
}
