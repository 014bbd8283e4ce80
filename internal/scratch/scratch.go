// Package scratch prepares fixed-size files used by the storage nodes as block device backing stores.
package scratch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/docker/go-units"
	"go.uber.org/multierr"
	"golang.org/x/xerrors"

	"github.com/KonishchevDmitry/storage-harness/internal/metrics"
)

const (
	DefaultDir  = "/tmp"
	DefaultSize = 1 << 30
)

// Replaced by tests
var (
	removeFile = RemoveIfExists
	createFile = create
)

// ParseSize parses human readable sizes with binary units: 1G is 1 GiB.
func ParseSize(size string) (int64, error) {
	bytes, err := units.RAMInBytes(size)
	if err != nil {
		return 0, xerrors.Errorf("Invalid scratch file size: %w", err)
	} else if bytes <= 0 {
		return 0, xerrors.Errorf("Invalid scratch file size: %q", size)
	}
	return bytes, nil
}

type Preparer struct {
	Dir  string
	Size int64
}

func New(dir string, size int64) *Preparer {
	return &Preparer{Dir: dir, Size: size}
}

func (p *Preparer) Path(name string) string {
	return filepath.Join(p.Dir, name+".img")
}

// Prepare recreates scratch files for all names. All files are deleted first and only then created, so
// the creation never sees a stale file. Deletion is best effort.
func (p *Preparer) Prepare(ctx context.Context, names []string) error {
	for _, name := range names {
		path := p.Path(name)
		if err := removeFile(path); err != nil {
			logging.L(ctx).Warnf("Failed to delete %q: %s.", path, err)
		}
	}

	for _, name := range names {
		path := p.Path(name)
		if err := createFile(path, p.Size); err != nil {
			return xerrors.Errorf("Unable to create %q scratch file: %w", path, err)
		}
		metrics.ScratchFilesMetric.Inc()
		logging.L(ctx).Debugf("Created %q (%s).", path, units.BytesSize(float64(p.Size)))
	}

	return nil
}

func (p *Preparer) Cleanup(names []string) error {
	var err error
	for _, name := range names {
		if removeErr := removeFile(p.Path(name)); removeErr != nil {
			err = multierr.Append(err, removeErr)
		}
	}
	return err
}

// RemoveIfExists deletes the file treating its absence as success. Any other error is returned.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func create(path string, size int64) (retErr error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if err := file.Close(); err != nil && retErr == nil {
			retErr = err
		}
	}()

	return file.Truncate(size)
}
