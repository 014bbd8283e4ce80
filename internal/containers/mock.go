package containers

import (
	"context"

	"golang.org/x/xerrors"
)

type listerMock struct {
	containers Set
	err        error
}

func NewListerMock(containers Set) Lister {
	return &listerMock{containers: containers}
}

func NewFailingListerMock(err error) Lister {
	return &listerMock{err: err}
}

func (l *listerMock) List(ctx context.Context) (Set, error) {
	if l.err != nil {
		return nil, xerrors.Errorf("Failed to list containers: %w", l.err)
	}

	set := make(Set, len(l.containers))
	for name, container := range l.containers {
		set[name] = container
	}
	return set, nil
}

func (l *listerMock) Close() error {
	return nil
}
