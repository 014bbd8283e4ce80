package handles

import (
	"context"
	"sync"
)

type HandleMock struct {
	address string

	lock   sync.Mutex
	closed bool
}

var _ Handle = &HandleMock{}

func (h *HandleMock) Address() string {
	return h.address
}

func (h *HandleMock) Closed() bool {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.closed
}

func (h *HandleMock) Close() error {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.closed = true
	return nil
}

// OpenerMock records every handle it opens. Addresses listed in failures fail with the specified error.
type OpenerMock struct {
	Failures map[string]error

	lock   sync.Mutex
	opened []*HandleMock
}

func (o *OpenerMock) Open(_ context.Context, address string) (Handle, error) {
	if err, ok := o.Failures[address]; ok {
		return nil, err
	}

	o.lock.Lock()
	defer o.lock.Unlock()

	handle := &HandleMock{address: address}
	o.opened = append(o.opened, handle)
	return handle, nil
}

func (o *OpenerMock) Opened() []*HandleMock {
	o.lock.Lock()
	defer o.lock.Unlock()
	return append([]*HandleMock{}, o.opened...)
}
