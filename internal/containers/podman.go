package containers

import (
	"context"
	"sync"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/containers/podman/v5/pkg/bindings"
	"github.com/containers/podman/v5/pkg/bindings/containers"
	"github.com/samber/mo"
	"golang.org/x/xerrors"

	"github.com/KonishchevDmitry/storage-harness/internal/metrics"
)

const DefaultPodmanSocket = "unix:///run/podman/podman.sock"

type podmanLister struct {
	project string
	socket  string

	lock          sync.Mutex
	clientContext mo.Option[context.Context]
}

var _ Lister = &podmanLister{}

func NewPodmanLister(project string, socket string) Lister {
	return &podmanLister{project: project, socket: socket}
}

func (l *podmanLister) List(ctx context.Context) (Set, error) {
	clientContext, err := l.getClientContext()
	if err != nil {
		return nil, err
	}
	requestContext := withClient(ctx, clientContext)

	metrics.OrchestratorQueriesMetric.WithLabelValues("podman").Inc()
	infos, err := containers.List(requestContext, new(containers.ListOptions).WithFilters(map[string][]string{
		"label":  {ProjectLabel + "=" + l.project},
		"status": {"running"},
	}))
	if err != nil {
		return nil, xerrors.Errorf("Failed to list containers of %q project: %w", l.project, err)
	}
	logging.L(ctx).Debugf("Podman: %q project has %d running containers.", l.project, len(infos))

	// The list reports only names of the attached networks, so addresses are taken from inspect
	list := make([]Container, 0, len(infos))
	for _, info := range infos {
		container, err := l.inspect(requestContext, info.ID)
		if err != nil {
			return nil, xerrors.Errorf("Failed to inspect %s container: %w", info.ID, err)
		}
		list = append(list, container)
	}

	return newSet(list)
}

func (l *podmanLister) inspect(ctx context.Context, id string) (Container, error) {
	info, err := containers.Inspect(ctx, id, nil)
	if err != nil {
		return Container{}, err
	}

	networks := make(map[string]string)
	if settings := info.NetworkSettings; settings != nil {
		for name, network := range settings.Networks {
			if network != nil {
				networks[name] = network.IPAddress
			}
		}
	}

	return Container{
		ID:       info.ID,
		Name:     info.Name,
		Networks: networks,
	}, nil
}

func (l *podmanLister) getClientContext() (context.Context, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	clientContext, ok := l.clientContext.Get()
	if ok {
		return clientContext, nil
	}

	clientContext, err := bindings.NewConnection(context.Background(), l.socket)
	if err != nil {
		return nil, xerrors.Errorf("Unable to connect to Podman at %s: %w", l.socket, err)
	}
	l.clientContext = mo.Some(clientContext)

	return clientContext, nil
}

func (l *podmanLister) Close() error {
	return nil
}

// Podman bindings take the connection from the context values. podmanContext keeps cancellation and
// deadline of the request context and falls back to the connection context for values.
type podmanContext struct {
	context.Context
	client context.Context
}

func withClient(ctx context.Context, client context.Context) context.Context {
	return podmanContext{Context: ctx, client: client}
}

func (c podmanContext) Value(key any) any {
	if value := c.Context.Value(key); value != nil {
		return value
	}
	return c.client.Value(key)
}
