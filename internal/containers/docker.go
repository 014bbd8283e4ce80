package containers

import (
	"context"
	"strings"
	"sync"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"golang.org/x/xerrors"

	"github.com/KonishchevDmitry/storage-harness/internal/metrics"
)

type dockerLister struct {
	project string
	options []client.Opt

	lock   sync.Mutex
	client *client.Client
}

var _ Lister = &dockerLister{}

func NewDockerLister(project string) Lister {
	return newDockerLister(project, client.FromEnv, client.WithAPIVersionNegotiation())
}

func newDockerLister(project string, options ...client.Opt) *dockerLister {
	return &dockerLister{project: project, options: options}
}

func (l *dockerLister) List(ctx context.Context) (Set, error) {
	cli, err := l.getClient()
	if err != nil {
		return nil, err
	}

	metrics.OrchestratorQueriesMetric.WithLabelValues("docker").Inc()
	summaries, err := cli.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(
			filters.Arg("label", ProjectLabel+"="+l.project),
			filters.Arg("status", "running"),
		),
	})
	if err != nil {
		return nil, xerrors.Errorf("Failed to list containers of %q project: %w", l.project, err)
	}
	logging.L(ctx).Debugf("Docker: %q project has %d running containers.", l.project, len(summaries))

	list := make([]Container, 0, len(summaries))
	for _, summary := range summaries {
		list = append(list, dockerContainer(summary))
	}

	return newSet(list)
}

func dockerContainer(summary container.Summary) Container {
	var name string
	if len(summary.Names) != 0 {
		name = strings.TrimLeft(summary.Names[0], "/")
	}

	networks := make(map[string]string)
	if settings := summary.NetworkSettings; settings != nil {
		for network, endpoint := range settings.Networks {
			if endpoint != nil {
				networks[network] = endpoint.IPAddress
			}
		}
	}

	return Container{
		ID:       summary.ID,
		Name:     name,
		Networks: networks,
	}
}

func (l *dockerLister) getClient() (*client.Client, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.client == nil {
		var err error

		l.client, err = client.NewClientWithOpts(l.options...)
		if err != nil {
			return nil, xerrors.Errorf("Unable to create Docker client: %w", err)
		}
	}

	return l.client, nil
}

func (l *dockerLister) Close() error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.client != nil {
		if err := l.client.Close(); err != nil {
			return err
		}
		l.client = nil
	}

	return nil
}
