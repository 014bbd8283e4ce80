package containers

import (
	"context"

	"github.com/samber/mo"
	"golang.org/x/xerrors"

	"github.com/KonishchevDmitry/storage-harness/internal/util"
)

// ProjectLabel is set by compose on every container of a project.
const ProjectLabel = "com.docker.compose.project"

type Container struct {
	ID   string
	Name string

	// Network name -> assigned IP address
	Networks map[string]string
}

func (c Container) Address(network string) mo.Option[string] {
	if address, ok := c.Networks[network]; ok && address != "" {
		return mo.Some(address)
	}
	return mo.None[string]()
}

type Set map[string]Container

func (s Set) Names() []string {
	return util.SortedKeys(s)
}

// Lister returns running containers of a compose project as they are at the moment of the call. Nothing
// is cached between calls: a restarted container may get new addresses.
type Lister interface {
	List(ctx context.Context) (Set, error)
	Close() error
}

func newSet(list []Container) (Set, error) {
	set := make(Set, len(list))

	for _, container := range list {
		if other, ok := set[container.Name]; ok {
			return nil, xerrors.Errorf("%s and %s containers have the same name: %q", other.ID, container.ID, container.Name)
		}
		set[container.Name] = container
	}

	return set, nil
}
