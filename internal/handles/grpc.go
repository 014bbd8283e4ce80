package handles

import (
	"context"
	"net"
	"strconv"

	"golang.org/x/xerrors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
)

// DefaultPort is the port of the storage node management API.
const DefaultPort = 10124

// Conn is a gRPC management API handle. Generated service clients are created on top of ClientConn().
type Conn struct {
	address string
	target  string
	conn    *grpc.ClientConn
}

var _ Handle = &Conn{}

type Dialer struct {
	Port int

	// Block until the connection is established.
	WaitReady bool
}

func (d Dialer) Open(ctx context.Context, address string) (Handle, error) {
	return d.Dial(ctx, address)
}

func (d Dialer) Dial(ctx context.Context, address string) (*Conn, error) {
	port := d.Port
	if port == 0 {
		port = DefaultPort
	}
	target := net.JoinHostPort(address, strconv.Itoa(port))

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}

	handle := &Conn{
		address: address,
		target:  target,
		conn:    conn,
	}

	if d.WaitReady {
		if err := handle.waitReady(ctx); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	return handle, nil
}

func (c *Conn) waitReady(ctx context.Context) error {
	c.conn.Connect()

	for {
		state := c.conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return xerrors.Errorf("Connection to %s has been shut down", c.target)
		}

		if !c.conn.WaitForStateChange(ctx, state) {
			return xerrors.Errorf("Unable to connect to %s (%s): %w", c.target, state, ctx.Err())
		}
	}
}

func (c *Conn) Address() string {
	return c.address
}

func (c *Conn) Target() string {
	return c.target
}

func (c *Conn) ClientConn() *grpc.ClientConn {
	return c.conn
}

func (c *Conn) Close() error {
	return c.conn.Close()
}
