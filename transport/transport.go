// Package transport provides the byte-exchanging endpoints a frame
// engine talks through: connected UDP and TCP clients with a uniform
// Send/Receive/SendReceive surface. Endpoints move opaque byte slices;
// framing and parsing stay with the frame package.
package transport

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"time"
)

var ErrTransport = errors.New("transport: endpoint failure")

// Endpoint is a connected two-way byte channel. All blocking calls
// honor their context; Receive additionally enforces the endpoint's
// receive timeout.
type Endpoint interface {
	Send(ctx context.Context, payload []byte) (int, error)
	Receive(ctx context.Context) ([]byte, netip.AddrPort, error)
	SendReceive(ctx context.Context, payload []byte) ([]byte, netip.AddrPort, error)
	LocalAddr() net.Addr
	Close() error
}

// Options carries per-endpoint tuning.
type Options struct {
	// ReceiveTimeout bounds a single Receive when the context carries no
	// earlier deadline.
	ReceiveTimeout time.Duration
	// BufferSize is the largest datagram or read chunk accepted.
	BufferSize int
}

// Option mutates Options at dial time.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		ReceiveTimeout: 1 * time.Second,
		BufferSize:     1024,
	}
}

func buildOptions(opts []Option) Options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithReceiveTimeout bounds each Receive call.
func WithReceiveTimeout(d time.Duration) Option {
	return func(o *Options) { o.ReceiveTimeout = d }
}

// WithBufferSize sets the read buffer size in bytes.
func WithBufferSize(n int) Option {
	return func(o *Options) { o.BufferSize = n }
}

// readDeadline picks the earlier of the context deadline and the
// endpoint receive timeout.
func readDeadline(ctx context.Context, timeout time.Duration) time.Time {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		return d
	}
	return deadline
}

func writeDeadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Time{}
}

var (
	_ Endpoint = (*UDP)(nil)
	_ Endpoint = (*TCP)(nil)
)
