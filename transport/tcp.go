package transport

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"github.com/danmuck/wirespec/internal/logging"
)

// TCP is a connected stream endpoint. Receive returns whatever a
// single read delivers, up to the buffer size; stream reassembly
// belongs to the caller.
type TCP struct {
	conn   *net.TCPConn
	remote netip.AddrPort
	opts   Options
}

// DialTCP connects a TCP endpoint to addr ("host:port").
func DialTCP(ctx context.Context, addr string, opts ...Option) (*TCP, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial tcp %s: %v", ErrTransport, addr, err)
	}
	tc := conn.(*net.TCPConn)
	remote := tc.RemoteAddr().(*net.TCPAddr).AddrPort()
	logging.Debugf("transport: tcp connected %s -> %s", tc.LocalAddr(), remote)
	return &TCP{conn: tc, remote: remote, opts: buildOptions(opts)}, nil
}

// Send writes the whole payload and returns the byte count.
func (t *TCP) Send(ctx context.Context, payload []byte) (int, error) {
	if err := t.conn.SetWriteDeadline(writeDeadline(ctx)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	n, err := t.conn.Write(payload)
	if err != nil {
		return n, fmt.Errorf("%w: send tcp: %v", ErrTransport, err)
	}
	logging.Debugf("transport: tcp sent %d bytes to %s", n, t.remote)
	return n, nil
}

// Receive blocks for the next read, bounded by the receive timeout and
// the context deadline.
func (t *TCP) Receive(ctx context.Context) ([]byte, netip.AddrPort, error) {
	if err := t.conn.SetReadDeadline(readDeadline(ctx, t.opts.ReceiveTimeout)); err != nil {
		return nil, netip.AddrPort{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	buf := make([]byte, t.opts.BufferSize)
	n, err := t.conn.Read(buf)
	if err != nil {
		return nil, netip.AddrPort{}, fmt.Errorf("%w: receive tcp: %v", ErrTransport, err)
	}
	logging.Debugf("transport: tcp received %d bytes from %s", n, t.remote)
	return buf[:n], t.remote, nil
}

// SendReceive sends the payload and waits for the reply.
func (t *TCP) SendReceive(ctx context.Context, payload []byte) ([]byte, netip.AddrPort, error) {
	if _, err := t.Send(ctx, payload); err != nil {
		return nil, netip.AddrPort{}, err
	}
	return t.Receive(ctx)
}

func (t *TCP) LocalAddr() net.Addr { return t.conn.LocalAddr() }

// Remote returns the connected peer address.
func (t *TCP) Remote() netip.AddrPort { return t.remote }

func (t *TCP) Close() error { return t.conn.Close() }
