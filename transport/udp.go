package transport

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"github.com/danmuck/wirespec/internal/logging"
)

// UDP is a connected datagram endpoint. Receive returns one datagram
// per call.
type UDP struct {
	conn   *net.UDPConn
	remote netip.AddrPort
	opts   Options
}

// DialUDP connects a UDP endpoint to addr ("host:port").
func DialUDP(ctx context.Context, addr string, opts ...Option) (*UDP, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial udp %s: %v", ErrTransport, addr, err)
	}
	uc := conn.(*net.UDPConn)
	remote := uc.RemoteAddr().(*net.UDPAddr).AddrPort()
	logging.Debugf("transport: udp connected %s -> %s", uc.LocalAddr(), remote)
	return &UDP{conn: uc, remote: remote, opts: buildOptions(opts)}, nil
}

// Send writes one datagram and returns the byte count.
func (u *UDP) Send(ctx context.Context, payload []byte) (int, error) {
	if err := u.conn.SetWriteDeadline(writeDeadline(ctx)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	n, err := u.conn.Write(payload)
	if err != nil {
		return n, fmt.Errorf("%w: send udp: %v", ErrTransport, err)
	}
	logging.Debugf("transport: udp sent %d bytes to %s", n, u.remote)
	return n, nil
}

// Receive blocks for one datagram, bounded by the receive timeout and
// the context deadline.
func (u *UDP) Receive(ctx context.Context) ([]byte, netip.AddrPort, error) {
	if err := u.conn.SetReadDeadline(readDeadline(ctx, u.opts.ReceiveTimeout)); err != nil {
		return nil, netip.AddrPort{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	buf := make([]byte, u.opts.BufferSize)
	n, err := u.conn.Read(buf)
	if err != nil {
		return nil, netip.AddrPort{}, fmt.Errorf("%w: receive udp: %v", ErrTransport, err)
	}
	logging.Debugf("transport: udp received %d bytes from %s", n, u.remote)
	return buf[:n], u.remote, nil
}

// SendReceive sends one datagram and waits for the reply.
func (u *UDP) SendReceive(ctx context.Context, payload []byte) ([]byte, netip.AddrPort, error) {
	if _, err := u.Send(ctx, payload); err != nil {
		return nil, netip.AddrPort{}, err
	}
	return u.Receive(ctx)
}

func (u *UDP) LocalAddr() net.Addr { return u.conn.LocalAddr() }

// Remote returns the connected peer address.
func (u *UDP) Remote() netip.AddrPort { return u.remote }

func (u *UDP) Close() error { return u.conn.Close() }
