// Package transport abstracts the byte-level connection the traffic handler reads from and
// writes to, mirroring the teacher's internal/tcp.Client.
package transport

import (
	"net"
	"time"
)

// Client is a per-connection byte transport. Read blocks until data or an error is available;
// Pushback preserves a slice for the next Read, exactly as the teacher's client.Unread does
// when the decoder consumed less than it was handed.
type Client interface {
	Read() ([]byte, error)
	Pushback([]byte)
	Write([]byte) (int, error)
	Conn() net.Conn
	Remote() net.Addr
	Writable() bool
	Close() error
}

type client struct {
	conn    net.Conn
	buff    []byte
	pending []byte
	timeout time.Duration
}

// New wraps conn into a Client that reads into buff with the given idle read timeout.
func New(conn net.Conn, timeout time.Duration, buff []byte) Client {
	return &client{conn: conn, buff: buff, timeout: timeout}
}

func (c *client) Read() ([]byte, error) {
	if len(c.pending) > 0 {
		pending := c.pending
		c.pending = nil
		return pending, nil
	}

	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, err
		}
	}

	n, err := c.conn.Read(c.buff)
	return c.buff[:n], err
}

func (c *client) Pushback(b []byte) {
	c.pending = b
}

func (c *client) Write(b []byte) (int, error) {
	return c.conn.Write(b)
}

func (c *client) Conn() net.Conn {
	return c.conn
}

func (c *client) Remote() net.Addr {
	return c.conn.RemoteAddr()
}

// Writable reports whether the connection currently accepts more buffered writes without
// blocking. The standard library gives no portable non-blocking signal for this, so the plain
// client is always writable; back-pressure-aware transports (e.g. one fed by a bounded outbound
// queue) can report otherwise.
func (c *client) Writable() bool {
	return true
}

func (c *client) Close() error {
	return c.conn.Close()
}
