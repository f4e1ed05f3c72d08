// Package dummy provides mock transport.Client implementations for tests, mirroring the
// teacher's transport/dummy package.
package dummy

import (
	"io"
	"net"

	"github.com/indigo-web/traffic/transport"
)

var _ transport.Client = new(Client)

// Client replays a fixed sequence of reads and records every write. Suited for feeding a
// traffic.Handler a scripted byte stream in tests.
type Client struct {
	reads    [][]byte
	pointer  int
	pending  []byte
	written  []byte
	closed   bool
	writable bool
}

// NewClient returns a Client that yields reads in order, then io.EOF.
func NewClient(reads ...[]byte) *Client {
	return &Client{reads: reads, writable: true}
}

func (c *Client) Read() ([]byte, error) {
	if len(c.pending) > 0 {
		data := c.pending
		c.pending = nil
		return data, nil
	}

	if c.closed || c.pointer >= len(c.reads) {
		return nil, io.EOF
	}

	data := c.reads[c.pointer]
	c.pointer++

	return data, nil
}

func (c *Client) Pushback(b []byte) {
	c.pending = b
}

func (c *Client) Write(b []byte) (int, error) {
	c.written = append(c.written, b...)
	return len(b), nil
}

// Written returns everything written so far.
func (c *Client) Written() []byte {
	return c.written
}

func (c *Client) Conn() net.Conn {
	return nil
}

func (c *Client) Remote() net.Addr {
	return nil
}

func (c *Client) Writable() bool {
	return c.writable
}

// SetWritable controls what Writable reports, to exercise back-pressure paths.
func (c *Client) SetWritable(w bool) {
	c.writable = w
}

func (c *Client) Close() error {
	c.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	return c.closed
}

// Open is the negation of Closed, for assertions that read more naturally the other way.
func (c *Client) Open() bool {
	return !c.closed
}
