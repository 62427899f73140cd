package feed

import (
	"bufio"
	"net"
	"sync"

	"exstats/internal/model"
	"exstats/pkg/exception"

	"github.com/yanun0323/errors"
)

// Client dials a feed Listener and writes damage events as JSON lines.
type Client struct {
	addr net.UnixAddr

	mu   sync.Mutex
	conn *net.UnixConn
	w    *bufio.Writer
}

// NewClient creates a client for the provided socket path.
func NewClient(path string) (*Client, error) {
	if path == "" {
		return nil, exception.ErrFeedEmptyPath
	}
	return &Client{addr: net.UnixAddr{Name: path, Net: unixNetwork}}, nil
}

// Path returns the configured socket path.
func (c *Client) Path() string {
	if c == nil {
		return ""
	}
	return c.addr.Name
}

// Dial opens the connection. Calling Dial on a connected client is a no-op.
func (c *Client) Dial() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}
	conn, err := net.DialUnix(unixNetwork, nil, &c.addr)
	if err != nil {
		return errors.Wrap(err, "dial feed").With("path", c.addr.Name)
	}
	c.conn = conn
	c.w = bufio.NewWriter(conn)
	return nil
}

// Send encodes ev and buffers it; call Flush to push buffered lines.
func (c *Client) Send(ev model.DamageEvent) error {
	line, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	return c.WriteLine(line)
}

// WriteLine buffers one already-encoded record.
func (c *Client) WriteLine(line []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return exception.ErrFeedClosed
	}
	if _, err := c.w.Write(line); err != nil {
		return err
	}
	return c.w.WriteByte('\n')
}

// Flush writes buffered lines to the socket.
func (c *Client) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return exception.ErrFeedClosed
	}
	return c.w.Flush()
}

// Close flushes and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	flushErr := c.w.Flush()
	closeErr := c.conn.Close()
	c.conn, c.w = nil, nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
