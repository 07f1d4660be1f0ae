package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/PizzaHomicide/reelcore/internal/log"
)

var (
	// ErrNotConnected is returned for commands sent before connecting or after the connection was lost.
	ErrNotConnected = errors.New("not connected to mpv")
	// ErrCommandFailed wraps the error string mpv replied with.
	ErrCommandFailed = errors.New("mpv command failed")
)

// message is any line mpv writes on the IPC socket: either an event or the reply to a request.
type message struct {
	Event     string          `json:"event,omitempty"`
	ID        int             `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID int             `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	FileError string          `json:"file_error,omitempty"`
}

func (m message) isReply() bool { return m.Event == "" }

type reply struct {
	data json.RawMessage
	err  error
}

// commander is the part of the IPC client the engine uses.
type commander interface {
	// Command sends a command without waiting for the reply.
	Command(args ...any) error
	// Request sends a command and waits for its reply.
	Request(ctx context.Context, args ...any) (json.RawMessage, error)
	Close() error
}

// ipcClient talks mpv's JSON IPC protocol.  Replies are matched to requests by request_id; everything else is handed
// to onEvent from the reader goroutine.
type ipcClient struct {
	socketPath string
	onEvent    func(message)
	onClose    func(error)

	writeMu sync.Mutex

	mu      sync.Mutex
	conn    net.Conn
	nextID  int
	pending map[int]chan reply
	closed  bool
}

var _ commander = (*ipcClient)(nil)

func newIPCClient(socketPath string, onEvent func(message), onClose func(error)) *ipcClient {
	return &ipcClient{
		socketPath: socketPath,
		onEvent:    onEvent,
		onClose:    onClose,
		pending:    make(map[int]chan reply),
	}
}

// Connect dials the socket once.
func (c *ipcClient) Connect(ctx context.Context) error {
	conn, err := dialSocket(ctx, c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to mpv at %s: %w", c.socketPath, err)
	}
	c.attach(conn)
	return nil
}

// attach starts serving an established connection.
func (c *ipcClient) attach(conn net.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.closed = false
	c.mu.Unlock()
	go c.readMessages(conn)
}

// WaitForConnection attempts to connect to mpv with retries while it creates its socket.
func (c *ipcClient) WaitForConnection(ctx context.Context, maxAttempts int, retryDelay time.Duration) error {
	log.Debug("Waiting for mpv to create socket", "socket_path", c.socketPath, "max_attempts", maxAttempts)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if runtime.GOOS != "windows" {
			if _, err := os.Stat(c.socketPath); os.IsNotExist(err) {
				log.Trace("mpv socket does not exist yet", "attempt", attempt, "path", c.socketPath)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(retryDelay):
					continue
				}
			}
		}

		err := c.Connect(ctx)
		if err == nil {
			log.Info("Connected to mpv", "attempt", attempt)
			return nil
		}
		log.Debug("Failed to connect to mpv", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return fmt.Errorf("failed to connect to mpv after %d attempts", maxAttempts)
}

func (c *ipcClient) Command(args ...any) error {
	_, err := c.send(args, nil)
	return err
}

func (c *ipcClient) Request(ctx context.Context, args ...any) (json.RawMessage, error) {
	ch := make(chan reply, 1)
	id, err := c.send(args, ch)
	if err != nil {
		return nil, err
	}

	select {
	case r := <-ch:
		return r.data, r.err
	case <-ctx.Done():
		c.forget(id)
		return nil, fmt.Errorf("waiting for reply to %v: %w", args[0], ctx.Err())
	}
}

// Close shuts the connection.  Requests still waiting fail with ErrNotConnected.
func (c *ipcClient) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.closed = true
	c.failPendingLocked()
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *ipcClient) send(args []any, wait chan reply) (int, error) {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return 0, ErrNotConnected
	}
	c.nextID++
	id := c.nextID
	if wait != nil {
		c.pending[id] = wait
	}
	c.mu.Unlock()

	data, err := json.Marshal(struct {
		Command   []any `json:"command"`
		RequestID int   `json:"request_id"`
	}{args, id})
	if err != nil {
		c.forget(id)
		return 0, fmt.Errorf("failed to marshal command: %w", err)
	}
	data = append(data, '\n')

	log.Trace("Sending mpv command", "command", string(data[:len(data)-1]))
	c.writeMu.Lock()
	_, err = conn.Write(data)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return 0, fmt.Errorf("failed to send command: %w", err)
	}
	return id, nil
}

func (c *ipcClient) forget(id int) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *ipcClient) readMessages(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		log.Trace("Raw mpv message", "data", string(line))

		var msg message
		if err := json.Unmarshal(line, &msg); err != nil {
			log.Error("Failed to unmarshal mpv message", "error", err)
			continue
		}
		if msg.isReply() {
			c.resolve(msg)
			continue
		}
		if c.onEvent != nil {
			c.onEvent(msg)
		}
	}

	err := scanner.Err()
	c.mu.Lock()
	expected := c.closed || c.conn != conn
	if c.conn == conn {
		c.conn = nil
		c.failPendingLocked()
	}
	c.mu.Unlock()

	log.Debug("mpv message reader stopped", "error", err, "expected", expected)
	if !expected && c.onClose != nil {
		if err == nil {
			err = errors.New("mpv closed the connection")
		}
		c.onClose(fmt.Errorf("%w: %w", ErrNotConnected, err))
	}
}

func (c *ipcClient) resolve(msg message) {
	c.mu.Lock()
	ch, ok := c.pending[msg.RequestID]
	delete(c.pending, msg.RequestID)
	c.mu.Unlock()

	var err error
	if msg.Error != "" && msg.Error != "success" {
		err = fmt.Errorf("%w: %s", ErrCommandFailed, msg.Error)
		if !ok {
			log.Warn("mpv rejected a command", "request_id", msg.RequestID, "error", msg.Error)
		}
	}
	if ok {
		ch <- reply{data: msg.Data, err: err}
	}
}

func (c *ipcClient) failPendingLocked() {
	for id, ch := range c.pending {
		ch <- reply{err: ErrNotConnected}
		delete(c.pending, id)
	}
}
