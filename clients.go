package wsrouter

import (
	"errors"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

var ErrClientClosed = errors.New("websocket client closed")

const DefaultWriteTimeout = 10 * time.Second

// Client is one upgraded connection. Its id is assigned by the registry and never reused.
type Client struct {
	id       uint64
	registry *ClientRegistry
	req      *Request

	writeMu sync.Mutex
	conn    net.Conn
	closed  bool

	mu         sync.RWMutex
	tags       []string
	attributes map[string]any
}

func (c *Client) ID() uint64 {
	return c.id
}

// Request is the request that opened the connection.
func (c *Client) Request() *Request {
	return c.req
}

func (c *Client) Registry() *ClientRegistry {
	return c.registry
}

func (c *Client) Tags() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.tags...)
}

// SetTags replaces the tag set. Duplicates are dropped, first occurrence wins.
func (c *Client) SetTags(tags ...string) {
	set := make([]string, 0, len(tags))
	for _, tag := range tags {
		if !slices.Contains(set, tag) {
			set = append(set, tag)
		}
	}
	c.mu.Lock()
	c.tags = set
	c.mu.Unlock()
}

// HasTags reports whether the client carries every tag given.
func (c *Client) HasTags(tags ...string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, tag := range tags {
		if !slices.Contains(c.tags, tag) {
			return false
		}
	}
	return true
}

func (c *Client) Attribute(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.attributes[key]
	return v, ok
}

func (c *Client) SetAttribute(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attributes == nil {
		c.attributes = make(map[string]any)
	}
	c.attributes[key] = value
}

func (c *Client) DeleteAttribute(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.attributes, key)
}

// Send writes a text message to targets, or to c itself when no target is given.
// Every target is attempted, failures are joined.
func (c *Client) Send(message string, targets ...*Client) error {
	if len(targets) == 0 {
		return c.write(message)
	}
	var errs []error
	for _, target := range targets {
		if err := target.write(message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendAll writes a text message to every registered client, skipping c when excludeSelf is set.
func (c *Client) SendAll(message string, excludeSelf bool) error {
	clients := c.registry.All()
	targets := clients[:0]
	for _, client := range clients {
		if excludeSelf && client.id == c.id {
			continue
		}
		targets = append(targets, client)
	}
	if len(targets) == 0 {
		return nil
	}
	return c.Send(message, targets...)
}

func (c *Client) write(message string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed || c.conn == nil {
		return ErrClientClosed
	}
	if timeout := c.registry.WriteTimeout; timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return wsutil.WriteServerMessage(c.conn, ws.OpText, []byte(message))
}

// close sends a close frame with code, unless the peer is already gone, and drops the connection.
func (c *Client) close(code ws.StatusCode) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed || c.conn == nil {
		return nil
	}
	c.closed = true
	if code != 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = ws.WriteFrame(c.conn, ws.NewCloseFrame(ws.NewCloseFrameBody(code, "")))
	}
	return c.conn.Close()
}

// ClientRegistry tracks every live websocket client by id. It starts empty and
// is only cleared by Close, normally at shutdown. Insert, remove and iteration
// are serialised; the per-client fields are guarded by each client.
type ClientRegistry struct {
	// WriteTimeout bounds every write to a client. Zero disables it.
	WriteTimeout time.Duration

	mu      sync.RWMutex
	lastID  uint64
	clients map[uint64]*Client
}

func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		WriteTimeout: DefaultWriteTimeout,
		clients:      make(map[uint64]*Client),
	}
}

// add registers a new client for conn and assigns it the next id.
func (r *ClientRegistry) add(req *Request, conn net.Conn) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastID++
	client := &Client{
		id:       r.lastID,
		registry: r,
		req:      req,
		conn:     conn,
	}
	r.clients[client.id] = client
	return client
}

func (r *ClientRegistry) remove(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; !ok {
		return false
	}
	delete(r.clients, id)
	return true
}

func (r *ClientRegistry) Get(id uint64) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[id]
	return client, ok
}

// All returns a snapshot of the registered clients ordered by id.
func (r *ClientRegistry) All() []*Client {
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	r.mu.RUnlock()

	slices.SortFunc(clients, func(a, b *Client) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	return clients
}

// ByTags returns the clients carrying all of tags. No tags means every client.
func (r *ClientRegistry) ByTags(tags ...string) []*Client {
	clients := r.All()
	if len(tags) == 0 {
		return clients
	}
	matched := clients[:0]
	for _, client := range clients {
		if client.HasTags(tags...) {
			matched = append(matched, client)
		}
	}
	return matched
}

func (r *ClientRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close says goodbye to every client and empties the registry.
func (r *ClientRegistry) Close() error {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	r.clients = make(map[uint64]*Client)
	r.mu.Unlock()

	var errs []error
	for _, client := range clients {
		if err := client.close(ws.StatusGoingAway); err != nil && !isExpectedCloseError(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
