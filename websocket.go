package wsrouter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

var ErrNotUpgradable = errors.New("request is not a websocket upgrade")

// frameBuffer bounds how many decoded text messages may wait for the session loop.
const frameBuffer = 16

type (
	OpenHandler    func(req *Request, client *Client)
	CloseHandler   func(req *Request, client *Client)
	MessageHandler func(req *Request, client *Client, text string)
)

// WebSocketEvents configures a websocket route. Unset handlers get the defaults:
// open and close do nothing, a message is echoed back to its sender.
type WebSocketEvents struct {
	OnOpen    OpenHandler
	OnClose   CloseHandler
	OnMessage MessageHandler
}

type WebSocketRoute struct {
	mu        sync.RWMutex
	onOpen    OpenHandler
	onClose   CloseHandler
	onMessage MessageHandler
}

func defaultOnOpen(*Request, *Client) {}

func defaultOnClose(*Request, *Client) {}

func defaultOnMessage(_ *Request, client *Client, text string) {
	_ = client.Send(text)
}

func NewWebSocketRoute(events WebSocketEvents) *WebSocketRoute {
	route := &WebSocketRoute{}
	route.SetOnOpen(events.OnOpen)
	route.SetOnClose(events.OnClose)
	route.SetOnMessage(events.OnMessage)
	return route
}

func (w *WebSocketRoute) OnOpen() OpenHandler {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.onOpen
}

// SetOnOpen replaces the open handler, nil restores the default.
func (w *WebSocketRoute) SetOnOpen(h OpenHandler) *WebSocketRoute {
	if h == nil {
		h = defaultOnOpen
	}
	w.mu.Lock()
	w.onOpen = h
	w.mu.Unlock()
	return w
}

func (w *WebSocketRoute) OnClose() CloseHandler {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.onClose
}

// SetOnClose replaces the close handler, nil restores the default.
func (w *WebSocketRoute) SetOnClose(h CloseHandler) *WebSocketRoute {
	if h == nil {
		h = defaultOnClose
	}
	w.mu.Lock()
	w.onClose = h
	w.mu.Unlock()
	return w
}

func (w *WebSocketRoute) OnMessage() MessageHandler {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.onMessage
}

// SetOnMessage replaces the message handler, nil restores the echo default.
func (w *WebSocketRoute) SetOnMessage(h MessageHandler) *WebSocketRoute {
	if h == nil {
		h = defaultOnMessage
	}
	w.mu.Lock()
	w.onMessage = h
	w.mu.Unlock()
	return w
}

// Upgradable reports whether h carries the headers of a websocket handshake.
func Upgradable(h http.Header) bool {
	return headerHasToken(h, "Upgrade", "websocket") &&
		headerHasToken(h, "Connection", "upgrade") &&
		h.Get("Sec-WebSocket-Key") != "" &&
		h.Get("Sec-WebSocket-Version") == "13"
}

func headerHasToken(h http.Header, name, token string) bool {
	for _, value := range h.Values(name) {
		for _, part := range strings.Split(value, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}
	return false
}

// serveWebSocket upgrades the connection and runs the session until the peer leaves.
func (ctl *Controller) serveWebSocket(req *Request, res *Response, route *WebSocketRoute) {
	if req.req == nil || !Upgradable(req.Headers) {
		ctl.Logger.LogError(req, ErrNotUpgradable)
		writeErrorPage(req, res, http.StatusBadRequest)
		return
	}

	// after this point the connection is hijacked, or the upgrader already answered
	res.markSent()
	conn, _, _, err := ws.UpgradeHTTP(req.req, res.w)
	if err != nil {
		ctl.Logger.LogError(req, fmt.Errorf("upgrading websocket connection: %w", err))
		return
	}

	ctl.runSession(req, route, conn)
}

// runSession drives one connection: open, then every text message in arrival
// order, then close. Close and deregistration run on every exit path.
func (ctl *Controller) runSession(req *Request, route *WebSocketRoute, conn net.Conn) {
	ctx, cancel := context.WithCancel(req.Context)
	req.Context = ctx

	client := ctl.Clients.add(req, conn)
	ctl.Logger.LogMessage(req, fmt.Sprintf("websocket client %d connected", client.id))

	defer func() {
		cancel()
		ctl.Clients.remove(client.id)
		if err := client.close(0); err != nil && !isExpectedCloseError(err) {
			ctl.Logger.LogError(req, fmt.Errorf("closing websocket connection: %w", err))
		}
		ctl.Logger.LogMessage(req, fmt.Sprintf("websocket client %d disconnected", client.id))
	}()
	defer ctl.safely(req, func() {
		route.OnClose()(req, client)
	})

	if !ctl.safely(req, func() { route.OnOpen()(req, client) }) {
		return
	}

	frames := make(chan string, frameBuffer)
	go ctl.readFrames(ctx, req, client, frames)

	for text := range frames {
		if !ctl.safely(req, func() { route.OnMessage()(req, client, text) }) {
			return
		}
	}
}

// readFrames decodes client frames into frames and closes it when the connection ends.
// Control frames are answered here, binary frames are not supported and dropped.
func (ctl *Controller) readFrames(ctx context.Context, req *Request, client *Client, frames chan<- string) {
	defer close(frames)

	controlHandler := wsutil.ControlFrameHandler(controlWriter{client}, ws.StateServerSide)
	rd := &wsutil.Reader{
		Source:         client.conn,
		State:          ws.StateServerSide,
		CheckUTF8:      true,
		OnIntermediate: controlHandler,
	}

	for {
		hdr, err := rd.NextFrame()
		if err == nil && hdr.OpCode.IsControl() {
			err = controlHandler(hdr, rd)
			if err == nil {
				continue
			}
		}
		if err != nil {
			var closed wsutil.ClosedError
			if !errors.As(err, &closed) && !errors.Is(err, io.EOF) && !isExpectedCloseError(err) {
				ctl.Logger.LogError(req, fmt.Errorf("reading websocket frame: %w", err))
			}
			return
		}

		if hdr.OpCode != ws.OpText {
			ctl.Logger.LogMessage(req, fmt.Sprintf("dropping unsupported websocket frame %#x from client %d", hdr.OpCode, client.id))
			if err := rd.Discard(); err != nil {
				return
			}
			continue
		}

		payload, err := io.ReadAll(rd)
		if err != nil {
			ctl.Logger.LogError(req, fmt.Errorf("reading websocket payload: %w", err))
			return
		}

		select {
		case frames <- string(payload):
		case <-ctx.Done():
			return
		}
	}
}

// controlWriter lets pong and close replies share the client's write lock.
type controlWriter struct {
	client *Client
}

func (w controlWriter) Write(p []byte) (int, error) {
	w.client.writeMu.Lock()
	defer w.client.writeMu.Unlock()
	if w.client.closed {
		return 0, ErrClientClosed
	}
	return w.client.conn.Write(p)
}

func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, ErrClientClosed) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset by peer")
}
