package wsrouter

import (
	"io/fs"
	"slices"
)

// Handler answers one request. It owns res and must call res.Send exactly once.
type Handler func(req *Request, res *Response)

// Route is one addressable path. Configure it with the chained setters
// before the listener starts, the registry treats routes as read-mostly.
type Route struct {
	path        string
	aliases     []string
	routes      *Routes
	handlers    map[Verb]Handler
	credentials []string
	websocket   *WebSocketRoute

	fsys     fs.FS
	fileName string
}

func NewRoute(path string) *Route {
	return &Route{
		path:     path,
		handlers: make(map[Verb]Handler),
	}
}

// Path is the primary path, the one the route is registered and unregistered under.
func (r *Route) Path() string {
	return r.path
}

// URL makes the route answer at each of paths as well as its own path.
// Every alias is still matched exactly.
func (r *Route) URL(paths ...string) *Route {
	if rs := r.routes; rs != nil {
		rs.mu.Lock()
		defer rs.mu.Unlock()
		r.addAliases(paths)
		rs.reindex()
		return r
	}
	r.addAliases(paths)
	return r
}

func (r *Route) addAliases(paths []string) {
	for _, path := range paths {
		if path != r.path && !slices.Contains(r.aliases, path) {
			r.aliases = append(r.aliases, path)
		}
	}
}

// URLs returns the primary path followed by the aliases.
func (r *Route) URLs() []string {
	return append([]string{r.path}, r.aliases...)
}

func (r *Route) GET(h Handler) *Route {
	return r.Handle(GET, h)
}

func (r *Route) PUT(h Handler) *Route {
	return r.Handle(PUT, h)
}

func (r *Route) POST(h Handler) *Route {
	return r.Handle(POST, h)
}

func (r *Route) DELETE(h Handler) *Route {
	return r.Handle(DELETE, h)
}

func (r *Route) PATCH(h Handler) *Route {
	return r.Handle(PATCH, h)
}

// Handle binds h to v. Verbs other than GET, PUT, POST, DELETE and PATCH are never dispatched.
// A nil h unbinds v, or restores the built-in page on a registered "404" or "502" route.
func (r *Route) Handle(v Verb, h Handler) *Route {
	if h == nil {
		if page, ok := sentinelPages[r.path]; ok && r.routes != nil && v.Routable() {
			r.handlers[v] = page
			return r
		}
		delete(r.handlers, v)
		return r
	}
	r.handlers[v] = h
	return r
}

// Handler returns the handler bound to v. A GET on a route backed by a file
// falls back to serving that file.
func (r *Route) Handler(v Verb) (Handler, bool) {
	if h, ok := r.handlers[v]; ok {
		return h, true
	}
	if v == GET && r.fsys != nil {
		return fileHandler(r.fsys, r.fileName), true
	}
	return nil, false
}

// AUTH puts the route behind the Digest gate. Each secret is an A1 value,
// see DigestA1. Calling it without secrets removes the gate.
func (r *Route) AUTH(secrets ...string) *Route {
	if len(secrets) == 0 {
		r.credentials = nil
		return r
	}
	r.credentials = append([]string(nil), secrets...)
	return r
}

func (r *Route) Credentials() []string {
	return append([]string(nil), r.credentials...)
}

func (r *Route) RequiresAuth() bool {
	return len(r.credentials) > 0
}

// WebSocket turns GET on this route into a websocket upgrade driven by events.
func (r *Route) WebSocket(events WebSocketEvents) *Route {
	r.websocket = NewWebSocketRoute(events)
	return r
}

// WebSocketRoute returns the websocket handlers, or nil for a plain route.
func (r *Route) WebSocketRoute() *WebSocketRoute {
	return r.websocket
}

func (r *Route) IsWebSocket() bool {
	return r.websocket != nil
}

// File makes name inside fsys the default GET response of the route.
func (r *Route) File(fsys fs.FS, name string) *Route {
	r.fsys = fsys
	r.fileName = name
	return r
}
