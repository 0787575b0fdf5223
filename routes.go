package wsrouter

import "sync"

// Paths of the built-in routes. They always exist and cannot be unregistered.
// A route registered at one of these paths replaces the built-in one, and
// every verb it leaves unset keeps the built-in handler.
const (
	NotFoundPath    = "404"
	UnsupportedPath = "502"
)

var sentinelPages = map[string]Handler{
	NotFoundPath:    notFoundPage,
	UnsupportedPath: unsupportedPage,
}

// Routes is the ordered route registry. Paths are matched exactly.
// Registering a path that already exists replaces the old route in place.
type Routes struct {
	mu     sync.RWMutex
	order  []*Route
	slots  map[string]int // primary path -> index in order
	byPath map[string]int // every path and alias -> index in order
}

func NewRoutes() *Routes {
	routes := &Routes{
		slots:  make(map[string]int),
		byPath: make(map[string]int),
	}
	routes.Register(NewRoute(NotFoundPath))
	routes.Register(NewRoute(UnsupportedPath))
	return routes
}

// Create registers a new, empty route at path.
func (rs *Routes) Create(path string) *Route {
	return rs.Register(NewRoute(path))
}

func (rs *Routes) Register(route *Route) *Route {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.insert(route)
	rs.reindex()
	return route
}

func (rs *Routes) insert(route *Route) {
	if page, ok := sentinelPages[route.path]; ok {
		for _, v := range routableVerbs {
			if _, bound := route.handlers[v]; !bound {
				route.handlers[v] = page
			}
		}
	}

	route.routes = rs
	if idx, ok := rs.slots[route.path]; ok {
		if old := rs.order[idx]; old != route {
			old.routes = nil
		}
		rs.order[idx] = route
		return
	}
	rs.slots[route.path] = len(rs.order)
	rs.order = append(rs.order, route)
}

// reindex rebuilds the lookup tables. A route's own path wins over another
// route's alias, among aliases the later route wins.
func (rs *Routes) reindex() {
	rs.slots = make(map[string]int, len(rs.order))
	rs.byPath = make(map[string]int, len(rs.order))
	for idx, route := range rs.order {
		for _, alias := range route.aliases {
			rs.byPath[alias] = idx
		}
	}
	for idx, route := range rs.order {
		rs.slots[route.path] = idx
		rs.byPath[route.path] = idx
	}
}

// CreateMany registers an empty route per path and returns every registered
// route, not only the ones created by this call.
func (rs *Routes) CreateMany(paths ...string) []*Route {
	routes := make([]*Route, len(paths))
	for i, path := range paths {
		routes[i] = NewRoute(path)
	}
	return rs.RegisterMany(routes...)
}

// RegisterMany returns every registered route, not only the ones passed in.
func (rs *Routes) RegisterMany(routes ...*Route) []*Route {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for _, route := range routes {
		rs.insert(route)
	}
	rs.reindex()
	return rs.snapshot()
}

// Unregister removes the routes whose primary path is in paths, aliases included.
// Unknown paths and the built-in routes are ignored.
func (rs *Routes) Unregister(paths ...string) {
	remove := make(map[string]bool, len(paths))
	for _, path := range paths {
		if path == NotFoundPath || path == UnsupportedPath {
			continue
		}
		remove[path] = true
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	kept := rs.order[:0]
	for _, route := range rs.order {
		if remove[route.path] {
			route.routes = nil
			continue
		}
		kept = append(kept, route)
	}
	for i := len(kept); i < len(rs.order); i++ {
		rs.order[i] = nil
	}
	rs.order = kept
	rs.reindex()
}

func (rs *Routes) All() []*Route {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.snapshot()
}

func (rs *Routes) snapshot() []*Route {
	return append([]*Route(nil), rs.order...)
}

// Lookup matches path against every registered path and alias.
func (rs *Routes) Lookup(path string) (*Route, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	idx, ok := rs.byPath[path]
	if !ok {
		return nil, false
	}
	return rs.order[idx], true
}

// LookupURL matches only the path component of raw.
func (rs *Routes) LookupURL(raw string) (*Route, bool) {
	return rs.Lookup(ParseURL(raw).Path())
}

// Resolve is LookupURL falling back to the "404" route.
func (rs *Routes) Resolve(raw string) *Route {
	if route, ok := rs.LookupURL(raw); ok {
		return route
	}
	return rs.NotFound()
}

func (rs *Routes) NotFound() *Route {
	route, _ := rs.Lookup(NotFoundPath)
	return route
}

func (rs *Routes) Unsupported() *Route {
	route, _ := rs.Lookup(UnsupportedPath)
	return route
}
