package wsrouter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func routePaths(routes []*Route) []string {
	paths := make([]string, len(routes))
	for i, route := range routes {
		paths[i] = route.Path()
	}
	return paths
}

func TestRoutes_Sentinels(t *testing.T) {
	t.Parallel()

	routes := NewRoutes()
	assert.Equal(t, []string{NotFoundPath, UnsupportedPath}, routePaths(routes.All()))

	notFound := routes.NotFound()
	require.NotNil(t, notFound)
	_, ok := notFound.Handler(GET)
	assert.True(t, ok)

	unsupported := routes.Unsupported()
	require.NotNil(t, unsupported)
	_, ok = unsupported.Handler(GET)
	assert.True(t, ok)

	routes.Unregister(NotFoundPath, UnsupportedPath)
	assert.NotNil(t, routes.NotFound())
	assert.NotNil(t, routes.Unsupported())
}

func TestRoutes_Create(t *testing.T) {
	t.Parallel()

	routes := NewRoutes()
	hello := routes.Create("/hello")

	got, ok := routes.Lookup("/hello")
	require.True(t, ok)
	assert.Same(t, hello, got)
	assert.Equal(t, "/hello", got.Path())
	assert.False(t, got.RequiresAuth())
	assert.False(t, got.IsWebSocket())
}

func TestRoutes_DuplicatePathReplaces(t *testing.T) {
	t.Parallel()

	routes := NewRoutes()
	first := routes.Create("/a")
	routes.Create("/b")
	second := routes.Register(NewRoute("/a"))

	got, ok := routes.Lookup("/a")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.NotSame(t, first, got)

	// the replacement keeps the slot of the route it replaced
	assert.Equal(t, []string{NotFoundPath, UnsupportedPath, "/a", "/b"}, routePaths(routes.All()))
}

func TestRoutes_RegisterManyReturnsFullSnapshot(t *testing.T) {
	t.Parallel()

	routes := NewRoutes()
	routes.Create("/existing")

	all := routes.CreateMany("/x", "/y")
	assert.Equal(t, []string{NotFoundPath, UnsupportedPath, "/existing", "/x", "/y"}, routePaths(all))

	all = routes.RegisterMany(NewRoute("/z"), NewRoute("/x"))
	assert.Equal(t, []string{NotFoundPath, UnsupportedPath, "/existing", "/x", "/y", "/z"}, routePaths(all))
}

func TestRoutes_Unregister(t *testing.T) {
	t.Parallel()

	routes := NewRoutes()
	routes.CreateMany("/a", "/b", "/c")

	routes.Unregister("/a", "/c", "/does-not-exist")

	_, ok := routes.Lookup("/a")
	assert.False(t, ok)
	_, ok = routes.Lookup("/c")
	assert.False(t, ok)
	b, ok := routes.Lookup("/b")
	require.True(t, ok)
	assert.Equal(t, "/b", b.Path())
	assert.Equal(t, []string{NotFoundPath, UnsupportedPath, "/b"}, routePaths(routes.All()))

	// indexes are rebuilt, later registrations still resolve
	routes.Create("/d")
	d, ok := routes.Lookup("/d")
	require.True(t, ok)
	assert.Equal(t, "/d", d.Path())
}

func TestRoutes_Resolve(t *testing.T) {
	t.Parallel()

	routes := NewRoutes()
	hello := routes.Create("/hello")

	t.Run("exact_path", func(t *testing.T) {
		route, ok := routes.LookupURL("/hello?name=world")
		require.True(t, ok)
		assert.Same(t, hello, route)
	})

	t.Run("no_prefix_matching", func(t *testing.T) {
		_, ok := routes.LookupURL("/hello/world")
		assert.False(t, ok)
		_, ok = routes.LookupURL("/hell")
		assert.False(t, ok)
	})

	t.Run("unregistered_paths_resolve_to_404", func(t *testing.T) {
		for _, raw := range []string{"/missing", "/missing?x=1", "", "/HELLO"} {
			assert.Same(t, routes.NotFound(), routes.Resolve(raw), raw)
		}
	})
}

func TestRoutes_ReplaceSentinel(t *testing.T) {
	t.Parallel()

	routes := NewRoutes()
	custom := routes.Create(NotFoundPath).GET(func(req *Request, res *Response) {
		res.SetText("nothing here")
		_ = res.Send()
	})

	assert.Same(t, custom, routes.NotFound())
	assert.Same(t, custom, routes.Resolve("/missing"))
}

func TestRoutes_ReplacedSentinelKeepsDefaults(t *testing.T) {
	t.Parallel()

	routes := NewRoutes()
	custom := NewRoute(NotFoundPath).POST(func(req *Request, res *Response) {
		res.SetText("custom")
		_ = res.Send()
	})
	routes.Register(custom)
	require.Same(t, custom, routes.NotFound())

	for _, v := range routableVerbs {
		_, ok := custom.Handler(v)
		assert.True(t, ok, v.String())
	}

	// unbinding a verb on a registered sentinel brings the built-in page back
	custom.POST(nil)
	_, ok := custom.Handler(POST)
	assert.True(t, ok)

	unsupported := routes.Create(UnsupportedPath)
	_, ok = unsupported.Handler(GET)
	assert.True(t, ok)
}

func TestRoutes_URLAliases(t *testing.T) {
	t.Parallel()

	routes := NewRoutes()
	index := routes.Create("/index.html").URL("/", "/get")

	for _, path := range []string{"/index.html", "/", "/get"} {
		got, ok := routes.Lookup(path)
		require.True(t, ok, path)
		assert.Same(t, index, got, path)
	}
	assert.Equal(t, []string{"/index.html", "/", "/get"}, index.URLs())
	assert.Same(t, index, routes.Resolve("/get?x=1"))
	assert.Same(t, routes.NotFound(), routes.Resolve("/ge"))

	// aliases are one registry entry, not several
	assert.Equal(t, []string{NotFoundPath, UnsupportedPath, "/index.html"}, routePaths(routes.All()))

	// aliases added after registration are picked up
	index.URL("/トップ")
	got, ok := routes.Lookup("/トップ")
	require.True(t, ok)
	assert.Same(t, index, got)

	// a route's own path wins over another route's alias
	get := routes.Create("/get")
	got, ok = routes.Lookup("/get")
	require.True(t, ok)
	assert.Same(t, get, got)

	routes.Unregister("/index.html")
	for _, path := range []string{"/index.html", "/", "/トップ"} {
		_, ok := routes.Lookup(path)
		assert.False(t, ok, path)
	}
	_, ok = routes.Lookup("/get")
	assert.True(t, ok)
}

func TestRoute_Configuration(t *testing.T) {
	t.Parallel()

	noop := func(*Request, *Response) {}
	route := NewRoute("/r").GET(noop).PUT(noop).POST(noop).DELETE(noop).PATCH(noop)

	for _, v := range []Verb{GET, PUT, POST, DELETE, PATCH} {
		_, ok := route.Handler(v)
		assert.True(t, ok, v.String())
	}

	route.DELETE(nil)
	_, ok := route.Handler(DELETE)
	assert.False(t, ok)

	route.AUTH("s1", "s2")
	assert.True(t, route.RequiresAuth())
	assert.Equal(t, []string{"s1", "s2"}, route.Credentials())
	route.AUTH()
	assert.False(t, route.RequiresAuth())

	route.WebSocket(WebSocketEvents{})
	assert.True(t, route.IsWebSocket())
	require.NotNil(t, route.WebSocketRoute())
	assert.NotNil(t, route.WebSocketRoute().OnOpen())
	assert.NotNil(t, route.WebSocketRoute().OnClose())
	assert.NotNil(t, route.WebSocketRoute().OnMessage())
}
