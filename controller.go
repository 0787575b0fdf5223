package wsrouter

import (
	"fmt"
	"net/http"
)

// Controller dispatches a resolved request to exactly one handler.
type Controller struct {
	Routes  *Routes
	Clients *ClientRegistry
	Logger  Logger
}

func NewController(routes *Routes, clients *ClientRegistry, logger Logger) *Controller {
	if logger == nil {
		logger = DefaultLogger
	}
	return &Controller{
		Routes:  routes,
		Clients: clients,
		Logger:  logger,
	}
}

// Control runs the Digest gate when route asks for it and then the handler
// bound to the request verb. A GET on a websocket route becomes an upgrade.
// Unknown verbs and verbs without a handler are answered by the "502" route.
func (ctl *Controller) Control(req *Request, res *Response, route *Route) {
	ctl.Logger.LogRequest(req, route)

	if route.RequiresAuth() && !Authenticate(req, route) {
		if err := Challenge(res, route); err != nil {
			ctl.Logger.LogError(req, fmt.Errorf("sending digest challenge: %w", err))
			if !res.Sent() {
				writeErrorPage(req, res, http.StatusUnauthorized)
			}
		}
		return
	}

	if req.Verb == GET && route.IsWebSocket() {
		ctl.serveWebSocket(req, res, route.WebSocketRoute())
		return
	}

	handler, ok := ctl.handlerFor(req.Verb, route)
	if !ok {
		handler = ctl.unsupported()
	}
	handler(req, res)

	if !res.Sent() {
		ctl.Logger.LogMessage(req, fmt.Sprintf("handler for %s %s returned without sending a response", req.Method, route.Path()))
	}
}

func (ctl *Controller) handlerFor(v Verb, route *Route) (Handler, bool) {
	if !v.Routable() {
		return nil, false
	}
	return route.Handler(v)
}

func (ctl *Controller) unsupported() Handler {
	if route := ctl.Routes.Unsupported(); route != nil {
		if h, ok := route.Handler(GET); ok {
			return h
		}
	}
	return unsupportedPage
}

// safely runs fn, turning a panic into a logged error. It reports whether fn returned normally.
func (ctl *Controller) safely(req *Request, fn func()) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			ctl.Logger.LogPanic(req, p)
			ok = false
		}
	}()
	fn()
	return true
}

// recoverRequest answers with a 500 page when a handler panicked before sending anything.
func (ctl *Controller) recoverRequest(req *Request, res *Response) {
	p := recover()
	if p == nil {
		return
	}
	ctl.Logger.LogPanic(req, p)
	if !res.Sent() {
		writeErrorPage(req, res, http.StatusInternalServerError)
	}
}
