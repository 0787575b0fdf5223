package wsrouter

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// Server is the listener boundary: it decodes each request, resolves its route
// and hands both to the Controller. Configure routes before calling Start.
type Server struct {
	Logger       Logger
	SecureConfig *tls.Config
	Routes       *Routes
	Clients      *ClientRegistry

	mu         sync.Mutex
	httpServer *http.Server
}

func New() *Server {
	return &Server{
		Logger:  DefaultLogger,
		Routes:  NewRoutes(),
		Clients: NewClientRegistry(),
	}
}

// Route registers an empty route at path, replacing any route already there.
func (s *Server) Route(path string) *Route {
	return s.Routes.Create(path)
}

func (s *Server) controller() *Controller {
	return NewController(s.Routes, s.Clients, s.Logger)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := newRequest(r)
	w.Header().Set(RequestIDHeader, req.ID)
	res := newResponse(w, req)

	ctl := s.controller()
	defer ctl.recoverRequest(req, res)

	ctl.Control(req, res, s.Routes.Resolve(req.URL.String()))
}

// newRequest percent-decodes the target exactly once. Nothing downstream decodes again.
func newRequest(r *http.Request) *Request {
	target := r.URL.RequestURI()
	decoded, err := url.PathUnescape(target)
	if err != nil {
		decoded = target
	}
	u := ParseURL(decoded)

	verb, _ := ParseVerb(r.Method)

	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}

	return &Request{
		req:        r,
		startTime:  time.Now(),
		ID:         id,
		Method:     r.Method,
		Verb:       verb,
		URL:        u,
		Path:       u.Path(),
		Headers:    r.Header,
		Body:       r.Body,
		RemoteAddr: r.RemoteAddr,
		Context:    r.Context(),
	}
}

// Start listens on addr, over TLS when SecureConfig is set, and serves in the background.
// It returns the host and port actually bound, which matters when addr asks for port 0.
func (s *Server) Start(addr string) (string, uint, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return "", 0, err
	}

	tcpAddr, _ := l.Addr().(*net.TCPAddr)

	if s.SecureConfig != nil {
		l = tls.NewListener(l, s.SecureConfig)
	}

	server := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.LogError(nil, fmt.Errorf("serving %s: %w", addr, err))
		}
	}()

	if tcpAddr == nil {
		return addr, 0, nil
	}
	return tcpAddr.IP.String(), uint(tcpAddr.Port), nil
}

// StartConfig starts the server from a loaded configuration map, using TLS
// when it names both a certificate and a key file.
func (s *Server) StartConfig(cfg Config) (string, uint, error) {
	if certFile, keyFile := cfg.CertFile(), cfg.KeyFile(); certFile != "" && keyFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return "", 0, fmt.Errorf("loading tls key pair: %w", err)
		}
		s.SecureConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}
	return s.Start(cfg.Addr())
}

// Shutdown stops accepting requests and closes every websocket client.
// http.Server does not track hijacked connections, the registry closes those.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()

	var errs []error
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.Clients.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
