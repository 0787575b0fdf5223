package wsrouter

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Request is the decoded form of an incoming request handed to the dispatcher.
type Request struct {
	req       *http.Request
	startTime time.Time
	bodySize  uint

	ID         string
	Method     string
	Verb       Verb
	URL        URL
	Path       string
	Headers    http.Header
	Body       io.ReadCloser
	RemoteAddr string
	Context    context.Context
}

func (req *Request) Start() time.Time {
	return req.startTime
}

func (req *Request) BodySize() uint {
	return req.bodySize
}

// Query is a shortcut for req.URL.Query().
func (req *Request) Query() map[string]string {
	return req.URL.Query()
}

// ClientAddr prefers the Forwarded header and falls back to the host of the peer address.
func (req *Request) ClientAddr() string {
	if fwd := req.Headers.Get("Forwarded"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

// ReadBody drains the request body. It can only be called once.
func (req *Request) ReadBody() ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	b, err := io.ReadAll(req.Body)
	req.bodySize += uint(len(b))
	return b, err
}

func (req *Request) ReadText() (string, error) {
	b, err := req.ReadBody()
	return string(b), err
}

// ParseForm reads an application/x-www-form-urlencoded body.
func (req *Request) ParseForm() (url.Values, error) {
	b, err := req.ReadBody()
	if err != nil {
		return nil, err
	}
	return url.ParseQuery(string(b))
}

func (req *Request) DecodeJSON(v any) error {
	b, err := req.ReadBody()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
