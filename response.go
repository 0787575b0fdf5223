package wsrouter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

var ErrAlreadySent = errors.New("response already sent")

// Response collects status, headers and body until Send is called.
// A handler must call Send exactly once, the dispatcher does not do it on its behalf.
type Response struct {
	w   http.ResponseWriter
	req *Request

	Status int
	Header http.Header
	Body   []byte

	mu   sync.Mutex
	sent bool
	size uint
}

func newResponse(w http.ResponseWriter, req *Request) *Response {
	return &Response{
		w:      w,
		req:    req,
		Status: http.StatusOK,
		Header: w.Header(),
	}
}

func (res *Response) SetText(text string) {
	res.Header.Set("Content-Type", "text/plain; charset=utf-8")
	res.Body = []byte(text)
}

func (res *Response) SetHTML(html string) {
	res.Header.Set("Content-Type", "text/html; charset=utf-8")
	res.Body = []byte(html)
}

func (res *Response) SetJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res.Header.Set("Content-Type", "application/json")
	res.Body = b
	return nil
}

func (res *Response) Sent() bool {
	res.mu.Lock()
	defer res.mu.Unlock()
	return res.sent
}

// Size is the number of body bytes handed to Send, before compression.
func (res *Response) Size() uint {
	res.mu.Lock()
	defer res.mu.Unlock()
	return res.size
}

// markSent is used once the connection has been handed to something else, such as a websocket upgrade.
func (res *Response) markSent() {
	res.mu.Lock()
	res.sent = true
	res.mu.Unlock()
}

func (res *Response) Send() error {
	res.mu.Lock()
	defer res.mu.Unlock()
	if res.sent {
		return ErrAlreadySent
	}
	res.sent = true
	res.size = uint(len(res.Body))

	if res.Status == 0 {
		res.Status = http.StatusOK
	}
	if len(res.Body) > 0 && res.Header.Get("Content-Type") == "" {
		res.Header.Set("Content-Type", http.DetectContentType(res.Body))
	}

	var acceptEncoding string
	if res.req != nil {
		acceptEncoding = res.req.Headers.Get("Accept-Encoding")
	}
	if len(res.Body) == 0 || res.Status == http.StatusNotModified || res.Status == http.StatusNoContent {
		res.w.WriteHeader(res.Status)
		return nil
	}
	return writeWithContentEncoding(res.w, res.Status, res.Body, acceptEncoding)
}

// writeWithContentEncoding picks the first supported coding listed by the client.
func writeWithContentEncoding(w http.ResponseWriter, status int, content []byte, acceptEncodingHeader string) error {
	var encoder io.WriteCloser

	encodings := strings.Split(acceptEncodingHeader, ",")
ENCODINGLOOP:
	for _, encoding := range encodings {
		// drop any q-value, "gzip;q=0.8" still means gzip is acceptable
		coding, _, _ := strings.Cut(encoding, ";")
		switch strings.TrimSpace(coding) {
		case "gzip":
			w.Header().Set("Content-Encoding", "gzip")
			encoder = gzip.NewWriter(w)
			break ENCODINGLOOP
		case "deflate":
			w.Header().Set("Content-Encoding", "deflate")
			encoder, _ = flate.NewWriter(w, flate.DefaultCompression)
			break ENCODINGLOOP
		case "br":
			w.Header().Set("Content-Encoding", "br")
			encoder = brotli.NewWriter(w)
			break ENCODINGLOOP
		case "identity":
			break ENCODINGLOOP
			// TODO: case "zstd":
		}
	}

	if encoder == nil {
		w.WriteHeader(status)
		_, err := w.Write(content)
		return err
	}

	w.Header().Add("Vary", "Accept-Encoding")
	w.Header().Del("Content-Length")
	w.WriteHeader(status)
	if _, err := encoder.Write(content); err != nil {
		_ = encoder.Close()
		return err
	}
	return encoder.Close()
}
