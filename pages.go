package wsrouter

import (
	"fmt"
	"html"
	"net/http"

	"github.com/elnormous/contenttype"
)

var (
	htmlMediaType  = contenttype.NewMediaType("text/html")
	jsonMediaType  = contenttype.NewMediaType("application/json")
	plainMediaType = contenttype.NewMediaType("text/plain")

	// html first, it is the answer when the client sends no Accept header
	pageMediaTypes = []contenttype.MediaType{htmlMediaType, jsonMediaType, plainMediaType}
)

// pageMessages overrides http.StatusText where the route-level meaning differs.
var pageMessages = map[int]string{
	http.StatusBadGateway: "Method Not Supported",
}

func notFoundPage(req *Request, res *Response) {
	writeErrorPage(req, res, http.StatusNotFound)
}

func unsupportedPage(req *Request, res *Response) {
	writeErrorPage(req, res, http.StatusBadGateway)
}

// writeErrorPage renders a minimal page for status in whichever of html, json
// or plain text the client accepts, then sends it.
func writeErrorPage(req *Request, res *Response, status int) {
	message, ok := pageMessages[status]
	if !ok {
		message = http.StatusText(status)
	}

	accepted := htmlMediaType
	if req != nil && req.Headers != nil {
		mt, _, err := contenttype.GetAcceptableMediaType(&http.Request{Header: req.Headers}, pageMediaTypes)
		if err == nil {
			accepted = mt
		}
	}

	res.Status = status
	switch accepted.Subtype {
	case jsonMediaType.Subtype:
		_ = res.SetJSON(map[string]any{
			"status": status,
			"error":  message,
		})
	case plainMediaType.Subtype:
		res.SetText(fmt.Sprintf("%d %s", status, message))
	default:
		title := html.EscapeString(fmt.Sprintf("%d %s", status, message))
		res.SetHTML(fmt.Sprintf("<!DOCTYPE html><html><head><title>%s</title></head><body><h1>%s</h1></body></html>", title, title))
	}
	_ = res.Send()
}
