package wsrouter

import (
	"errors"
	"slices"
)

type Verb byte

const (
	GET Verb = iota + 1
	POST
	PUT
	DELETE
	HEAD
	OPTIONS
	CONNECT
	TRACE
	PATCH
)

var ErrInvalidVerb = errors.New("invalid verb")

// routableVerbs are the verbs a route can bind a handler to.
var routableVerbs = []Verb{GET, POST, PUT, DELETE, PATCH}

// ParseVerb maps a request method to its Verb. Methods are case-sensitive,
// "get" is not GET.
func ParseVerb(in string) (Verb, error) {
	switch in {
	case "GET":
		return GET, nil
	case "POST":
		return POST, nil
	case "PUT":
		return PUT, nil
	case "DELETE":
		return DELETE, nil
	case "HEAD":
		return HEAD, nil
	case "OPTIONS":
		return OPTIONS, nil
	case "CONNECT":
		return CONNECT, nil
	case "TRACE":
		return TRACE, nil
	case "PATCH":
		return PATCH, nil
	default:
		return 0, ErrInvalidVerb
	}
}

// Routable reports whether a route may bind a handler to v.
// Every other verb is answered by the "502" route.
func (v Verb) Routable() bool {
	return slices.Contains(routableVerbs, v)
}

func (v Verb) String() string {
	switch v {
	case GET:
		return "GET"
	case POST:
		return "POST"
	case PUT:
		return "PUT"
	case DELETE:
		return "DELETE"
	case HEAD:
		return "HEAD"
	case OPTIONS:
		return "OPTIONS"
	case CONNECT:
		return "CONNECT"
	case TRACE:
		return "TRACE"
	case PATCH:
		return "PATCH"
	default:
		return "UNKNOWN"
	}
}
