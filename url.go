package wsrouter

import "strings"

// URL is a request target split at its first '?'.
// Nothing is percent-decoded here, the listener decodes the target once before parsing.
type URL struct {
	path      string
	search    string
	hasSearch bool
}

func ParseURL(raw string) URL {
	idx := strings.IndexByte(raw, '?')
	if idx < 0 {
		return URL{path: raw}
	}
	return URL{path: raw[:idx], search: raw[idx+1:], hasSearch: true}
}

func (u URL) Path() string {
	return u.path
}

// Search returns everything after the first '?', and whether a '?' was present at all.
func (u URL) Search() (string, bool) {
	return u.search, u.hasSearch
}

// Query splits the search part on '&' and then '='.
// A bare token with no '=' maps to itself, and pairs missing a key or a value are dropped.
// A nil map means the URL carries no query.
func (u URL) Query() map[string]string {
	if u.search == "" {
		return nil
	}

	params := map[string]string{}
	for _, pair := range strings.Split(u.search, "&") {
		var key, value string
		if strings.Contains(pair, "=") {
			parts := strings.Split(pair, "=")
			key, value = parts[0], parts[1]
		} else {
			key, value = pair, pair
		}
		if key == "" || value == "" {
			continue
		}
		params[key] = value
	}
	return params
}

func (u URL) String() string {
	if !u.hasSearch {
		return u.path
	}
	return u.path + "?" + u.search
}
