package wsrouter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		path      string
		search    string
		hasSearch bool
		query     map[string]string
	}{
		{
			name:      "path_and_query",
			raw:       "/x?a=1&b=2",
			path:      "/x",
			search:    "a=1&b=2",
			hasSearch: true,
			query:     map[string]string{"a": "1", "b": "2"},
		},
		{
			name:      "bare_token_maps_to_itself",
			raw:       "/x?flag",
			path:      "/x",
			search:    "flag",
			hasSearch: true,
			query:     map[string]string{"flag": "flag"},
		},
		{
			name: "no_query",
			raw:  "/x",
			path: "/x",
		},
		{
			name:      "empty_search",
			raw:       "/x?",
			path:      "/x",
			hasSearch: true,
		},
		{
			name:      "pairs_missing_key_or_value_are_dropped",
			raw:       "/x?=1&a=&b=2",
			path:      "/x",
			search:    "=1&a=&b=2",
			hasSearch: true,
			query:     map[string]string{"b": "2"},
		},
		{
			name:      "split_at_first_question_mark",
			raw:       "/x?a=1?b",
			path:      "/x",
			search:    "a=1?b",
			hasSearch: true,
			query:     map[string]string{"a": "1?b"},
		},
		{
			name:      "extra_equals_keeps_second_piece",
			raw:       "/x?a=1=2",
			path:      "/x",
			search:    "a=1=2",
			hasSearch: true,
			query:     map[string]string{"a": "1"},
		},
		{
			name:      "no_percent_decoding",
			raw:       "/a%20b?q=%41",
			path:      "/a%20b",
			search:    "q=%41",
			hasSearch: true,
			query:     map[string]string{"q": "%41"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u := ParseURL(tt.raw)
			assert.Equal(t, tt.path, u.Path())

			search, ok := u.Search()
			assert.Equal(t, tt.hasSearch, ok)
			assert.Equal(t, tt.search, search)
			assert.Equal(t, tt.query, u.Query())
			assert.Equal(t, tt.raw, u.String())
		})
	}
}

func TestURL_QueryUndefined(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ParseURL("/x").Query())
	assert.Nil(t, ParseURL("/x?").Query())
}
