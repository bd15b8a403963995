package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func req(query string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/api/v1/products?"+query, nil)
}

func TestFromRequest(t *testing.T) {
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, PerPage: 10, Offset: 0}},
		{"page=3&per_page=20", Params{Page: 3, PerPage: 20, Offset: 40}},
		{"page=0&per_page=-1", Params{Page: 1, PerPage: 10, Offset: 0}},
		{"page=abc", Params{Page: 1, PerPage: 10, Offset: 0}},
		{"per_page=500", Params{Page: 1, PerPage: 100, Offset: 0}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FromRequest(req(tt.query)), tt.query)
	}
}

func TestSortFromRequest(t *testing.T) {
	s, err := SortFromRequest(req(""), "review_count", "review_count", "price")
	require.NoError(t, err)
	assert.Equal(t, Sort{Field: "review_count", Desc: true}, s)

	s, err = SortFromRequest(req("sort_by=price&sort_dir=ASC"), "review_count", "review_count", "price")
	require.NoError(t, err)
	assert.Equal(t, Sort{Field: "price", Desc: false}, s)

	_, err = SortFromRequest(req("sort_by=secret"), "review_count", "review_count", "price")
	assert.Error(t, err)

	_, err = SortFromRequest(req("sort_dir=sideways"), "review_count", "review_count")
	assert.Error(t, err)
}

func TestNewResult(t *testing.T) {
	r := NewResult([]int{1, 2}, 25, Params{Page: 2, PerPage: 10})
	assert.Equal(t, 3, r.TotalPages)
	assert.True(t, r.HasNext)
	assert.True(t, r.HasPrev)

	empty := NewResult[int](nil, 0, Params{Page: 1, PerPage: 10})
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
}
