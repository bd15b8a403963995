package pagination

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
	Offset  int `json:"-"`
}

// FromRequest reads page and per_page. Missing or non-positive values use
// the defaults and per_page is capped at MaxPerPage.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	p := Params{Page: 1, PerPage: DefaultPerPage}

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 {
		p.PerPage = min(v, MaxPerPage)
	}

	p.Offset = (p.Page - 1) * p.PerPage
	return p
}

// Sort is an ordering requested through sort_by and sort_dir.
type Sort struct {
	Field string
	Desc  bool
}

// SortFromRequest reads sort_by (one of allowed, defaulting to def) and
// sort_dir (asc or desc, defaulting to desc).
func SortFromRequest(r *http.Request, def string, allowed ...string) (Sort, error) {
	q := r.URL.Query()
	s := Sort{Field: def, Desc: true}

	if by := strings.TrimSpace(q.Get("sort_by")); by != "" {
		if !slices.Contains(allowed, by) {
			return s, fmt.Errorf("sort_by must be one of: %s", strings.Join(allowed, ", "))
		}
		s.Field = by
	}
	switch strings.ToLower(strings.TrimSpace(q.Get("sort_dir"))) {
	case "", "desc":
	case "asc":
		s.Desc = false
	default:
		return s, fmt.Errorf("sort_dir must be asc or desc")
	}
	return s, nil
}

// Result wraps a paginated response.
type Result[T any] struct {
	Items      []T  `json:"items"`
	TotalCount int  `json:"totalCount"`
	Page       int  `json:"page"`
	PerPage    int  `json:"perPage"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NewResult creates a paginated result.
func NewResult[T any](items []T, totalCount int, params Params) Result[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if params.PerPage > 0 {
		totalPages = (totalCount + params.PerPage - 1) / params.PerPage
	}

	return Result[T]{
		Items:      items,
		TotalCount: totalCount,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
