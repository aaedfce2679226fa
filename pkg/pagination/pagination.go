package pagination

import (
	"net/http"
	"strconv"
)

// Params holds the page requested by the client. Page size is owned by the
// backend API, so only the page number travels.
type Params struct {
	Page int `json:"page"`
}

// DefaultParams returns the first page.
func DefaultParams() Params {
	return Params{Page: 1}
}

// FromRequest extracts the page number from the "page" query parameter.
// Missing, malformed or non-positive values fall back to page 1.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}
	return p
}

// Meta describes where a page sits in the listing, for prev/next controls.
type Meta struct {
	Page      int  `json:"page"`
	TotalPage int  `json:"total_page"`
	HasNext   bool `json:"has_next"`
	HasPrev   bool `json:"has_prev"`
	NextPage  *int `json:"next_page,omitempty"`
	PrevPage  *int `json:"prev_page,omitempty"`
}

// NewMeta builds page metadata from the backend's page count.
func NewMeta(page, totalPage int) Meta {
	if page < 1 {
		page = 1
	}
	if totalPage < 0 {
		totalPage = 0
	}

	m := Meta{
		Page:      page,
		TotalPage: totalPage,
		HasNext:   page < totalPage,
		HasPrev:   page > 1,
	}
	if m.HasNext {
		next := page + 1
		m.NextPage = &next
	}
	if m.HasPrev {
		prev := page - 1
		m.PrevPage = &prev
	}
	return m
}
