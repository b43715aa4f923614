package domain

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 25
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit inside int64.
	MaxPage = math.MaxInt32
)

type Page struct {
	Page  int
	Limit int
}

func NewPage(page, limit int) Page {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Offset() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

func (p Page) Paginate(total int64) Pagination {
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Pagination{
		CurrentPage: p.Page,
		TotalPages:  pages,
		Total:       total,
		HasNext:     int64(p.Page)*int64(p.Limit) < total,
		HasPrev:     p.Page > 1,
	}
}
