package entity

import "math"

// Page is one 1-indexed slice of an ordered post sequence.
type Page struct {
	Items   []Post
	Page    int
	PerPage int
	Total   int64
	HasNext bool
	HasPrev bool
}

// NewPage builds a Page from the items of page number page out of total posts.
func NewPage(items []Post, page, perPage int, total int64) *Page {
	if items == nil {
		items = []Post{}
	}
	return &Page{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: int64(page)*int64(perPage) < total,
		HasPrev: page > 1,
	}
}

// NextNum returns the next page number, or 0 when there is none.
func (p *Page) NextNum() int {
	if !p.HasNext {
		return 0
	}
	return p.Page + 1
}

// PrevNum returns the previous page number, or 0 when there is none.
func (p *Page) PrevNum() int {
	if !p.HasPrev {
		return 0
	}
	return p.Page - 1
}

// Offset returns the number of rows preceding page.
// page must already be bounded by ClampPage.
func Offset(page, perPage int) int {
	return (page - 1) * perPage
}

// ClampPage bounds page to at least 1 and to the last page whose offset fits in an int.
// Pages past the end of any real sequence stay out of range after clamping.
func ClampPage(page, perPage int) int {
	if page < 1 {
		return 1
	}
	if perPage > 0 && page > math.MaxInt/perPage {
		return math.MaxInt / perPage
	}
	return page
}
