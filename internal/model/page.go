package model

// Page is one page of a length-aware listing.
type Page[T any] struct {
	Items       []T
	CurrentPage int
	PerPage     int
	Total       int64
}

// LastPage returns the number of the last page, at least 1.
func (p Page[T]) LastPage() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	last := p.Total / int64(p.PerPage)
	if p.Total%int64(p.PerPage) != 0 {
		last++
	}
	return int(last)
}
