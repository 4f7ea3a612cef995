package services

import "math"

const (
	DefaultPageSize = 6
	MaxPageSize     = 100
	// MaxPageNumber keeps Number*Limit inside int32 for any allowed limit.
	MaxPageNumber = math.MaxInt32 / MaxPageSize
)

// Page selects a 1-based page of Limit items.
type Page struct {
	Number int
	Limit  int
}

// Normalize clamps the page into usable bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Number - 1) * p.Limit
}
