package service

import (
	"errors"
	"strconv"
	"strings"
)

// PageResult is one page of a paginated collection.
type PageResult[T any] struct {
	Items      []T
	Number     int
	TotalPages int
	Total      int
	PerPage    int
}

// HasPrevious reports whether a page precedes this one.
func (p PageResult[T]) HasPrevious() bool {
	return p.Number > 1
}

// HasNext reports whether a page follows this one.
func (p PageResult[T]) HasNext() bool {
	return p.Number < p.TotalPages
}

// PreviousNumber returns the previous page number, or 0.
func (p PageResult[T]) PreviousNumber() int {
	if !p.HasPrevious() {
		return 0
	}
	return p.Number - 1
}

// NextNumber returns the next page number, or 0.
func (p PageResult[T]) NextNumber() int {
	if !p.HasNext() {
		return 0
	}
	return p.Number + 1
}

// Paginate slices items into pages of perPage and returns the requested one.
// A missing or non-integer request yields page 1; a request past either end
// yields the last page. An empty collection has a single empty page. A
// non-positive perPage puts everything on one page.
func Paginate[T any](items []T, rawPage string, perPage int) PageResult[T] {
	total := len(items)
	if perPage <= 0 {
		perPage = max(total, 1)
	}

	totalPages := calculateTotalPages(int64(total), perPage)
	number := ResolvePageNumber(rawPage, totalPages)

	start := min((number-1)*perPage, total)
	end := min(start+perPage, total)

	return PageResult[T]{
		Items:      items[start:end],
		Number:     number,
		TotalPages: totalPages,
		Total:      total,
		PerPage:    perPage,
	}
}

// ResolvePageNumber applies the clamping policy to a raw page request.
func ResolvePageNumber(rawPage string, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	number, err := strconv.Atoi(strings.TrimSpace(rawPage))
	if err != nil {
		// 超出 int 范围的整数仍按越界处理
		if errors.Is(err, strconv.ErrRange) {
			return totalPages
		}
		return 1
	}
	if number < 1 || number > totalPages {
		return totalPages
	}
	return number
}

func calculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	if total == 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
