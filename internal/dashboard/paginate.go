package dashboard

import (
	"fmt"

	"github.com/haesinais/aisdash/internal/vessel"
)

// DefaultRowsPerPage is used when no positive page size is configured
const DefaultRowsPerPage = 10

// Page directions
const (
	DirectionPrev = "prev"
	DirectionNext = "next"
)

// PageWindow is the derived pagination state of the filtered list
type PageWindow struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	RowsPerPage int `json:"rows_per_page"`
}

// HasPrev reports whether a "prev" move would change the page
func (w PageWindow) HasPrev() bool {
	return w.CurrentPage > 1
}

// HasNext reports whether a "next" move would change the page
func (w PageWindow) HasNext() bool {
	return w.TotalPages > 0 && w.CurrentPage < w.TotalPages
}

// Label renders the window as "current / total"
func (w PageWindow) Label() string {
	return fmt.Sprintf("%d / %d", w.CurrentPage, w.TotalPages)
}

// TotalPages returns ceil(count / rowsPerPage)
func TotalPages(count, rowsPerPage int) int {
	if rowsPerPage <= 0 {
		rowsPerPage = DefaultRowsPerPage
	}
	return (count + rowsPerPage - 1) / rowsPerPage
}

// Paginate returns the items of currentPage (1-based) and the page count.
// A page outside the list yields no items.
func Paginate(filtered []vessel.Record, currentPage, rowsPerPage int) ([]vessel.Record, int) {
	if rowsPerPage <= 0 {
		rowsPerPage = DefaultRowsPerPage
	}
	totalPages := TotalPages(len(filtered), rowsPerPage)
	if currentPage < 1 || currentPage > totalPages {
		return []vessel.Record{}, totalPages
	}

	start := (currentPage - 1) * rowsPerPage
	end := min(start+rowsPerPage, len(filtered))
	return filtered[start:end], totalPages
}

// ChangePage moves one page in direction. Moves past either end and
// unknown directions leave the window unchanged and return false.
func ChangePage(w PageWindow, direction string) (PageWindow, bool) {
	switch direction {
	case DirectionPrev:
		if w.HasPrev() {
			w.CurrentPage--
			return w, true
		}
	case DirectionNext:
		if w.HasNext() {
			w.CurrentPage++
			return w, true
		}
	}
	return w, false
}

// GoToPage jumps to page n. Pages outside [1, TotalPages] are ignored.
func GoToPage(w PageWindow, n int) (PageWindow, bool) {
	if n < 1 || n > w.TotalPages || n == w.CurrentPage {
		return w, false
	}
	w.CurrentPage = n
	return w, true
}

// resize recomputes the page count for a new filtered length. When the
// current page no longer exists the window resets to page 1.
func (w PageWindow) resize(count int) PageWindow {
	w.TotalPages = TotalPages(count, w.RowsPerPage)
	if w.CurrentPage < 1 || w.CurrentPage > w.TotalPages {
		w.CurrentPage = 1
	}
	return w
}
