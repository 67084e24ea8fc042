// ABOUTME: Pagination metadata and windowing for 1-based paged lists
// ABOUTME: Query resolves optional page parameters with defaults and clamping

package pagination

import "math"

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MinPageSize     = 1
	MaxPageSize     = 100

	// MaxPage keeps (page-1)*MaxPageSize inside an int.
	MaxPage = math.MaxInt / MaxPageSize
)

// Pagination describes one page of a larger result set.
type Pagination struct {
	Results    int `json:"results"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	PagesTotal int `json:"pages_total"`
	Offset     int `json:"offset"`
}

// New computes the metadata for a page. results is the number of rows
// actually returned, which can be lower than the window size when
// referenced records have disappeared.
func New(total, page, pageSize, results int) Pagination {
	pagesTotal := 0
	if pageSize > 0 {
		pagesTotal = (total + pageSize - 1) / pageSize
	}
	return Pagination{
		Results:    results,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		PagesTotal: pagesTotal,
		Offset:     Offset(page, pageSize),
	}
}

// Offset returns the index of the first item on a page. It saturates at
// math.MaxInt instead of overflowing, and is 0 for pages below 1.
func Offset(page, pageSize int) int {
	if page < 1 || pageSize < 1 {
		return 0
	}
	if page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}

// Window returns the [start, end) slice bounds of a page over total items.
// ok is false when the page starts past the end.
func Window(total, page, pageSize int) (start, end int, ok bool) {
	start = Offset(page, pageSize)
	if page < 1 || start >= total {
		return 0, 0, false
	}
	end = min(start+pageSize, total)
	return start, end, true
}

// Query carries the optional page parameters of a list request.
type Query struct {
	Page     *int `json:"page,omitempty"`
	PageSize *int `json:"page_size,omitempty"`
}

// Resolve applies defaults, clamps page to [1, MaxPage] and page_size to
// [MinPageSize, MaxPageSize].
func (q Query) Resolve() (page, pageSize int) {
	page, pageSize = DefaultPage, DefaultPageSize
	if q.Page != nil && *q.Page > 0 {
		page = min(*q.Page, MaxPage)
	}
	if q.PageSize != nil {
		pageSize = max(MinPageSize, min(*q.PageSize, MaxPageSize))
	}
	return page, pageSize
}
