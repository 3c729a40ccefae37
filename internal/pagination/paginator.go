package pagination

import (
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/models"
)

// DefaultWindowSize is the number of page links shown around the current page
const DefaultWindowSize = 5

// Paginator slices a fully loaded row set into numbered pages
type Paginator struct {
	DefaultPageSize int
	MaxPageSize     int
	WindowSize      int
}

// PageRequest represents pagination parameters
type PageRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPaginator creates a new paginator
func NewPaginator(defaultSize, maxSize int) *Paginator {
	return &Paginator{
		DefaultPageSize: defaultSize,
		MaxPageSize:     maxSize,
		WindowSize:      DefaultWindowSize,
	}
}

// ValidateRequest normalizes the page size and a non-positive page number
func (p *Paginator) ValidateRequest(req *PageRequest) {
	if req.PageSize <= 0 {
		req.PageSize = p.DefaultPageSize
	}
	if p.MaxPageSize > 0 && req.PageSize > p.MaxPageSize {
		req.PageSize = p.MaxPageSize
	}
	if req.Page < 1 {
		req.Page = 1
	}
}

// Paginate computes the window for total rows and returns the half-open slice
// bounds of the current page. A current page past the last page is clamped.
func (p *Paginator) Paginate(total int, req PageRequest) (models.PageWindow, int, int) {
	p.ValidateRequest(&req)

	totalPages := 0
	if total > 0 {
		totalPages = (total + req.PageSize - 1) / req.PageSize
	}

	current := req.Page
	if totalPages > 0 && current > totalPages {
		current = totalPages
	}
	if totalPages == 0 {
		current = 1
	}

	start := (current - 1) * req.PageSize
	if start > total {
		start = total
	}
	end := start + req.PageSize
	if end > total {
		end = total
	}

	return models.PageWindow{
		CurrentPage:        current,
		TotalPages:         totalPages,
		PageSize:           req.PageSize,
		TotalRows:          total,
		VisiblePageNumbers: VisiblePages(current, totalPages, p.WindowSize),
	}, start, end
}

// VisiblePages returns at most size consecutive page numbers centred on
// current and shifted to stay within [1, total]
func VisiblePages(current, total, size int) []int {
	if total <= 0 || size <= 0 {
		return []int{}
	}
	if total <= size {
		return pageRange(1, total)
	}

	half := size / 2
	start := max(1, current-half)
	end := min(total, start+size-1)
	if end-start < size-1 {
		start = max(1, end-size+1)
	}
	return pageRange(start, end)
}

func pageRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
