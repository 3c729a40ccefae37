package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	p := NewPaginator(20, 100)

	tests := []struct {
		name      string
		total     int
		req       PageRequest
		wantPage  int
		wantPages int
		wantStart int
		wantEnd   int
	}{
		{name: "first page", total: 47, req: PageRequest{Page: 1}, wantPage: 1, wantPages: 3, wantStart: 0, wantEnd: 20},
		{name: "last partial page", total: 47, req: PageRequest{Page: 3}, wantPage: 3, wantPages: 3, wantStart: 40, wantEnd: 47},
		{name: "clamped past end", total: 47, req: PageRequest{Page: 5}, wantPage: 3, wantPages: 3, wantStart: 40, wantEnd: 47},
		{name: "zero page", total: 47, req: PageRequest{Page: 0}, wantPage: 1, wantPages: 3, wantStart: 0, wantEnd: 20},
		{name: "empty", total: 0, req: PageRequest{Page: 4}, wantPage: 1, wantPages: 0, wantStart: 0, wantEnd: 0},
		{name: "custom size", total: 25, req: PageRequest{Page: 3, PageSize: 10}, wantPage: 3, wantPages: 3, wantStart: 20, wantEnd: 25},
		{name: "size capped", total: 500, req: PageRequest{Page: 1, PageSize: 1000}, wantPage: 1, wantPages: 5, wantStart: 0, wantEnd: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, start, end := p.Paginate(tt.total, tt.req)
			assert.Equal(t, tt.wantPage, w.CurrentPage)
			assert.Equal(t, tt.wantPages, w.TotalPages)
			assert.Equal(t, tt.total, w.TotalRows)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestVisiblePages(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    []int
	}{
		{name: "fewer than window", current: 1, total: 3, want: []int{1, 2, 3}},
		{name: "exactly window", current: 5, total: 5, want: []int{1, 2, 3, 4, 5}},
		{name: "centred", current: 10, total: 20, want: []int{8, 9, 10, 11, 12}},
		{name: "near start", current: 2, total: 20, want: []int{1, 2, 3, 4, 5}},
		{name: "near end", current: 19, total: 20, want: []int{16, 17, 18, 19, 20}},
		{name: "last", current: 20, total: 20, want: []int{16, 17, 18, 19, 20}},
		{name: "no pages", current: 1, total: 0, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VisiblePages(tt.current, tt.total, DefaultWindowSize)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), DefaultWindowSize)
		})
	}
}
