// Package pagination plans the numbered pages of a post listing.
//
// The first listing page (the blog home) is unnumbered and may hold a
// different number of posts than the numbered pages that follow it.
package pagination

import (
	"strconv"

	mdxerrors "github.com/nilszeilon/mdxposts/internal/errors"
)

// Params describes the listing to paginate.
type Params struct {
	TotalPosts        int `json:"totalPosts"`
	FirstPageCapacity int `json:"firstPageCapacity"`
	PageCapacity      int `json:"pageCapacity"`
}

// PathParams are the route parameters of one listing page.
type PathParams struct {
	PageNum []string `json:"pageNum"`
}

// Page describes one listing page.
type Page struct {
	Params PathParams `json:"params"`
}

// Number is the 1-based page number, or 0 for the unnumbered first page.
func (p Page) Number() int {
	if len(p.Params.PageNum) == 0 {
		return 0
	}
	n, _ := strconv.Atoi(p.Params.PageNum[0])
	return n
}

func (p Params) validate() error {
	switch {
	case p.TotalPosts < 0:
		return mdxerrors.New(mdxerrors.KindInvalidArgument, "paginate", "", "total posts must be >= 0, got %d", p.TotalPosts)
	case p.FirstPageCapacity < 0:
		return mdxerrors.New(mdxerrors.KindInvalidArgument, "paginate", "", "first page capacity must be >= 0, got %d", p.FirstPageCapacity)
	case p.PageCapacity <= 0:
		return mdxerrors.New(mdxerrors.KindInvalidArgument, "paginate", "", "page capacity must be > 0, got %d", p.PageCapacity)
	}
	return nil
}

// Plan returns the pages needed to list p.TotalPosts posts. The first entry
// is always the unnumbered page; numbered pages follow only when posts remain
// after it. The last page may be under-filled.
func Plan(p Params) ([]Page, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	pages := []Page{{Params: PathParams{PageNum: []string{}}}}
	remaining := p.TotalPosts - p.FirstPageCapacity
	if remaining <= 0 {
		return pages, nil
	}

	for n := 1; ; n++ {
		remaining -= p.PageCapacity
		pages = append(pages, Page{Params: PathParams{PageNum: []string{strconv.Itoa(n)}}})
		if remaining <= 0 {
			break
		}
	}
	return pages, nil
}

// Window returns the [start, end) bounds, within a listing of p.TotalPosts
// posts, of the posts shown on page number n (0 for the first page). Pages
// past the end yield an empty window.
func Window(p Params, n int) (start, end int) {
	if n <= 0 {
		return 0, min(p.FirstPageCapacity, p.TotalPosts)
	}
	start = min(p.FirstPageCapacity+(n-1)*p.PageCapacity, p.TotalPosts)
	end = min(start+p.PageCapacity, p.TotalPosts)
	return start, end
}
