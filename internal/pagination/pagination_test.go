package pagination

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	mdxerrors "github.com/nilszeilon/mdxposts/internal/errors"
)

func pageNums(pages []Page) [][]string {
	out := make([][]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.Params.PageNum)
	}
	return out
}

func TestPlan_AllPostsFitOnFirstPage_SinglePage(t *testing.T) {
	pages, err := Plan(Params{TotalPosts: 5, FirstPageCapacity: 5, PageCapacity: 10})
	require.NoError(t, err)
	require.Equal(t, [][]string{{}}, pageNums(pages))
}

func TestPlan_RemainingPosts_AddsNumberedPages(t *testing.T) {
	pages, err := Plan(Params{TotalPosts: 25, FirstPageCapacity: 5, PageCapacity: 10})
	require.NoError(t, err)
	if diff := cmp.Diff([][]string{{}, {"1"}, {"2"}}, pageNums(pages)); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_Table(t *testing.T) {
	cases := []struct {
		name   string
		params Params
		want   int
	}{
		{"no posts", Params{0, 5, 10}, 1},
		{"fewer than first page", Params{3, 5, 10}, 1},
		{"one extra post", Params{6, 5, 10}, 2},
		{"exactly fills page one", Params{15, 5, 10}, 2},
		{"spills to page two", Params{16, 5, 10}, 3},
		{"zero first capacity", Params{10, 0, 10}, 2},
		{"zero first capacity spill", Params{11, 0, 10}, 3},
		{"page size one", Params{4, 1, 1}, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pages, err := Plan(tc.params)
			require.NoError(t, err)
			require.Len(t, pages, tc.want)
			for i, p := range pages {
				require.Equal(t, i, p.Number())
			}
		})
	}
}

func TestPlan_InvalidParams_ReturnsInvalidArgument(t *testing.T) {
	for _, p := range []Params{
		{TotalPosts: -1, FirstPageCapacity: 5, PageCapacity: 10},
		{TotalPosts: 1, FirstPageCapacity: -5, PageCapacity: 10},
		{TotalPosts: 1, FirstPageCapacity: 5, PageCapacity: 0},
		{TotalPosts: 1, FirstPageCapacity: 5, PageCapacity: -3},
	} {
		_, err := Plan(p)
		require.True(t, errors.Is(err, mdxerrors.ErrInvalidArgument), "%+v", p)
	}
}

func TestPlan_JSONShape_FirstPageHasEmptyList(t *testing.T) {
	pages, err := Plan(Params{TotalPosts: 6, FirstPageCapacity: 5, PageCapacity: 10})
	require.NoError(t, err)

	out, err := json.Marshal(pages)
	require.NoError(t, err)
	require.JSONEq(t, `[{"params":{"pageNum":[]}},{"params":{"pageNum":["1"]}}]`, string(out))
}

func TestWindow_CoversEveryPostOnce(t *testing.T) {
	params := Params{TotalPosts: 23, FirstPageCapacity: 5, PageCapacity: 10}
	pages, err := Plan(params)
	require.NoError(t, err)

	next := 0
	for _, p := range pages {
		start, end := Window(params, p.Number())
		require.Equal(t, next, start)
		require.LessOrEqual(t, end, params.TotalPosts)
		next = end
	}
	require.Equal(t, params.TotalPosts, next)

	start, end := Window(params, 9)
	require.Equal(t, start, end)
}

func TestWindow_FirstPageLargerThanTotal_Clamped(t *testing.T) {
	start, end := Window(Params{TotalPosts: 2, FirstPageCapacity: 5, PageCapacity: 10}, 0)
	require.Equal(t, 0, start)
	require.Equal(t, 2, end)
}
