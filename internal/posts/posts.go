// Package posts assembles post records from a tree of index.mdx files.
package posts

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/nilszeilon/mdxposts/internal/fileutil"
	"github.com/nilszeilon/mdxposts/internal/markdown"
	"github.com/nilszeilon/mdxposts/internal/slug"
	"github.com/nilszeilon/mdxposts/internal/visibility"
)

const (
	FieldSlug    = "slug"
	FieldContent = "content"
	FieldDate    = "date"
	FieldDraft   = "draft"
	FieldArchive = "archive"
)

// GetPost reads filePath and returns a record holding each requested field
// present in its frontmatter. Requesting "content" adds the body text, even
// when the frontmatter has its own content key.
func GetPost(fields []string, filePath string) (*Record, error) {
	doc, err := markdown.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	post := NewRecord()
	for _, field := range fields {
		if field == FieldContent {
			post.Set(FieldContent, doc.Content)
			continue
		}
		if v, ok := doc.Metadata[field]; ok {
			post.Set(field, v)
		}
	}
	return post, nil
}

// IndexFilePaths lists every index.mdx file under postsDir. Other .mdx files
// are skipped.
func IndexFilePaths(postsDir string) ([]string, error) {
	files, err := fileutil.ListFiles(postsDir, fileutil.MDXExts)
	if err != nil {
		return nil, err
	}
	paths := files[:0]
	for _, f := range files {
		if filepath.Base(f) == slug.IndexFile {
			paths = append(paths, f)
		}
	}
	return paths, nil
}

// GetAllPosts builds a record for every post under postsDir and attaches its
// slug. The first failure aborts the whole listing.
func GetAllPosts(fields []string, postsDir string) ([]*Record, error) {
	root, err := filepath.Abs(postsDir)
	if err != nil {
		return nil, err
	}
	paths, err := IndexFilePaths(root)
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(paths))
	for _, p := range paths {
		post, err := GetPost(fields, p)
		if err != nil {
			return nil, err
		}
		s, err := slug.FromPath(p, root)
		if err != nil {
			return nil, err
		}
		post.Set(FieldSlug, s)
		records = append(records, post)
	}
	return records, nil
}

// GetPostBySlug loads the single post addressed by s.
func GetPostBySlug(fields []string, s, postsDir string) (*Record, error) {
	root, err := filepath.Abs(postsDir)
	if err != nil {
		return nil, err
	}
	path, err := slug.Resolve(s, root)
	if err != nil {
		return nil, err
	}
	post, err := GetPost(fields, path)
	if err != nil {
		return nil, err
	}
	canonical, err := slug.FromPath(path, root)
	if err != nil {
		return nil, err
	}
	post.Set(FieldSlug, canonical)
	return post, nil
}

// SortBySlug orders records by slug ascending.
func SortBySlug(records []*Record) {
	slices.SortStableFunc(records, func(a, b *Record) int {
		return strings.Compare(a.Slug(), b.Slug())
	})
}

// SortByDate orders records newest first by the date under field. Records
// without a usable date sort last; ties fall back to slug order.
func SortByDate(records []*Record, field string) {
	slices.SortStableFunc(records, func(a, b *Record) int {
		ta, okA := a.Time(field)
		tb, okB := b.Time(field)
		switch {
		case okA && !okB:
			return -1
		case !okA && okB:
			return 1
		case okA && okB && !ta.Equal(tb):
			return tb.Compare(ta)
		}
		return strings.Compare(a.Slug(), b.Slug())
	})
}

// Flags reads the draft and archive flags of r. Missing or non-boolean
// values count as false.
func Flags(r *Record) visibility.Flags {
	return visibility.Flags{Draft: r.Bool(FieldDraft), Archive: r.Bool(FieldArchive)}
}
