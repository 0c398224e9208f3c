// Package slug converts between a post's location under the posts root and
// its public URL slug.
//
// A post lives in its own directory as an index file:
//
//	<root>/2021/some-post/index.mdx  <->  /2021/some-post
package slug

import (
	"path/filepath"
	"strings"

	mdxerrors "github.com/nilszeilon/mdxposts/internal/errors"
)

// IndexFile is the file name that marks a directory as holding one post.
const IndexFile = "index.mdx"

// FromPath derives the slug of the post stored at filePath. filePath must lie
// under postsRoot and name an index file. A post stored directly at the root
// has slug "/".
func FromPath(filePath, postsRoot string) (string, error) {
	clean := filepath.Clean(filePath)
	if filepath.Base(clean) != IndexFile {
		return "", mdxerrors.New(mdxerrors.KindInvalidArgument, "slug", filePath, "not an %s file", IndexFile)
	}
	rel, err := filepath.Rel(filepath.Clean(postsRoot), filepath.Dir(clean))
	if err != nil || escapes(rel) {
		return "", mdxerrors.New(mdxerrors.KindInvalidArgument, "slug", filePath, "not under posts root %s", postsRoot)
	}
	if rel == "." {
		return "/", nil
	}
	return "/" + filepath.ToSlash(rel), nil
}

// ToPath returns the index file path for slug under postsRoot.
func ToPath(slug, postsRoot string) string {
	return filepath.Join(postsRoot, filepath.FromSlash(slug), IndexFile)
}

// Resolve is ToPath for untrusted slugs: it fails if the result would land
// outside postsRoot.
func Resolve(slug, postsRoot string) (string, error) {
	root, err := filepath.Abs(postsRoot)
	if err != nil {
		return "", mdxerrors.FromFS("slug", postsRoot, err)
	}
	full := ToPath(slug, root)
	rel, err := filepath.Rel(root, full)
	if err != nil || escapes(rel) {
		return "", mdxerrors.New(mdxerrors.KindInvalidArgument, "slug", slug, "escapes posts root")
	}
	return full, nil
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Split breaks a slug into its non-empty segments. It never returns nil.
func Split(slug string) []string {
	segments := []string{}
	for _, s := range strings.Split(slug, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// Join is the inverse of Split. The result always starts with "/".
func Join(segments []string) string {
	return "/" + strings.Join(segments, "/")
}

// Canonical normalizes s to a single leading slash with no empty segments
// and no trailing slash (except for "/" itself).
func Canonical(s string) string {
	return Join(Split(s))
}
