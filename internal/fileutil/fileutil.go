package fileutil

import (
	"os"
	"path/filepath"
	"strings"

	mdxerrors "github.com/nilszeilon/mdxposts/internal/errors"
)

// ExtSet is a set of file extensions including the leading dot.
// A nil ExtSet matches every file; an empty non-nil one matches none.
type ExtSet map[string]bool

// Exts builds an ExtSet from the given extensions.
func Exts(exts ...string) ExtSet {
	set := make(ExtSet, len(exts))
	for _, e := range exts {
		set[e] = true
	}
	return set
}

func (s ExtSet) Match(path string) bool {
	if s == nil {
		return true
	}
	return s[filepath.Ext(path)]
}

const MDXExt = ".mdx"

var MDXExts = ExtSet{MDXExt: true}

func IsMDX(path string) bool {
	return filepath.Ext(path) == MDXExt
}

var ImageExts = ExtSet{
	".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".svg": true, ".webp": true, ".avif": true,
}

// IsImage matches ImageExts ignoring case.
func IsImage(path string) bool {
	return ImageExts[strings.ToLower(filepath.Ext(path))]
}

// ListFiles walks root depth-first and returns the absolute path of every
// non-directory entry whose extension is in exts. Entries within a directory
// come back in os.ReadDir order.
func ListFiles(root string, exts ExtSet) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, mdxerrors.FromFS("list", root, err)
	}
	files := []string{}
	if err := collect(abs, exts, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func collect(dir string, exts ExtSet, files *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return mdxerrors.FromFS("list", dir, err)
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if err := collect(path, exts, files); err != nil {
				return err
			}
			continue
		}
		if exts.Match(e.Name()) {
			*files = append(*files, path)
		}
	}
	return nil
}
