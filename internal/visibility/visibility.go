// Package visibility decides which posts are published for a build.
package visibility

// Production is the environment name in which drafts are hidden.
const Production = "production"

// Flags are the publication flags read from a post's frontmatter.
type Flags struct {
	Draft   bool
	Archive bool
}

// IsVisible reports whether a post with flags f is listed when building for
// env. Archived posts are never listed; drafts are hidden in production only.
func IsVisible(f Flags, env string) bool {
	if f.Archive {
		return false
	}
	if f.Draft && env == Production {
		return false
	}
	return true
}

// Filter returns the items whose flags are visible in env, preserving order.
func Filter[T any](items []T, env string, flags func(T) Flags) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if IsVisible(flags(it), env) {
			out = append(out, it)
		}
	}
	return out
}
