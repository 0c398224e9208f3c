// Package mdxposts embeds the default theme used to render a posts tree.
package mdxposts

import "embed"

//go:embed templates/*.html templates/style.css
var TemplateFS embed.FS
