package site

import (
	"html/template"
	"io/fs"
)

// Theme holds the parsed page templates and stylesheet of a site.
type Theme struct {
	templates *template.Template
	styleCSS  []byte
}

// LoadTheme parses *.html templates and style.css from fsys. It needs
// index.html (listing pages) and post.html (single posts).
func LoadTheme(fsys fs.FS) (*Theme, error) {
	tmpl, err := template.ParseFS(fsys, "*.html")
	if err != nil {
		return nil, err
	}
	css, err := fs.ReadFile(fsys, "style.css")
	if err != nil {
		return nil, err
	}
	return &Theme{templates: tmpl, styleCSS: css}, nil
}

type PostSummary struct {
	Title       string
	URL         string
	DateStr     string
	Description string
}

// ListingData renders one page of the post listing.
type ListingData struct {
	SiteTitle string
	Intro     template.HTML
	Posts     []PostSummary
	PageNum   int
	PrevURL   string
	NextURL   string
}

type PostData struct {
	SiteTitle    string
	Title        string
	DateStr      string
	Description  string
	CanonicalURL string
	Content      template.HTML
}
