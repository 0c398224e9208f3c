package site

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/inful/mdfp"
	"github.com/natefinch/atomic"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	mdxerrors "github.com/nilszeilon/mdxposts/internal/errors"
	"github.com/nilszeilon/mdxposts/internal/fileutil"
	"github.com/nilszeilon/mdxposts/internal/pagination"
	"github.com/nilszeilon/mdxposts/internal/posts"
	"github.com/nilszeilon/mdxposts/internal/slug"
	"github.com/nilszeilon/mdxposts/internal/visibility"
)

const (
	fieldTitle       = "title"
	fieldDescription = "description"

	styleFile      = "style.css"
	postsIndexFile = "posts.json"
	stagePrefix    = ".staging-"
)

// Options configures a Builder.
type Options struct {
	PostsDir     string
	OutDir       string
	Environment  string
	SiteTitle    string
	// BaseURL, when set, prefixes post URLs in posts.json and canonical links.
	BaseURL      string
	Fields       []string
	HomePageSize int
	PageSize     int
}

// Result summarizes one build.
type Result struct {
	Posts  int
	Hidden int
	Pages  int
}

// Builder renders a posts tree into a static, paginated blog.
type Builder struct {
	mu     sync.Mutex
	opts   Options
	theme  *Theme
	md     goldmark.Markdown
	titler cases.Caser
	log    *slog.Logger
}

func NewBuilder(opts Options, theme *Theme, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		opts:  opts,
		theme: theme,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
		titler: cases.Title(language.English),
		log:    logger,
	}
}

// Build regenerates the whole output directory. Pages are rendered into a
// staging directory first; the previous output is only replaced once every
// page has been written.
func (b *Builder) Build() (*Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	out, err := b.outputDir()
	if err != nil {
		return nil, err
	}

	records, err := posts.GetAllPosts(b.fields(), b.opts.PostsDir)
	if err != nil {
		return nil, fmt.Errorf("collect posts: %w", err)
	}

	// The root-level post, if any, becomes the home page intro.
	var intro *posts.Record
	listed := records[:0]
	for _, r := range records {
		if r.Slug() == "/" {
			intro = r
			continue
		}
		listed = append(listed, r)
	}
	if intro != nil && !visibility.IsVisible(posts.Flags(intro), b.opts.Environment) {
		b.log.Debug("Home intro hidden", "env", b.opts.Environment)
		intro = nil
	}

	visible := visibility.Filter(listed, b.opts.Environment, posts.Flags)
	posts.SortByDate(visible, posts.FieldDate)
	res := &Result{Posts: len(visible), Hidden: len(listed) - len(visible)}
	b.log.Debug("Collected posts", "total", len(records), "visible", len(visible), "env", b.opts.Environment)

	params := pagination.Params{
		TotalPosts:        len(visible),
		FirstPageCapacity: b.opts.HomePageSize,
		PageCapacity:      b.opts.PageSize,
	}
	pages, err := pagination.Plan(params)
	if err != nil {
		return nil, err
	}
	if err := checkCollisions(visible, pages); err != nil {
		return nil, err
	}
	res.Pages = len(pages)

	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	stage, err := os.MkdirTemp(out, stagePrefix)
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(stage)

	for _, r := range visible {
		if err := b.buildPostPage(stage, r); err != nil {
			return nil, fmt.Errorf("build page %s: %w", r.Slug(), err)
		}
	}

	var introHTML template.HTML
	if intro != nil {
		if introHTML, err = b.render(intro.String(posts.FieldContent)); err != nil {
			return nil, fmt.Errorf("render home intro: %w", err)
		}
	}
	for _, p := range pages {
		if err := b.buildListingPage(stage, p, len(pages), params, visible, introHTML); err != nil {
			return nil, fmt.Errorf("build listing page %d: %w", p.Number(), err)
		}
	}

	if err := b.writeFile(filepath.Join(stage, styleFile), b.theme.styleCSS); err != nil {
		return nil, fmt.Errorf("write css: %w", err)
	}
	if err := b.buildPostsIndex(stage, visible); err != nil {
		return nil, fmt.Errorf("build posts index: %w", err)
	}

	if err := swapInto(out, stage); err != nil {
		return nil, fmt.Errorf("publish output: %w", err)
	}

	b.log.Info("Site built", "posts", res.Posts, "hidden", res.Hidden, "pages", res.Pages,
		"out", out, "duration", time.Since(start).Round(time.Millisecond))
	return res, nil
}

// outputDir resolves the output directory. It must not overlap the posts
// tree, since each build empties it.
func (b *Builder) outputDir() (string, error) {
	out, err := filepath.Abs(b.opts.OutDir)
	if err != nil {
		return "", err
	}
	src, err := filepath.Abs(b.opts.PostsDir)
	if err != nil {
		return "", err
	}
	if within(src, out) || within(out, src) {
		return "", mdxerrors.New(mdxerrors.KindInvalidArgument, "build", out,
			"output directory overlaps posts directory %s", src)
	}
	return out, nil
}

// within reports whether p is parent or lies below it.
func within(parent, p string) bool {
	rel, err := filepath.Rel(parent, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// checkCollisions fails when a post would be written where a listing page or
// a site file goes.
func checkCollisions(visible []*posts.Record, pages []pagination.Page) error {
	reserved := map[string]bool{styleFile: true, postsIndexFile: true}
	for _, p := range pages {
		reserved[strings.TrimPrefix(pageURL(p.Number()), "/")+"index.html"] = true
	}
	for _, r := range visible {
		dir := strings.TrimPrefix(r.Slug(), "/")
		if reserved[dir] || reserved[dir+"/index.html"] {
			return mdxerrors.New(mdxerrors.KindInvalidArgument, "build", r.Slug(),
				"post collides with generated file %s", dir)
		}
	}
	return nil
}

// swapInto replaces the contents of out with the contents of stage, which
// lives inside out. The directory out itself is kept since it may be a
// mount point.
func swapInto(out, stage string) error {
	entries, err := os.ReadDir(out)
	if err != nil {
		return err
	}
	for _, e := range entries {
		p := filepath.Join(out, e.Name())
		if p == stage {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	staged, err := os.ReadDir(stage)
	if err != nil {
		return err
	}
	for _, e := range staged {
		if err := os.Rename(filepath.Join(stage, e.Name()), filepath.Join(out, e.Name())); err != nil {
			return err
		}
	}
	return os.Remove(stage)
}

// fields is the configured listing fields plus what the builder itself reads.
func (b *Builder) fields() []string {
	fields := append([]string(nil), b.opts.Fields...)
	for _, f := range []string{fieldTitle, posts.FieldDate, fieldDescription, posts.FieldDraft, posts.FieldArchive, posts.FieldContent} {
		if !slices.Contains(fields, f) {
			fields = append(fields, f)
		}
	}
	return fields
}

func (b *Builder) title(r *posts.Record) string {
	if t := r.String(fieldTitle); t != "" {
		return t
	}
	segs := slug.Split(r.Slug())
	if len(segs) == 0 {
		return b.opts.SiteTitle
	}
	last := strings.NewReplacer("-", " ", "_", " ").Replace(segs[len(segs)-1])
	return b.titler.String(last)
}

func dateString(r *posts.Record) string {
	if t, ok := r.Time(posts.FieldDate); ok {
		return t.Format("2006-01-02")
	}
	return ""
}

func (b *Builder) render(body string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := b.md.Convert([]byte(body), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func (b *Builder) buildPostPage(dir string, r *posts.Record) error {
	content, err := b.render(r.String(posts.FieldContent))
	if err != nil {
		return err
	}
	data := PostData{
		SiteTitle:   b.opts.SiteTitle,
		Title:       b.title(r),
		DateStr:     dateString(r),
		Description: r.String(fieldDescription),
		Content:     content,
	}
	if b.opts.BaseURL != "" {
		data.CanonicalURL = b.absURL(r.Slug())
	}

	pageDir := filepath.Join(dir, filepath.FromSlash(r.Slug()))
	if err := b.executeTemplate(filepath.Join(pageDir, "index.html"), "post.html", data); err != nil {
		return err
	}
	return b.copyAssets(r, pageDir)
}

// copyAssets copies images stored next to a post's index file into the
// post's output directory so relative references keep working.
func (b *Builder) copyAssets(r *posts.Record, pageDir string) error {
	srcDir := filepath.Dir(slug.ToPath(r.Slug(), b.opts.PostsDir))
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !fileutil.IsImage(e.Name()) {
			continue
		}
		if err := copyFile(filepath.Join(srcDir, e.Name()), filepath.Join(pageDir, e.Name())); err != nil {
			return fmt.Errorf("copy asset %s: %w", e.Name(), err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	return atomic.WriteFile(dst, f)
}

func pageURL(n int) string {
	if n <= 0 {
		return "/"
	}
	return "/page/" + strconv.Itoa(n) + "/"
}

func (b *Builder) buildListingPage(dir string, p pagination.Page, pageCount int, params pagination.Params, visible []*posts.Record, intro template.HTML) error {
	n := p.Number()
	start, end := pagination.Window(params, n)

	data := ListingData{SiteTitle: b.opts.SiteTitle, PageNum: n}
	if n == 0 {
		data.Intro = intro
	} else {
		data.PrevURL = pageURL(n - 1)
	}
	if n+1 < pageCount {
		data.NextURL = pageURL(n + 1)
	}
	for _, r := range visible[start:end] {
		data.Posts = append(data.Posts, PostSummary{
			Title:       b.title(r),
			URL:         r.Slug(),
			DateStr:     dateString(r),
			Description: r.String(fieldDescription),
		})
	}

	out := filepath.Join(dir, filepath.FromSlash(pageURL(n)), "index.html")
	return b.executeTemplate(out, "index.html", data)
}

type indexEntry struct {
	Slug        string        `json:"slug"`
	URL         string        `json:"url"`
	Title       string        `json:"title"`
	Date        string        `json:"date,omitempty"`
	Fingerprint string        `json:"fingerprint"`
	Fields      *posts.Record `json:"fields"`
}

// buildPostsIndex writes posts.json: one entry per listed post with its
// configured fields and a fingerprint of frontmatter and body.
func (b *Builder) buildPostsIndex(dir string, visible []*posts.Record) error {
	entries := make([]indexEntry, 0, len(visible))
	for _, r := range visible {
		fp, err := fingerprint(r)
		if err != nil {
			return fmt.Errorf("fingerprint %s: %w", r.Slug(), err)
		}
		entries = append(entries, indexEntry{
			Slug:        r.Slug(),
			URL:         b.absURL(r.Slug()),
			Title:       b.title(r),
			Date:        dateString(r),
			Fingerprint: fp,
			Fields:      b.listingFields(r),
		})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return b.writeFile(filepath.Join(dir, postsIndexFile), data)
}

// absURL prefixes a site path with the configured base URL.
func (b *Builder) absURL(path string) string {
	if b.opts.BaseURL == "" {
		return path
	}
	return strings.TrimSuffix(b.opts.BaseURL, "/") + path
}

// listingFields narrows r to the configured listing fields.
func (b *Builder) listingFields(r *posts.Record) *posts.Record {
	out := posts.NewRecord()
	for _, f := range b.opts.Fields {
		if v, ok := r.Get(f); ok {
			out.Set(f, v)
		}
	}
	return out
}

func fingerprint(r *posts.Record) (string, error) {
	meta := r.Map()
	delete(meta, posts.FieldContent)
	delete(meta, posts.FieldSlug)
	fm := ""
	if len(meta) > 0 {
		out, err := yaml.Marshal(meta)
		if err != nil {
			return "", err
		}
		fm = strings.TrimSuffix(string(out), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(fm, r.String(posts.FieldContent)), nil
}

func (b *Builder) executeTemplate(path, name string, data any) error {
	var buf bytes.Buffer
	if err := b.theme.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	return b.writeFile(path, buf.Bytes())
}

func (b *Builder) writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}
