package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os/signal"
	"slices"
	"syscall"

	"github.com/nilszeilon/mdxposts"
	"github.com/nilszeilon/mdxposts/internal/config"
	"github.com/nilszeilon/mdxposts/internal/pagination"
	"github.com/nilszeilon/mdxposts/internal/posts"
	"github.com/nilszeilon/mdxposts/internal/site"
	"github.com/nilszeilon/mdxposts/internal/visibility"
)

// ListCmd implements the 'posts' command.
type ListCmd struct {
	Fields  []string `short:"f" help:"Frontmatter fields to include (content for the body); defaults to the configured fields"`
	Sort    string   `help:"Sort order" enum:"slug,date,none" default:"slug"`
	Visible bool     `help:"Only include posts visible in the build environment"`
}

func (c *ListCmd) Run(root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	fields := c.Fields
	if len(fields) == 0 {
		fields = cfg.Fields
	}
	load := fields
	if c.Sort == "date" || c.Visible {
		load = withFields(fields, posts.FieldDate, posts.FieldDraft, posts.FieldArchive)
	}

	records, err := posts.GetAllPosts(load, cfg.PostsDir)
	if err != nil {
		return err
	}
	if c.Visible {
		records = visibility.Filter(records, cfg.Environment, posts.Flags)
	}
	switch c.Sort {
	case "slug":
		posts.SortBySlug(records)
	case "date":
		posts.SortByDate(records, posts.FieldDate)
	}
	// Drop the fields loaded only for filtering or sorting.
	for _, f := range load[len(fields):] {
		for _, r := range records {
			r.Delete(f)
		}
	}
	slog.Debug("Listed posts", "count", len(records), "dir", cfg.PostsDir)
	return root.printJSON(records)
}

// ShowCmd implements the 'show' command.
type ShowCmd struct {
	Slug   string   `arg:"" help:"Post slug, e.g. /2021/some-post"`
	Fields []string `short:"f" help:"Frontmatter fields to include (content for the body)" default:"title,date,content"`
}

func (c *ShowCmd) Run(root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	post, err := posts.GetPostBySlug(c.Fields, c.Slug, cfg.PostsDir)
	if err != nil {
		return err
	}
	return root.printJSON(post)
}

// PagesCmd implements the 'pages' command.
type PagesCmd struct {
	Total int `help:"Number of posts to paginate; negative counts the visible posts" default:"-1"`
}

func (c *PagesCmd) Run(root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	total := c.Total
	if total < 0 {
		records, err := posts.GetAllPosts([]string{posts.FieldDraft, posts.FieldArchive}, cfg.PostsDir)
		if err != nil {
			return err
		}
		total = len(visibility.Filter(records, cfg.Environment, posts.Flags))
	}
	pages, err := pagination.Plan(pagination.Params{
		TotalPosts:        total,
		FirstPageCapacity: cfg.HomePageSize(),
		PageCapacity:      cfg.Pagination.PageSize,
	})
	if err != nil {
		return err
	}
	return root.printJSON(pages)
}

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory (overrides output_dir)"`
}

func (c *BuildCmd) Run(root *CLI) error {
	b, err := root.newBuilder(c.Output)
	if err != nil {
		return err
	}
	_, err = b.Build()
	return err
}

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output string `short:"o" help:"Output directory (overrides output_dir)"`
}

func (c *WatchCmd) Run(root *CLI) error {
	b, err := root.newBuilder(c.Output)
	if err != nil {
		return err
	}
	if _, err := b.Build(); err != nil {
		slog.Error("Initial build failed", "error", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return b.Watch(ctx)
}

func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.Posts != "" {
		cfg.PostsDir = c.Posts
	}
	if c.Env != "" {
		cfg.Environment = c.Env
	}
	return cfg, nil
}

func (c *CLI) newBuilder(output string) (*site.Builder, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if output != "" {
		cfg.OutputDir = output
	}
	sub, err := fs.Sub(mdxposts.TemplateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template fs: %w", err)
	}
	theme, err := site.LoadTheme(sub)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	slog.Debug("Configuration loaded", "posts", cfg.PostsDir, "out", cfg.OutputDir, "env", cfg.Environment)
	return site.NewBuilder(site.Options{
		PostsDir:     cfg.PostsDir,
		OutDir:       cfg.OutputDir,
		Environment:  cfg.Environment,
		SiteTitle:    cfg.Site.Title,
		BaseURL:      cfg.Site.BaseURL,
		Fields:       cfg.Fields,
		HomePageSize: cfg.HomePageSize(),
		PageSize:     cfg.Pagination.PageSize,
	}, theme, slog.Default()), nil
}

func (c *CLI) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withFields appends each of extra missing from fields, keeping fields
// itself as the prefix of the result.
func withFields(fields []string, extra ...string) []string {
	out := append([]string(nil), fields...)
	for _, f := range extra {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
