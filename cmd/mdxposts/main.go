package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	mdxerrors "github.com/nilszeilon/mdxposts/internal/errors"
)

type CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"mdxposts.yaml"`
	Posts   string `short:"p" help:"Posts directory (overrides posts_dir)"`
	Env     string `short:"e" help:"Build environment, e.g. production (overrides environment and MDXPOSTS_ENV)"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	List  ListCmd  `cmd:"" name:"posts" help:"Print post records as JSON"`
	Show  ShowCmd  `cmd:"" help:"Print a single post, addressed by slug, as JSON"`
	Pages PagesCmd `cmd:"" help:"Print the listing pagination plan as JSON"`
	Build BuildCmd `cmd:"" help:"Render the posts into a static site"`
	Watch WatchCmd `cmd:"" help:"Build, then rebuild whenever posts change"`

	out io.Writer `kong:"-"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func run(args []string, stdout io.Writer) error {
	cli := CLI{out: stdout}
	parser, err := kong.New(&cli,
		kong.Name("mdxposts"),
		kong.Description("Read a tree of MDX posts, list them, plan pagination and build a static blog."),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return mdxerrors.Wrap(mdxerrors.KindInvalidArgument, "cli", "", err)
	}
	return ctx.Run(&cli)
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(mdxerrors.ExitCode(err))
	}
}
