// Package config loads mdxposts settings from an optional YAML file, a .env
// file and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	mdxerrors "github.com/nilszeilon/mdxposts/internal/errors"
)

const (
	DefaultPath = "mdxposts.yaml"
	// EnvVar selects the build environment when the config file does not.
	EnvVar = "MDXPOSTS_ENV"

	defaultEnvironment  = "development"
	defaultPostsDir     = "posts"
	defaultOutputDir    = "_site"
	defaultTitle        = "Blog"
	defaultHomePageSize = 5
	defaultPageSize     = 10
)

var defaultFields = []string{"title", "date", "description", "draft", "archive"}

type Config struct {
	PostsDir    string     `yaml:"posts_dir"`
	OutputDir   string     `yaml:"output_dir"`
	Environment string     `yaml:"environment"`
	Site        Site       `yaml:"site"`
	Pagination  Pagination `yaml:"pagination"`
	// Fields are the frontmatter fields loaded for listings.
	Fields []string `yaml:"fields"`
}

type Site struct {
	Title   string `yaml:"title"`
	BaseURL string `yaml:"base_url"`
}

type Pagination struct {
	HomePageSize *int `yaml:"home_page_size"`
	PageSize     int  `yaml:"page_size"`
}

// Load reads the configuration at path. A missing file is only an error when
// path is not DefaultPath; otherwise defaults apply. Variables from .env are
// loaded first without overriding the existing environment, and ${VAR}
// references in the YAML are expanded.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return nil, mdxerrors.Wrap(mdxerrors.KindParse, "config", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
	default:
		return nil, mdxerrors.FromFS("config", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.PostsDir == "" {
		c.PostsDir = defaultPostsDir
	}
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}
	if c.Environment == "" {
		c.Environment = os.Getenv(EnvVar)
	}
	if c.Environment == "" {
		c.Environment = defaultEnvironment
	}
	if c.Site.Title == "" {
		c.Site.Title = defaultTitle
	}
	if c.Pagination.HomePageSize == nil {
		n := defaultHomePageSize
		c.Pagination.HomePageSize = &n
	}
	if c.Pagination.PageSize == 0 {
		c.Pagination.PageSize = defaultPageSize
	}
	if len(c.Fields) == 0 {
		c.Fields = append([]string(nil), defaultFields...)
	}
}

// HomePageSize returns the number of posts listed on the unnumbered first page.
func (c *Config) HomePageSize() int {
	if c.Pagination.HomePageSize == nil {
		return defaultHomePageSize
	}
	return *c.Pagination.HomePageSize
}

func (c *Config) Validate() error {
	if c.HomePageSize() < 0 {
		return mdxerrors.New(mdxerrors.KindInvalidArgument, "config", "", "pagination.home_page_size must be >= 0")
	}
	if c.Pagination.PageSize <= 0 {
		return mdxerrors.New(mdxerrors.KindInvalidArgument, "config", "", "pagination.page_size must be > 0")
	}
	return nil
}
