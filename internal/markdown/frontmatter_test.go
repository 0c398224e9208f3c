package markdown

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	mdxerrors "github.com/nilszeilon/mdxposts/internal/errors"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	block, body, format, err := Split(input)
	require.NoError(t, err)
	require.Equal(t, FormatNone, format)
	require.Nil(t, block)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsBlockAndBody(t *testing.T) {
	block, body, format, err := Split([]byte("---\ntitle: Hi\n---\n\n# Title\n"))
	require.NoError(t, err)
	require.Equal(t, FormatYAML, format)
	require.Equal(t, "title: Hi\n", string(block))
	require.Equal(t, "\n# Title\n", string(body))
}

func TestSplit_CRLF_SplitsBlockAndBody(t *testing.T) {
	block, body, _, err := Split([]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.Equal(t, "key: value\r\n", string(block))
	require.Equal(t, "# Title\r\n", string(body))
}

func TestSplit_ClosingDelimiterAtEOF_EmptyBody(t *testing.T) {
	block, body, _, err := Split([]byte("---\ntitle: x\n---"))
	require.NoError(t, err)
	require.Equal(t, "title: x\n", string(block))
	require.Empty(t, body)
}

func TestSplit_EmptyBlock_SplitsWithEmptyBlock(t *testing.T) {
	block, body, format, err := Split([]byte("---\n---\nbody"))
	require.NoError(t, err)
	require.Equal(t, FormatYAML, format)
	require.Empty(t, block)
	require.Equal(t, "body", string(body))
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	for _, input := range []string{"---\ntitle: x\n# body\n", "---", "---\n", "---\ntitle: x\n----\n"} {
		_, _, _, err := Split([]byte(input))
		require.ErrorIs(t, err, ErrMissingClosingDelimiter, "input %q", input)
	}
}

func TestSplit_DashesNotOnFirstLine_IsBody(t *testing.T) {
	input := []byte("\n---\ntitle: x\n---\n")
	_, body, format, err := Split(input)
	require.NoError(t, err)
	require.Equal(t, FormatNone, format)
	require.Equal(t, input, body)
}

func TestSplit_TOMLDelimiters_DetectsTOML(t *testing.T) {
	block, body, format, err := Split([]byte("+++\ntitle = \"Hi\"\n+++\nbody\n"))
	require.NoError(t, err)
	require.Equal(t, FormatTOML, format)
	require.Equal(t, "title = \"Hi\"\n", string(block))
	require.Equal(t, "body\n", string(body))

	_, _, format, err = Split([]byte("---toml\ntitle = \"Hi\"\n---\n"))
	require.NoError(t, err)
	require.Equal(t, FormatTOML, format)
}

func TestParse_YAMLValueTypes_PreservesNativeTypes(t *testing.T) {
	src := []byte(`---
title: Hello
views: 42
rating: 4.5
draft: true
date: 2021-03-04
quoted: "2021-03-04"
tags:
  - go
  - mdx
author:
  name: Ada
  links: [a, b]
---
Body
`)
	doc, err := Parse(src)
	require.NoError(t, err)

	require.Equal(t, "Hello", doc.Metadata["title"])
	require.Equal(t, 42, doc.Metadata["views"])
	require.Equal(t, 4.5, doc.Metadata["rating"])
	require.Equal(t, true, doc.Metadata["draft"])
	require.Equal(t, time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), doc.Metadata["date"])
	require.Equal(t, "2021-03-04", doc.Metadata["quoted"])
	require.Equal(t, []any{"go", "mdx"}, doc.Metadata["tags"])
	require.Equal(t, map[string]any{"name": "Ada", "links": []any{"a", "b"}}, doc.Metadata["author"])
	require.Equal(t, "Body\n", doc.Content)
}

func TestParse_AnchorsAndMergeKeys_Resolved(t *testing.T) {
	src := []byte("---\nbase: &b\n  lang: en\n  kind: post\nmeta:\n  <<: *b\n  kind: note\n---\n")
	doc, err := Parse(src)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"lang": "en", "kind": "note"}, doc.Metadata["meta"])
}

func TestParse_NoFrontmatter_EmptyMetadataWholeContent(t *testing.T) {
	doc, err := Parse([]byte("  just text\n"))
	require.NoError(t, err)
	require.Empty(t, doc.Metadata)
	require.NotNil(t, doc.Metadata)
	require.Equal(t, "  just text\n", doc.Content)
}

func TestParse_CommentOnlyBlock_EmptyMetadata(t *testing.T) {
	doc, err := Parse([]byte("---\n# nothing here\n---\ntext"))
	require.NoError(t, err)
	require.Empty(t, doc.Metadata)
	require.Equal(t, "text", doc.Content)
}

func TestParse_InvalidYAML_ReturnsParseError(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: [unclosed\n---\n"))
	require.True(t, errors.Is(err, mdxerrors.ErrParse))
}

func TestParse_NonMappingBlock_ReturnsParseError(t *testing.T) {
	_, err := Parse([]byte("---\n- a\n- b\n---\n"))
	require.True(t, errors.Is(err, mdxerrors.ErrParse))
}

func TestParse_Unterminated_ReturnsParseError(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: x\n"))
	require.True(t, errors.Is(err, mdxerrors.ErrParse))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func TestParse_DuplicateKey_ReturnsParseError(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: a\ntitle: b\n---\nbody"))
	require.Error(t, err)
	require.True(t, errors.Is(err, mdxerrors.ErrParse))
	require.Contains(t, err.Error(), `line 2: duplicate key "title"`)

	_, err = Parse([]byte("---\nauthor:\n  name: a\n  name: b\n---\n"))
	require.True(t, errors.Is(err, mdxerrors.ErrParse))
}

func TestParse_MergeKeyThenExplicitKey_ExplicitWins(t *testing.T) {
	doc, err := Parse([]byte("---\nbase: &b\n  title: base\npost:\n  <<: *b\n  title: own\n---\n"))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"title": "own"}, doc.Metadata["post"])
}

func TestParse_InvalidUTF8_ReturnsParseError(t *testing.T) {
	_, err := Parse([]byte{0xff, 0xfe, 'a'})
	require.True(t, errors.Is(err, mdxerrors.ErrParse))
}

func TestParse_BOM_IsStripped(t *testing.T) {
	doc, err := Parse(append([]byte{0xEF, 0xBB, 0xBF}, []byte("---\ntitle: x\n---\nb")...))
	require.NoError(t, err)
	require.Equal(t, "x", doc.Metadata["title"])
	require.Equal(t, "b", doc.Content)
}

func TestParse_TOML_DecodesTables(t *testing.T) {
	doc, err := Parse([]byte("+++\ntitle = \"Hi\"\ndraft = false\n[author]\nname = \"Ada\"\n+++\nbody"))
	require.NoError(t, err)
	require.Equal(t, "Hi", doc.Metadata["title"])
	require.Equal(t, false, doc.Metadata["draft"])
	require.Equal(t, map[string]any{"name": "Ada"}, doc.Metadata["author"])
	require.Equal(t, "body", doc.Content)
}

func TestParse_InvalidTOML_ReturnsParseError(t *testing.T) {
	_, err := Parse([]byte("+++\ntitle = \n+++\n"))
	require.True(t, errors.Is(err, mdxerrors.ErrParse))
}

func TestReadFile_ReadsDocumentAndReportsPath(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.mdx")
	bad := filepath.Join(dir, "bad.mdx")
	require.NoError(t, os.WriteFile(good, []byte("---\ntitle: Hi\n---\ncontent"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("---\ntitle: Hi\n"), 0o644))

	doc, err := ReadFile(good)
	require.NoError(t, err)
	require.Equal(t, "Hi", doc.Metadata["title"])
	require.Equal(t, "content", doc.Content)

	_, err = ReadFile(bad)
	require.Error(t, err)
	require.Contains(t, err.Error(), bad)

	_, err = ReadFile(filepath.Join(dir, "missing.mdx"))
	require.True(t, errors.Is(err, mdxerrors.ErrNotFound))
}
