package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	mdxerrors "github.com/nilszeilon/mdxposts/internal/errors"
)

// Format identifies the language of a frontmatter block.
type Format string

const (
	FormatNone Format = ""
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

const (
	yamlDelimiter = "---"
	tomlDelimiter = "+++"
)

// ErrMissingClosingDelimiter indicates the document opened a frontmatter block
// but never closed it.
var ErrMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is a parsed post file.
type Document struct {
	Metadata map[string]any
	Content  string
}

// ReadFile reads a post from disk and splits it into metadata and content.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mdxerrors.FromFS("read", path, err)
	}
	return parse(data, path)
}

// Parse splits source into metadata and content. See Split for the block syntax.
func Parse(source []byte) (*Document, error) {
	return parse(source, "")
}

func parse(source []byte, path string) (*Document, error) {
	if !utf8.Valid(source) {
		return nil, mdxerrors.New(mdxerrors.KindParse, "frontmatter", path, "file is not valid UTF-8")
	}
	block, body, format, err := Split(bytes.TrimPrefix(source, utf8BOM))
	if err != nil {
		return nil, mdxerrors.Wrap(mdxerrors.KindParse, "frontmatter", path, err)
	}

	var meta map[string]any
	switch format {
	case FormatYAML:
		meta, err = ParseYAML(block)
	case FormatTOML:
		meta, err = ParseTOML(block)
	default:
		meta = map[string]any{}
	}
	if err != nil {
		return nil, mdxerrors.Wrap(mdxerrors.KindParse, "frontmatter", path, err)
	}
	return &Document{Metadata: meta, Content: string(body)}, nil
}

// Split separates a leading frontmatter block from the body.
//
// The first line must be the delimiter: `---` (optionally `---yaml` or
// `---toml`) or `+++` for TOML. The block ends at the next line consisting of
// the same delimiter; the body starts after that line's newline. LF and CRLF
// line endings are both accepted. If the document does not open a block,
// format is FormatNone and body is the full input.
func Split(content []byte) (block []byte, body []byte, format Format, err error) {
	first, next := line(content, 0)
	delim, format := openDelimiter(first)
	if format == FormatNone {
		return nil, content, FormatNone, nil
	}
	if next == len(content) && !bytes.HasSuffix(content, []byte("\n")) {
		return nil, nil, FormatNone, ErrMissingClosingDelimiter
	}

	for i := next; i < len(content); {
		l, after := line(content, i)
		if string(l) == delim {
			return content[next:i], content[after:], format, nil
		}
		i = after
	}
	return nil, nil, FormatNone, ErrMissingClosingDelimiter
}

// line returns the line starting at i without its terminator, and the index
// of the following line.
func line(content []byte, i int) ([]byte, int) {
	j := bytes.IndexByte(content[i:], '\n')
	if j < 0 {
		return bytes.TrimSuffix(content[i:], []byte("\r")), len(content)
	}
	return bytes.TrimSuffix(content[i:i+j], []byte("\r")), i + j + 1
}

func openDelimiter(first []byte) (string, Format) {
	switch string(first) {
	case yamlDelimiter, yamlDelimiter + "yaml", yamlDelimiter + "yml":
		return yamlDelimiter, FormatYAML
	case yamlDelimiter + "toml":
		return yamlDelimiter, FormatTOML
	case tomlDelimiter:
		return tomlDelimiter, FormatTOML
	}
	return "", FormatNone
}

// ParseYAML parses a raw YAML block (without delimiters) into a map.
// Timestamps decode to time.Time, nested mappings to map[string]any and
// sequences to []any. Duplicate keys are an error; line numbers in errors
// count from the start of the block.
func ParseYAML(block []byte) (map[string]any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(block, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return map[string]any{}, nil
	}
	doc := root.Content[0]
	if doc.Kind == yaml.ScalarNode && doc.ShortTag() == "!!null" {
		return map[string]any{}, nil
	}
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("frontmatter must be a mapping, got %s", doc.ShortTag())
	}
	v, err := nodeValue(doc)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		// Keys set explicitly in this mapping; merged keys may be overridden.
		seen := make(map[string]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, valNode := n.Content[i], n.Content[i+1]
			val, err := nodeValue(valNode)
			if err != nil {
				return nil, err
			}
			if key.ShortTag() == "!!merge" {
				mergeInto(m, val)
				continue
			}
			if line, dup := seen[key.Value]; dup {
				return nil, fmt.Errorf("line %d: duplicate key %q (first defined on line %d)", key.Line, key.Value, line)
			}
			seen[key.Value] = key.Line
			m[key.Value] = val
		}
		return m, nil
	case yaml.SequenceNode:
		seq := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			seq = append(seq, val)
		}
		return seq, nil
	case yaml.ScalarNode:
		if n.ShortTag() == "!!timestamp" {
			var t time.Time
			if err := n.Decode(&t); err != nil {
				return nil, err
			}
			return t, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported yaml node", n.Line)
}

// mergeInto applies a `<<` merge key. Explicit keys already set win.
func mergeInto(dst map[string]any, src any) {
	switch s := src.(type) {
	case map[string]any:
		for k, v := range s {
			if _, ok := dst[k]; !ok {
				dst[k] = v
			}
		}
	case []any:
		for _, item := range s {
			mergeInto(dst, item)
		}
	}
}

// ParseTOML parses a raw TOML block (without delimiters) into a map.
func ParseTOML(block []byte) (map[string]any, error) {
	fields := map[string]any{}
	if err := toml.Unmarshal(block, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
