package extract

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"knowledge-indexer/internal/contextutil"
)

// MarkdownExtractor converts markdown documents to plain text using goldmark AST parsing.
// Every block (heading, paragraph, list item, code block, table row) becomes its own
// paragraph in the output. A leading YAML front matter block is parsed for metadata
// and excluded from the text.
type MarkdownExtractor struct {
	parser goldmark.Markdown
}

// NewMarkdownExtractor creates a new markdown extractor.
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

type frontMatter struct {
	Title       string `yaml:"title"`
	Author      string `yaml:"author"`
	Subject     string `yaml:"subject"`
	Description string `yaml:"description"`
}

// ExtractText returns the document's text, one paragraph per markdown block.
func (e *MarkdownExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	content, _, err := readFile(ctx, path)
	if err != nil {
		return "", err
	}

	_, body := splitFrontMatter(ctx, content)
	doc := e.parser.Parser().Parse(text.NewReader(body))
	result := CleanText(strings.Join(blockTexts(doc, body), "\n\n"))

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "extracted markdown", "path", path, "words", len(strings.Fields(result)))
	return result, nil
}

// Metadata returns file metadata. The title comes from front matter, then the first
// level 1 heading, then the first level 2 heading, then the file name.
func (e *MarkdownExtractor) Metadata(ctx context.Context, path string) (DocumentMetadata, error) {
	content, info, err := readFile(ctx, path)
	if err != nil {
		return DocumentMetadata{}, err
	}

	meta := baseMetadata(path, info)
	fm, body := splitFrontMatter(ctx, content)

	meta.Author = fm.Author
	meta.Subject = fm.Subject
	if meta.Subject == "" {
		meta.Subject = fm.Description
	}

	if fm.Title != "" {
		meta.Title = fm.Title
		return meta, nil
	}
	doc := e.parser.Parser().Parse(text.NewReader(body))
	meta.Title = extractTitle(doc, body, info.Name())
	return meta, nil
}

// splitFrontMatter separates a leading "---" YAML block from the markdown body.
// Content without valid front matter is returned unchanged.
func splitFrontMatter(ctx context.Context, content []byte) (frontMatter, []byte) {
	var fm frontMatter

	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return fm, content
	}

	rest := normalized[len("---\n"):]
	end := -1
	offset := 0
	for _, line := range bytes.SplitAfter(rest, []byte("\n")) {
		trimmed := bytes.TrimRight(line, "\n")
		if bytes.Equal(trimmed, []byte("---")) || bytes.Equal(trimmed, []byte("...")) {
			end = offset
			break
		}
		offset += len(line)
	}
	if end < 0 {
		return fm, content
	}

	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "ignoring invalid front matter", "error", err)
		return frontMatter{}, content
	}

	body := rest[end:]
	if idx := bytes.IndexByte(body, '\n'); idx >= 0 {
		body = body[idx+1:]
	} else {
		body = nil
	}
	return fm, body
}

// blockTexts walks the AST and returns the text of each leaf block in document order.
func blockTexts(doc ast.Node, content []byte) []string {
	var blocks []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			blocks = append(blocks, s)
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			add(extractTextFromNode(node, content))
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			add(linesText(node, content))
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *extast.TableHeader, *extast.TableRow:
			add(extractTableRowText(node, content))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return blocks
}

// extractTitle finds the first level 1 heading, falling back to the first level 2
// heading and then to the filename.
func extractTitle(doc ast.Node, content []byte, filename string) string {
	var firstH1, firstH2 string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if heading, ok := n.(*ast.Heading); ok {
			headingText := extractTextFromNode(heading, content)
			if heading.Level == 1 && firstH1 == "" {
				firstH1 = headingText
				return ast.WalkStop, nil
			}
			if heading.Level == 2 && firstH2 == "" {
				firstH2 = headingText
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	if firstH1 != "" {
		return firstH1
	}
	if firstH2 != "" {
		return firstH2
	}
	return titleFromFilename(filename)
}

// titleFromFilename drops the extension, turns separators into spaces and capitalises each word.
func titleFromFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// extractTextFromNode extracts inline text from a node and its children.
// Soft and hard line breaks become spaces.
func extractTextFromNode(n ast.Node, content []byte) string {
	var sb strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(content))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(sb.String())
}

// linesText returns the raw lines of a code block.
func linesText(n ast.Node, content []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(content))
	}
	return sb.String()
}

// extractTableRowText extracts text from a table row, formatting cells with pipe separators.
func extractTableRowText(row ast.Node, content []byte) string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cells = append(cells, extractTextFromNode(c, content))
	}
	return strings.Join(cells, " | ")
}
