package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMarkdown = "---\n" +
	"title: Front Title\n" +
	"author: Jane Doe\n" +
	"description: A test document\n" +
	"---\n" +
	"# Heading One\n" +
	"\n" +
	"First paragraph\n" +
	"continues here.\n" +
	"\n" +
	"- item one\n" +
	"- item two\n" +
	"\n" +
	"```go\n" +
	"code line\n" +
	"```\n" +
	"\n" +
	"| Name | Value |\n" +
	"|------|-------|\n" +
	"| a    | 1     |\n"

func TestMarkdownExtractor_ExtractText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sample.md", sampleMarkdown)
	e := NewMarkdownExtractor()

	text, err := e.ExtractText(context.Background(), path)
	require.NoError(t, err)

	assert.Contains(t, text, "Heading One\n\nFirst paragraph continues here.")
	assert.Contains(t, text, "item one\n\nitem two")
	assert.Contains(t, text, "code line")
	assert.Contains(t, text, "Name | Value\n\na | 1")
	assert.NotContains(t, text, "Front Title")
	assert.NotContains(t, text, "author")
	assert.NotContains(t, text, "```")
}

func TestMarkdownExtractor_Metadata_FrontMatter(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sample.md", sampleMarkdown)
	e := NewMarkdownExtractor()

	meta, err := e.Metadata(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Front Title", meta.Title)
	assert.Equal(t, "Jane Doe", meta.Author)
	assert.Equal(t, "A test document", meta.Subject)
	assert.Equal(t, "sample.md", meta.Filename)
	assert.Equal(t, 1, meta.PageCount)
}

func TestMarkdownExtractor_Metadata_Title(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		want     string
	}{
		{name: "h1 wins over earlier h2", filename: "a.md", content: "## Sub\n\ntext\n\n# Main\n", want: "Main"},
		{name: "h2 when no h1", filename: "a.md", content: "text\n\n## Only Sub\n", want: "Only Sub"},
		{name: "filename fallback", filename: "my-notes_file.md", content: "no headings here", want: "My Notes File"},
		{name: "empty file", filename: "empty.markdown", content: "", want: "Empty"},
		{name: "invalid front matter ignored", filename: "b.md", content: "---\ntitle: [unclosed\n---\n# Real\n", want: "Real"},
	}

	e := NewMarkdownExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.filename, tt.content)
			meta, err := e.Metadata(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, meta.Title)
		})
	}
}

func TestSplitFrontMatter(t *testing.T) {
	ctx := context.Background()

	fm, body := splitFrontMatter(ctx, []byte("---\r\ntitle: T\r\n---\r\nbody\r\n"))
	assert.Equal(t, "T", fm.Title)
	assert.Equal(t, "body\n", string(body))

	fm, body = splitFrontMatter(ctx, []byte("no front matter"))
	assert.Empty(t, fm.Title)
	assert.Equal(t, "no front matter", string(body))

	// Unterminated block is treated as content.
	fm, body = splitFrontMatter(ctx, []byte("---\ntitle: T\n"))
	assert.Empty(t, fm.Title)
	assert.Equal(t, "---\ntitle: T\n", string(body))
}
