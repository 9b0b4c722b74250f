package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-indexer/internal/indexer"
)

func TestIndexCmd_Use(t *testing.T) {
	assert.Equal(t, "index [directory]", indexCmd.Use)
	assert.Equal(t, "index-file <path>...", indexFileCmd.Use)
}

func TestIndexCmd_IndexesDirectory(t *testing.T) {
	fake := &fakeIndexer{dirSummary: indexer.BatchSummary{
		RunID: "run-1",
		Results: []indexer.IndexingResult{
			{DocumentName: "a.txt", Success: true, CharactersExtracted: 120, ChunksCreated: 2, EmbeddingsGenerated: 2, ChunksStored: 2},
		},
		Succeeded:   1,
		TotalChunks: 2,
	}}
	useServices(t, &Services{Indexer: fake, Collection: "knowledge_base"})

	out, err := execute(t, "index", "/docs")

	require.NoError(t, err)
	assert.Equal(t, []string{"/docs"}, fake.dirs)
	assert.Contains(t, out, "Indexing /docs into knowledge_base")
	assert.Contains(t, out, "[ok] a.txt")
	assert.Contains(t, out, "indexed 1/1 documents (0 failed), 2 chunks stored")
	assert.Contains(t, out, "Run: run-1")
}

func TestIndexCmd_DefaultsToDocumentsDir(t *testing.T) {
	fake := &fakeIndexer{}
	useServices(t, &Services{Indexer: fake, DocumentsDir: "./documents"})

	out, err := execute(t, "index")

	require.NoError(t, err)
	assert.Equal(t, []string{"./documents"}, fake.dirs)
	assert.Contains(t, out, "No documents found.")
}

func TestIndexCmd_PartialFailure(t *testing.T) {
	fake := &fakeIndexer{dirSummary: indexer.BatchSummary{
		Results: []indexer.IndexingResult{
			{DocumentName: "a.txt", Success: true, ChunksStored: 1},
			{DocumentName: "b.md", Stage: indexer.StageEmbed, ErrorMessage: "connection refused"},
		},
		Succeeded:   1,
		Failed:      1,
		TotalChunks: 1,
	}}
	useServices(t, &Services{Indexer: fake})

	out, err := execute(t, "index", "/docs")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDocumentsFailed)
	assert.Contains(t, out, "[FAILED] b.md: failed at embed: connection refused")
}

func TestIndexCmd_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fake    *fakeIndexer
		wantErr string
	}{
		{"collection init fails", &fakeIndexer{initErr: errors.New("store down")}, "store down"},
		{"scan fails", &fakeIndexer{dirErr: errors.New("not a directory")}, "indexing failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useServices(t, &Services{Indexer: tt.fake})

			_, err := execute(t, "index", "/docs")

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIndexFileCmd_RequiresArgs(t *testing.T) {
	_, err := execute(t, "index-file")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestIndexFileCmd_IndexesPaths(t *testing.T) {
	fake := &fakeIndexer{docSummary: indexer.BatchSummary{
		Results: []indexer.IndexingResult{
			{DocumentName: "a.txt", Success: true},
			{DocumentName: "b.txt", Success: true},
		},
		Succeeded: 2,
	}}
	useServices(t, &Services{Indexer: fake})

	out, err := execute(t, "index-file", "a.txt", "b.txt")

	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, fake.paths)
	assert.Contains(t, out, "indexed 2/2 documents")
}
