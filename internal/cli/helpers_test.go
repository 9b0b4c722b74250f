package cli

import (
	"bytes"
	"context"
	"testing"

	"knowledge-indexer/internal/indexer"
	"knowledge-indexer/internal/service"
)

type fakeIndexer struct {
	initErr    error
	dirSummary indexer.BatchSummary
	dirErr     error
	docSummary indexer.BatchSummary

	dirs  []string
	paths []string
}

func (f *fakeIndexer) InitializeCollection(context.Context) error { return f.initErr }

func (f *fakeIndexer) IndexDirectory(_ context.Context, dir string) (indexer.BatchSummary, error) {
	f.dirs = append(f.dirs, dir)
	return f.dirSummary, f.dirErr
}

func (f *fakeIndexer) IndexDocuments(_ context.Context, paths []string) indexer.BatchSummary {
	f.paths = append(f.paths, paths...)
	return f.docSummary
}

type fakeProber struct {
	dim int
	err error
}

func (f fakeProber) Dimension(context.Context) (int, error) { return f.dim, f.err }

// useServices installs svc behind the factory and records the overrides it was built with.
func useServices(t *testing.T, svc *Services) *Overrides {
	t.Helper()
	got := &Overrides{}
	oldFactory := factory
	SetFactory(func(_ context.Context, o Overrides) (*Services, error) {
		*got = o
		return svc, nil
	})
	t.Cleanup(func() {
		factory = oldFactory
		services = nil
	})
	return got
}

// execute runs the root command with fresh flag values and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	overrides = Overrides{}
	searchTopK = service.DefaultTopK
	searchJSON = false
	runsLimit = 20

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
