package main

import (
	"context"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"

	"github.com/deepnoodle-ai/javabinary/classfile"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// readFiles loads every path, reporting all unreadable files at once.
func readFiles(paths []string) ([][]byte, error) {
	blobs := make([][]byte, len(paths))
	var result *multierror.Error
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		blobs[i] = data
	}
	return blobs, result.ErrorOrNil()
}

// load reads and decodes the named class files.
func (a *app) load(ctx context.Context, paths []string) ([][]byte, []*classfile.Class, error) {
	blobs, err := readFiles(paths)
	if err != nil {
		return nil, nil, err
	}
	classes, err := classfile.ParseAll(ctx, blobs, a.options()...)
	return blobs, classes, err
}
