// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibliography

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/bibmagic/pkg/types"
)

// File is a parsed source file.
type File struct {
	Path         string
	Bibliography *types.Bibliography
}

// LoadFiles reads and parses paths concurrently and returns the results in
// input order. Parse problems stay in each Bibliography's diagnostics;
// only read failures and cancellation are returned as errors.
func LoadFiles(ctx context.Context, p *Parser, paths []string) ([]File, error) {
	files := make([]File, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			bib := p.Parse(string(data))
			for j := range bib.Diagnostics {
				bib.Diagnostics[j].Source = path
			}
			files[i] = File{Path: path, Bibliography: bib}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// Merge concatenates the entries and diagnostics of files into one
// bibliography. Diagnostic indexes stay relative to their own file.
func Merge(opts types.ParserOptions, files []File) *types.Bibliography {
	out := &types.Bibliography{Options: opts}
	for _, f := range files {
		out.Entries = append(out.Entries, f.Bibliography.Entries...)
		out.Diagnostics = append(out.Diagnostics, f.Bibliography.Diagnostics...)
	}
	return out
}
