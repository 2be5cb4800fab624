package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"lumen/internal/project"
	"lumen/internal/source"
)

// ListScripts returns the .lm files under dir, sorted.
func ListScripts(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, project.SourceExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// CompileFiles compiles paths in parallel, at most opts.Jobs at a time.
// Results are in the order of paths. Files that cannot be read fail the
// whole call before anything is compiled.
func CompileFiles(ctx context.Context, paths []string, opts Options) ([]*Result, error) {
	fileSet := source.NewFileSet()
	ids := make([]source.FileID, len(paths))
	var loadErrs []error
	for i, path := range paths {
		id, err := fileSet.Load(path)
		if err != nil {
			loadErrs = append(loadErrs, fmt.Errorf("load %s: %w", path, err))
			continue
		}
		ids[i] = id
	}
	if len(loadErrs) > 0 {
		return nil, fmt.Errorf("driver: %w", errors.Join(loadErrs...))
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]*Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(paths))))
	for i := range paths {
		g.Go(func() error {
			res, err := Compile(gctx, fileSet, ids[i], opts)
			if err != nil {
				return err
			}
			// each goroutine owns its index
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
