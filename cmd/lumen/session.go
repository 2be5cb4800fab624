package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lumen/internal/driver"
	"lumen/internal/observ"
	"lumen/internal/project"
)

// session gathers what every compiling command derives from flags and the
// project manifest.
type session struct {
	manifest *project.Manifest
	config   project.Config
	opts     driver.Options
	timer    *observ.Timer
}

// newSession loads the manifest above dir, if any, and applies the global
// flags on top of it.
func newSession(cmd *cobra.Command, dir string) (*session, error) {
	s := &session{config: project.DefaultConfig()}
	m, ok, err := project.Load(dir)
	if err != nil {
		return nil, err
	}
	if ok {
		s.manifest = m
		s.config = m.Config
	}

	flags := cmd.Root().PersistentFlags()
	noFold, _ := flags.GetBool("no-fold")
	noCache, _ := flags.GetBool("no-cache")
	timings, _ := flags.GetBool("timings")
	jobs, _ := flags.GetInt("jobs")
	maxDiag, _ := flags.GetInt("max-diagnostics")
	if jobs <= 0 {
		jobs = s.config.Compile.Jobs
	}

	s.opts = driver.Options{
		FoldConstants:  s.config.Compile.FoldConstants && !noFold,
		MaxDiagnostics: maxDiag,
		Jobs:           jobs,
	}
	if timings {
		s.timer = observ.NewTimer()
		s.opts.Timer = s.timer
	}
	if s.config.Compile.Cache && !noCache {
		cache, err := driver.OpenDiskCache("lumen")
		if err != nil {
			// compiling still works without a cache
			fmt.Fprintf(cmd.ErrOrStderr(), "lumen: cache disabled: %v\n", err)
		} else {
			s.opts.Cache = cache
		}
	}
	return s, nil
}

// entryScript picks the script a single-file command works on: the
// argument when given, else the manifest's [package].main.
func entryScript(args []string) (string, error) {
	if len(args) > 0 {
		info, err := os.Stat(args[0])
		if err != nil {
			return "", err
		}
		if !info.IsDir() {
			return args[0], nil
		}
		m, ok, err := project.Load(args[0])
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%s is a directory without %s", args[0], project.ManifestName)
		}
		return m.MainPath()
	}
	m, ok, err := project.Load(".")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no script given and no %s found", project.ManifestName)
	}
	return m.MainPath()
}

// collectScripts expands directories in args into the scripts they hold.
// With no args it uses the project root, or the working directory.
func collectScripts(args []string) ([]string, error) {
	if len(args) == 0 {
		root, ok, err := project.FindProjectRoot(".")
		if err != nil {
			return nil, err
		}
		if !ok {
			root = "."
		}
		args = []string{root}
	}
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, filepath.Clean(arg))
			continue
		}
		found, err := driver.ListScripts(arg)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s scripts found", project.SourceExt)
	}
	return files, nil
}

func (s *session) printTimings(cmd *cobra.Command, path string) error {
	if s.timer == nil {
		return nil
	}
	format, _ := cmd.Root().PersistentFlags().GetString("timings-format")
	return driver.WriteTimings(cmd.ErrOrStderr(), format, path, s.timer)
}
