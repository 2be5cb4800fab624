package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lumen/internal/bytecode"
	"lumen/internal/project"
)

// ProgramExt is the extension of encoded bytecode files.
const ProgramExt = ".lmc"

var buildCmd = &cobra.Command{
	Use:   "build [flags] [file.lm|dir]...",
	Short: "Compile scripts to bytecode files",
	Long: `Compile scripts in parallel and write one encoded program per script.
Directories are searched for .lm files; without arguments the project root
(or the working directory) is used.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringP("output", "o", "build", "directory for compiled programs")
	buildCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	files, err := collectScripts(args)
	if err != nil {
		return err
	}
	s, err := newSession(cmd, filepath.Dir(files[0]))
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("output")
	uiValue, _ := cmd.Flags().GetString("ui")
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	results, err := compileAll(cmd.Context(), mode, "building", files, s.opts)
	if err != nil {
		return err
	}
	failed := false
	for _, res := range results {
		if printDiagnostics(cmd.ErrOrStderr(), res) || res.Failed() {
			failed = true
		}
	}
	if failed {
		dumpTraceRing(cmd)
		return &exitError{code: 1}
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}
	for _, res := range results {
		data, err := bytecode.Encode(res.Program)
		if err != nil {
			return fmt.Errorf("%s: %w", res.Path, err)
		}
		out := filepath.Join(outDir, programName(res.Path))
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
		if !quiet(cmd) {
			note := ""
			if res.Cached {
				note = " (cached)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s%s\n", res.Path, out, note)
		}
	}
	return s.printTimings(cmd, "")
}

// programName maps dir/name.lm to name.lmc.
func programName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), project.SourceExt) + ProgramExt
}
