package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lumen/internal/diag"
	"lumen/internal/diagfmt"
	"lumen/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [file.lm|dir]...",
	Short: "Report diagnostics without writing output",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "diagnostic format (pretty|short|json|sarif)")
	checkCmd.Flags().String("path-mode", "auto", "how paths are shown (auto|absolute|relative|basename)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	files, err := collectScripts(args)
	if err != nil {
		return err
	}
	s, err := newSession(cmd, filepath.Dir(files[0]))
	if err != nil {
		return err
	}
	// diagnostics come from the pipeline, a cached program carries none
	s.opts.Cache = nil
	format, _ := cmd.Flags().GetString("format")
	pathModeStr, _ := cmd.Flags().GetString("path-mode")
	pathMode, err := parsePathMode(pathModeStr)
	if err != nil {
		return err
	}

	results, err := compileAll(cmd.Context(), uiModeOff, "checking", files, s.opts)
	if err != nil {
		return err
	}
	bag := diag.NewBag(s.opts.MaxDiagnostics)
	for _, res := range results {
		bag.Merge(res.Bag)
	}
	bag.Sort()
	fs := results[0].FileSet

	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "pretty":
		if bag.Len() == 0 {
			if !quiet(cmd) {
				fmt.Fprintf(out, "%d file(s) ok\n", len(files))
			}
			break
		}
		diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, diagfmt.PrettyOpts{
			Color:     useColor(),
			Context:   1,
			PathMode:  pathMode,
			BaseDir:   ".",
			ShowNotes: true,
		})
	case "short":
		_, err = fmt.Fprint(out, diag.FormatShort(bag.Items(), fs, true))
	case "json":
		err = diagfmt.JSON(out, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			BaseDir:          ".",
			Max:              s.opts.MaxDiagnostics,
			IncludeNotes:     true,
		})
	case "sarif":
		err = diagfmt.Sarif(out, bag, fs, diagfmt.SarifRunMeta{
			ToolName:       "lumen",
			ToolVersion:    version.Version,
			InvocationArgs: args,
		})
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, short, json or sarif)", format)
	}
	if err != nil {
		return err
	}
	if bag.HasErrors() {
		return &exitError{code: 1}
	}
	return nil
}

func parsePathMode(s string) (diagfmt.PathMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return diagfmt.PathModeAuto, nil
	case "absolute":
		return diagfmt.PathModeAbsolute, nil
	case "relative":
		return diagfmt.PathModeRelative, nil
	case "basename":
		return diagfmt.PathModeBasename, nil
	}
	return diagfmt.PathModeAuto, fmt.Errorf("invalid --path-mode %q (expected auto|absolute|relative|basename)", s)
}
