package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"lumen/internal/driver"
	"lumen/internal/ssa"
)

var ssaCmd = &cobra.Command{
	Use:   "ssa <file.lm>",
	Short: "Print the optimized SSA of a script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd, filepath.Dir(args[0]))
		if err != nil {
			return err
		}
		// a cached program has no SSA
		s.opts.Cache = nil
		res, err := driver.CompileFile(cmd.Context(), args[0], s.opts)
		if err != nil {
			return err
		}
		if printDiagnostics(cmd.ErrOrStderr(), res) || res.Form == nil {
			return &exitError{code: 1}
		}
		return ssa.Dump(cmd.OutOrStdout(), res.Form)
	},
}
