package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lumen/internal/bytecode"
	"lumen/internal/driver"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm [flags] <file.lm|file.lmc>",
	Short: "Print the bytecode of a script or compiled program",
	Args:  cobra.ExactArgs(1),
	RunE:  runDisasm,
}

func init() {
	disasmCmd.Flags().String("format", "text", "listing format (text|yaml)")
}

func runDisasm(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	prog, err := loadProgram(cmd, args[0])
	if err != nil || prog == nil {
		return err
	}
	switch strings.ToLower(format) {
	case "text":
		return bytecode.Disassemble(cmd.OutOrStdout(), prog)
	case "yaml":
		return bytecode.DisassembleYAML(cmd.OutOrStdout(), prog)
	}
	return fmt.Errorf("unsupported format %q (must be text or yaml)", format)
}

// loadProgram decodes an encoded program or compiles a script. A nil
// program with a nil error never happens; compile failures become an
// exitError after the diagnostics are printed.
func loadProgram(cmd *cobra.Command, path string) (*bytecode.Program, error) {
	if filepath.Ext(path) == ProgramExt {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return bytecode.Decode(data)
	}
	s, err := newSession(cmd, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	res, err := driver.CompileFile(cmd.Context(), path, s.opts)
	if err != nil {
		return nil, err
	}
	if printDiagnostics(cmd.ErrOrStderr(), res) || res.Failed() {
		return nil, &exitError{code: 1}
	}
	return res.Program, nil
}
