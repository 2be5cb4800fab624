package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lumen/internal/driver"
	"lumen/internal/value"
	"lumen/internal/vm"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [file.lm|dir]",
	Short: "Compile and execute a script",
	Long: `Compile a script to bytecode and execute it on the VM. Without an
argument the [package].main script of the enclosing project is run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExecution,
}

func init() {
	runCmd.Flags().Bool("vm-trace", false, "print every executed instruction to stderr")
	runCmd.Flags().Int("max-depth", 0, "maximum call depth (0 = manifest or default)")
	runCmd.Flags().Bool("print-result", false, "print the value the script returns")
}

func runExecution(cmd *cobra.Command, args []string) error {
	path, err := entryScript(args)
	if err != nil {
		return err
	}
	s, err := newSession(cmd, filepath.Dir(path))
	if err != nil {
		return err
	}
	vmTrace, err := cmd.Flags().GetBool("vm-trace")
	if err != nil {
		return fmt.Errorf("failed to get vm-trace flag: %w", err)
	}
	maxDepth, err := cmd.Flags().GetInt("max-depth")
	if err != nil {
		return fmt.Errorf("failed to get max-depth flag: %w", err)
	}
	printResult, _ := cmd.Flags().GetBool("print-result")
	if maxDepth <= 0 {
		maxDepth = s.config.Run.MaxCallDepth
	}

	res, err := driver.CompileFile(cmd.Context(), path, s.opts)
	if err != nil {
		return err
	}
	if printDiagnostics(cmd.ErrOrStderr(), res) || res.Failed() {
		dumpTraceRing(cmd)
		return &exitError{code: 1}
	}

	ropts := driver.RunOptions{Stdout: cmd.OutOrStdout(), MaxDepth: maxDepth}
	if vmTrace || s.config.Run.VMTrace {
		ropts.VMTrace = cmd.ErrOrStderr()
	}
	var result value.Value
	runErr := measure(s, "run", func() error {
		var err error
		result, err = driver.Run(cmd.Context(), res.Program, ropts)
		return err
	})
	if err := s.printTimings(cmd, path); err != nil {
		return err
	}
	if runErr != nil {
		reportRunError(cmd, res.Path, runErr)
		dumpTraceRing(cmd)
		return &exitError{code: 1}
	}
	if printResult && result.Kind() != value.KindVoid {
		fmt.Fprintln(cmd.OutOrStdout(), result.Repr())
	}
	return nil
}

func measure(s *session, name string, fn func() error) error {
	if s.timer == nil {
		return fn()
	}
	return s.timer.Measure(name, fn)
}

func reportRunError(cmd *cobra.Command, path string, err error) {
	red := color.New(color.FgRed, color.Bold)
	var fault *vm.Fault
	if errors.As(err, &fault) {
		red.Fprint(cmd.ErrOrStderr(), fault.Format(path))
		return
	}
	red.Fprint(cmd.ErrOrStderr(), "error: ")
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
}

