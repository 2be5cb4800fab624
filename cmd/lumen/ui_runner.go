package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"lumen/internal/driver"
	"lumen/internal/ui"
)

type compileOutcome struct {
	results []*driver.Result
	err     error
}

// compileWithUI runs CompileFiles while a progress view follows its phase
// events.
func compileWithUI(ctx context.Context, title string, files []string, opts driver.Options) ([]*driver.Result, error) {
	events := make(chan driver.PhaseEvent, 256)
	outcomeCh := make(chan compileOutcome, 1)

	go func() {
		o := opts
		o.Observer = func(ev driver.PhaseEvent) { events <- ev }
		results, err := driver.CompileFiles(ctx, files, o)
		outcomeCh <- compileOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep the compile from blocking on a full channel
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}

// compileAll compiles files, with the progress view when mode allows it.
func compileAll(ctx context.Context, mode uiMode, title string, files []string, opts driver.Options) ([]*driver.Result, error) {
	if shouldUseTUI(mode) && len(files) > 1 {
		return compileWithUI(ctx, title, files, opts)
	}
	return driver.CompileFiles(ctx, files, opts)
}
