// Package driver runs the compilation pipeline (parse, SSA, code
// generation, fixup) over script files and executes the result.
package driver

import (
	"fmt"
	"time"

	"lumen/internal/observ"
	"lumen/internal/project"
	"lumen/internal/source"
	"lumen/internal/version"
)

const defaultMaxDiagnostics = 100

// Options configures a compilation.
type Options struct {
	// UnitName names the script unit; defaults to "main".
	UnitName       string
	FoldConstants  bool
	MaxDiagnostics int
	// Jobs bounds parallel compiles in CompileFiles; 0 means GOMAXPROCS.
	Jobs int
	// Cache, when set, stores compiled programs keyed by content and options.
	Cache    *DiskCache
	Timer    *observ.Timer
	Observer PhaseObserver
}

func (o Options) unitName() string {
	if o.UnitName == "" {
		return "main"
	}
	return o.UnitName
}

func (o Options) maxDiagnostics() int {
	if o.MaxDiagnostics <= 0 {
		return defaultMaxDiagnostics
	}
	return o.MaxDiagnostics
}

// cacheKey identifies the program compiled from file with these options.
// The path is part of the key: programs carry their source name.
func (o Options) cacheKey(file *source.File) project.Digest {
	settings := fmt.Sprintf("lumen %s;path=%s;unit=%s;fold=%t", version.Version, file.Path, o.unitName(), o.FoldConstants)
	return project.Combine(project.Digest(file.Hash), project.DigestOf(settings))
}

// PhaseStatus tells whether a phase started or finished, or the whole
// file is finished.
type PhaseStatus int

const (
	PhaseStart PhaseStatus = iota
	PhaseEnd
	// PhaseDone closes a file; Err is ErrFailed when it did not compile.
	PhaseDone
)

// PhaseEvent marks a pipeline phase boundary for one file.
type PhaseEvent struct {
	Path    string
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
	Err     error
}

// PhaseObserver receives phase events; it may be called from several
// goroutines during CompileFiles.
type PhaseObserver func(PhaseEvent)

func (o Options) observe(ev PhaseEvent) {
	if o.Observer != nil {
		o.Observer(ev)
	}
}
