// Package validate implements the three independent check modes of
// spec.md §4.9: config, lock, and integrity. `validate` with no mode
// selected runs all three and accumulates every finding rather than
// failing fast, matching the CLI's --json contract.
package validate

import (
	"context"
	"fmt"

	"github.com/graft-dev/graft/pkg/domain"
	"github.com/graft-dev/graft/pkg/gitadapter"
	"github.com/graft-dev/graft/pkg/grafterr"
	"github.com/graft-dev/graft/pkg/logger"
)

var validateLog = logger.New("validate:validate")

// Severity classifies one Finding. The zero value means "passed" — a
// Finding is always recorded, even for a check that succeeded, so a
// --json caller can render a full per-mode list rather than
// inferring "no news is good news".
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Mode identifies which of the three independent checks a Finding came from.
type Mode string

const (
	ModeConfig    Mode = "config"
	ModeLock      Mode = "lock"
	ModeIntegrity Mode = "integrity"
)

// Finding is one accumulated check result.
type Finding struct {
	Mode     Mode
	Severity Severity
	Message  string
	Hint     string
}

// Passed reports whether f represents a passing check.
func (f Finding) Passed() bool { return f.Severity == "" }

// ExitCode identifies the process exit status spec.md §4.9 assigns each run:
// 0 when every finding is a warning or better, 1 for a config/lock error,
// 2 for an integrity mismatch. Integrity outranks config/lock when both
// occur: it means the on-disk state disagrees with a lock that otherwise
// parsed and validated cleanly, the more actionable problem to surface.
type ExitCode int

const (
	ExitOK               ExitCode = 0
	ExitConfigOrLockFail ExitCode = 1
	ExitIntegrityFail    ExitCode = 2
)

// Report is the result of a validation run: every finding across the modes
// that ran, plus the exit code spec.md §4.9 assigns.
type Report struct {
	Findings []Finding
	Exit     ExitCode
}

func (r *Report) add(f Finding) {
	r.Findings = append(r.Findings, f)
}

// Options selects which modes run and supplies what each needs. A zero
// Options runs all three modes.
type Options struct {
	Config    bool
	Lock      bool
	Integrity bool

	// DependenciesRoot mirrors pkg/mutate's; only Integrity uses it.
	DependenciesRoot string
	Adapter          *gitadapter.Adapter
}

func (o Options) anySelected() bool {
	return o.Config || o.Lock || o.Integrity
}

func (o Options) adapter() *gitadapter.Adapter {
	if o.Adapter != nil {
		return o.Adapter
	}
	return &gitadapter.Adapter{}
}

func (o Options) depsRootRel() string {
	if o.DependenciesRoot == "" {
		return ".graft"
	}
	return o.DependenciesRoot
}

// Run executes the selected modes (all three if none are selected) against
// cfg/lf/repoRoot and returns the accumulated Report. configErr/lockErr, if
// non-nil, are parse failures the caller already hit trying to load
// graft.yaml/graft.lock — validate still reports them as findings rather
// than requiring the caller to special-case "file didn't even parse".
func Run(ctx context.Context, repoRoot string, cfg domain.GraftConfig, configErr error, lf domain.LockFile, lockErr error, opts Options) Report {
	runAll := !opts.anySelected()
	var report Report

	if runAll || opts.Config {
		checkConfig(&report, cfg, configErr)
	}
	if runAll || opts.Lock {
		checkLock(&report, cfg, configErr, lf, lockErr)
	}
	if runAll || opts.Integrity {
		checkIntegrity(ctx, &report, repoRoot, lf, lockErr, opts)
	}

	report.Exit = exitCodeFor(report.Findings)
	return report
}

func exitCodeFor(findings []Finding) ExitCode {
	exit := ExitOK
	for _, f := range findings {
		if f.Severity != SeverityError {
			continue
		}
		if f.Mode == ModeIntegrity {
			return ExitIntegrityFail
		}
		exit = ExitConfigOrLockFail
	}
	return exit
}

func checkConfig(report *Report, cfg domain.GraftConfig, configErr error) {
	if configErr != nil {
		report.add(Finding{Mode: ModeConfig, Severity: SeverityError, Message: fmt.Sprintf("graft.yaml does not parse: %v", configErr)})
		return
	}
	if len(cfg.Dependencies) == 0 {
		report.add(Finding{Mode: ModeConfig, Severity: SeverityError, Message: "graft.yaml declares no dependencies",
			Hint: "add at least one entry under deps/dependencies"})
		return
	}
	report.add(Finding{Mode: ModeConfig, Message: "config parses and declares at least one dependency"})
}

func checkLock(report *Report, cfg domain.GraftConfig, configErr error, lf domain.LockFile, lockErr error) {
	if lockErr != nil {
		report.add(Finding{Mode: ModeLock, Severity: SeverityError, Message: fmt.Sprintf("graft.lock does not parse: %v", lockErr)})
		return
	}

	before := len(report.Findings)
	if configErr == nil && lf.ApiVersion != "" && family(lf.ApiVersion) != family(cfg.ApiVersion) {
		report.add(Finding{Mode: ModeLock, Severity: SeverityError,
			Message: fmt.Sprintf("lock apiVersion %q does not agree with config apiVersion %q", lf.ApiVersion, cfg.ApiVersion),
			Hint:    "re-run `graft resolve` to regenerate the lock file"})
	}

	for _, name := range lf.SortedNames() {
		entry := lf.Dependencies[name]
		dep, ok := cfg.DependencyByName(name)
		if !ok {
			report.add(Finding{Mode: ModeLock, Severity: SeverityWarning,
				Message: fmt.Sprintf("lock entry %q has no matching dependency in graft.yaml", name),
				Hint:    "remove it by re-running `graft resolve`, or restore the dependency in graft.yaml"})
			continue
		}
		if !entry.Source.Equal(dep.Url) {
			report.add(Finding{Mode: ModeLock, Severity: SeverityError,
				Message: fmt.Sprintf("lock entry %q source %s does not match graft.yaml url %s", name, entry.Source, dep.Url),
				Hint:    "run `graft resolve` to re-lock against the configured url"})
		}
	}

	if len(report.Findings) == before {
		report.add(Finding{Mode: ModeLock, Message: "lock parses and agrees with config"})
	}
}

func family(apiVersion string) string {
	for i, r := range apiVersion {
		if r == '/' {
			return apiVersion[:i]
		}
	}
	return apiVersion
}

func checkIntegrity(ctx context.Context, report *Report, repoRoot string, lf domain.LockFile, lockErr error, opts Options) {
	if lockErr != nil {
		// Integrity has nothing to check against. When the lock mode ran,
		// checkLock already reported this; otherwise report it here.
		if opts.anySelected() && !opts.Lock {
			report.add(Finding{Mode: ModeLock, Severity: SeverityError, Message: fmt.Sprintf("graft.lock does not parse: %v", lockErr)})
		}
		return
	}
	a := opts.adapter()
	depsRel := opts.depsRootRel()

	for _, name := range lf.SortedNames() {
		entry := lf.Dependencies[name]
		path := repoRoot + "/" + depsRel + "/" + name

		isRepo, err := a.IsRepository(ctx, path)
		if err != nil || !isRepo {
			report.add(Finding{Mode: ModeIntegrity, Severity: SeverityError,
				Message: fmt.Sprintf("%s: directory missing or not a git repository", name),
				Hint:    "run `graft resolve` to re-clone it"})
			continue
		}
		head, err := a.CurrentCommit(ctx, path)
		if err != nil {
			report.add(Finding{Mode: ModeIntegrity, Severity: SeverityError,
				Message: fmt.Sprintf("%s: could not read HEAD: %v", name, err)})
			continue
		}
		if !head.Equal(entry.Commit) {
			ierr := &grafterr.IntegrityError{Name: name, ExpectedCommit: entry.Commit.String(), ObservedCommit: head.String()}
			report.add(Finding{Mode: ModeIntegrity, Severity: SeverityError, Message: ierr.Error(), Hint: ierr.Hint()})
			continue
		}
		report.add(Finding{Mode: ModeIntegrity, Message: fmt.Sprintf("%s: HEAD matches locked commit", name)})
	}
	validateLog.Printf("integrity: checked %d locked dependencies", len(lf.Dependencies))
}
