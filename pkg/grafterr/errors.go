// Package grafterr defines the engine's structured error taxonomy.
//
// Every error the engine returns across package boundaries implements Coded
// so that a front-end (CLI/TUI) can render a stable machine code in its JSON
// output without string-matching error messages. Each kind also carries an
// optional Hint: an actionable suggestion kept out of Error() so renderers
// can place it on its own line.
package grafterr

import "fmt"

// Code is a stable, machine-readable error identifier.
type Code string

const (
	CodeConfig             Code = "config_error"
	CodeLock               Code = "lock_error"
	CodeGit                Code = "git_error"
	CodeResolution         Code = "resolution_error"
	CodeMigration          Code = "migration_error"
	CodeIntegrity          Code = "integrity_error"
	CodeTimeout            Code = "timeout_error"
	CodeDependencyNotFound Code = "dependency_not_found"
	CodeUnknownRef         Code = "unknown_ref"
	CodeDirtyTree          Code = "dirty_tree"
	CodeChangeNotFound     Code = "change_not_found"
)

// Coded is implemented by every error kind in this package.
type Coded interface {
	error
	Code() Code
	Hint() string
}

// ConfigError reports a graft.yaml parse or validation failure.
type ConfigError struct {
	FieldPath string
	Reason    string
	HintText  string
}

func (e *ConfigError) Error() string {
	if e.FieldPath == "" {
		return fmt.Sprintf("config: %s", e.Reason)
	}
	return fmt.Sprintf("config: %s: %s", e.FieldPath, e.Reason)
}
func (e *ConfigError) Code() Code   { return CodeConfig }
func (e *ConfigError) Hint() string { return e.HintText }

// LockError reports a graft.lock parse or validation failure.
type LockError struct {
	Reason   string
	HintText string
}

func (e *LockError) Error() string  { return fmt.Sprintf("lock: %s", e.Reason) }
func (e *LockError) Code() Code     { return CodeLock }
func (e *LockError) Hint() string   { return e.HintText }

// GitError reports a failed git subprocess invocation.
type GitError struct {
	Op         string
	Argv       []string
	ExitCode   int
	StderrTail string
	Err        error
}

func (e *GitError) Error() string {
	return fmt.Sprintf("git %s failed (exit %d): %s", e.Op, e.ExitCode, e.StderrTail)
}
func (e *GitError) Code() Code   { return CodeGit }
func (e *GitError) Hint() string { return "check that the git binary is installed and the remote is reachable" }
func (e *GitError) Unwrap() error { return e.Err }

// ResolutionError reports a per-dependency failure during resolve.
type ResolutionError struct {
	Name   string
	Stage  string
	Reason string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %s: %s", e.Name, e.Stage, e.Reason)
}
func (e *ResolutionError) Code() Code    { return CodeResolution }
func (e *ResolutionError) Hint() string  { return "fix the dependency's url/ref in graft.yaml and re-run resolve" }
func (e *ResolutionError) Unwrap() error { return e.Err }

// MigrationPhase identifies which half of an upgrade's command execution failed.
type MigrationPhase string

const (
	PhaseMigrate MigrationPhase = "migrate"
	PhaseVerify  MigrationPhase = "verify"
)

// MigrationError reports a non-zero exit from a migration or verify command.
type MigrationError struct {
	ChangeRef   string
	Phase       MigrationPhase
	CommandName string
	ExitCode    int
	StderrTail  string
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("%s command %q for change %s exited %d: %s", e.Phase, e.CommandName, e.ChangeRef, e.ExitCode, e.StderrTail)
}
func (e *MigrationError) Code() Code { return CodeMigration }
func (e *MigrationError) Hint() string {
	if e.Phase == PhaseVerify {
		return "the migration applied but verification failed; the upgrade was rolled back, inspect the verify command's output"
	}
	return "the migration command failed before any commit; the upgrade was rolled back"
}

// IntegrityError reports a lock/working-tree mismatch.
type IntegrityError struct {
	Name            string
	ExpectedCommit  string
	ObservedCommit  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: expected %s got %s", e.Name, e.ExpectedCommit, e.ObservedCommit)
}
func (e *IntegrityError) Code() Code   { return CodeIntegrity }
func (e *IntegrityError) Hint() string { return "run `graft sync` to bring the checkout back in line with the lock" }

// TimeoutError reports a subprocess that exceeded its configured timeout.
type TimeoutError struct {
	Op        string
	ElapsedMS int64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %dms", e.Op, e.ElapsedMS)
}
func (e *TimeoutError) Code() Code   { return CodeTimeout }
func (e *TimeoutError) Hint() string { return "increase the command's timeout or investigate why it hung" }

// DependencyNotFound reports a name absent from graft.yaml.
type DependencyNotFound struct {
	Name string
}

func (e *DependencyNotFound) Error() string { return fmt.Sprintf("dependency %q not declared in graft.yaml", e.Name) }
func (e *DependencyNotFound) Code() Code    { return CodeDependencyNotFound }
func (e *DependencyNotFound) Hint() string  { return "check the name against `graft status`" }

// UnknownRef reports a ref that could not be resolved to a commit.
type UnknownRef struct {
	Ref string
}

func (e *UnknownRef) Error() string { return fmt.Sprintf("unknown ref %q", e.Ref) }
func (e *UnknownRef) Code() Code    { return CodeUnknownRef }
func (e *UnknownRef) Hint() string  { return "did you forget `graft fetch`?" }

// ChangeNotFound reports a ref with no declared Change in a dependency's
// own graft.yaml.
type ChangeNotFound struct {
	Ref string
}

func (e *ChangeNotFound) Error() string { return fmt.Sprintf("no change declared for ref %q", e.Ref) }
func (e *ChangeNotFound) Code() Code    { return CodeChangeNotFound }
func (e *ChangeNotFound) Hint() string  { return "check the ref against `graft changes <dep>`" }

// DirtyTreeError reports an upgrade refused because the working tree has
// uncommitted changes and --force was not given.
type DirtyTreeError struct {
	Name string
}

func (e *DirtyTreeError) Error() string { return fmt.Sprintf("%s: working tree is dirty", e.Name) }
func (e *DirtyTreeError) Code() Code    { return CodeDirtyTree }
func (e *DirtyTreeError) Hint() string {
	return "commit or stash your changes, or pass --force to snapshot and proceed anyway"
}
