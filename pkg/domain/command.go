package domain

import (
	"fmt"
	"strings"
)

// Command is a named, executable shell command declared in graft.yaml,
// referenced by name from a Change's migration/verify fields. Execution
// itself lives in pkg/cmdexec; Command is the validated declaration.
type Command struct {
	Name        string
	Run         string
	Description string
	WorkingDir  string
	Env         map[string]string
}

// NewCommand validates and constructs a Command.
func NewCommand(name, run, description, workingDir string, env map[string]string) (Command, error) {
	if name == "" {
		return Command{}, fmt.Errorf("command name must not be empty")
	}
	if strings.Contains(name, ":") {
		return Command{}, fmt.Errorf("command name %q must not contain ':'", name)
	}
	if strings.TrimSpace(run) == "" {
		return Command{}, fmt.Errorf("command %q: run must not be empty", name)
	}
	envCopy := make(map[string]string, len(env))
	for k, v := range env {
		envCopy[k] = v
	}
	return Command{
		Name:        name,
		Run:         run,
		Description: description,
		WorkingDir:  workingDir,
		Env:         envCopy,
	}, nil
}
