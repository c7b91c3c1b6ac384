package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/graft-dev/graft/pkg/console"
	"github.com/graft-dev/graft/pkg/grafterr"
	"github.com/graft-dev/graft/pkg/graftcli"
)

// Build-time variable set by GoReleaser.
var version = "dev"

// exitCoder is implemented by errors that name their own process exit code
// (currently only graftcli's validate wrapper, for spec.md §4.9's 0/1/2
// exit contract).
type exitCoder interface {
	ExitCode() int
}

func main() {
	root := graftcli.NewRootCommand(version)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))

		var ec exitCoder
		if errors.As(err, &ec) {
			os.Exit(ec.ExitCode())
		}

		var coded grafterr.Coded
		if errors.As(err, &coded) {
			if coded.Hint() != "" {
				fmt.Fprintln(os.Stderr, console.FormatHint(coded.Hint()))
			}
			if coded.Code() == grafterr.CodeIntegrity {
				os.Exit(2)
			}
		}
		os.Exit(1)
	}
}
