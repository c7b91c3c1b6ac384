// Package fileutil provides utility functions for working with file paths and file operations.
package fileutil

import (
	"io"
	"os"
)

// CopyFile copies a file from src to dst using buffered IO.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
