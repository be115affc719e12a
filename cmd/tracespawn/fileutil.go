package main

import (
	"fmt"
	"os"
)

// prepareFiles opens stdin, stdout and stderr for the new process.
// Empty names are left nil so that the value of the current process is used
func prepareFiles(inputFile, outputFile, errorFile string) ([]*os.File, error) {
	names := []string{inputFile, outputFile, errorFile}
	flags := []int{os.O_RDONLY, os.O_WRONLY | os.O_TRUNC | os.O_CREATE, os.O_WRONLY | os.O_TRUNC | os.O_CREATE}

	files := make([]*os.File, len(names))
	for i, n := range names {
		if n == "" {
			continue
		}
		f, err := os.OpenFile(n, flags[i], 0644)
		if err != nil {
			closeFiles(files)
			return nil, err
		}
		files[i] = f
	}
	return files, nil
}

// closeFiles close all file in the list
func closeFiles(files []*os.File) {
	for _, f := range files {
		if f != nil {
			f.Close()
		}
	}
}

// stdFiles fills the nil entries with the standard files of the current process
func stdFiles(files []*os.File) []*os.File {
	std := []*os.File{os.Stdin, os.Stdout, os.Stderr}
	ret := make([]*os.File, len(files))
	for i, f := range files {
		if f == nil {
			f = std[i]
		}
		ret[i] = f
	}
	return ret
}

// openResult returns the writer for the result line and its close function
func openResult(name string) (*os.File, func(), error) {
	switch name {
	case "", "stdout":
		return os.Stdout, func() {}, nil
	case "stderr":
		return os.Stderr, func() {}, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, nil, fmt.Errorf("open result file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
