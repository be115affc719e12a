// Package memfd creates sealed in-memory copies of executables so the traced
// child can be started by execveat on a file nobody else can modify.
package memfd

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

const createFlag = unix.MFD_CLOEXEC | unix.MFD_ALLOW_SEALING
const roSeal = unix.F_SEAL_SEAL | unix.F_SEAL_SHRINK | unix.F_SEAL_GROW | unix.F_SEAL_WRITE

// New creates a new memfd, caller need to close the file
func New(name string) (*os.File, error) {
	fd, err := unix.MemfdCreate(name, createFlag)
	if err != nil {
		return nil, fmt.Errorf("memfd: memfd_create failed %v", err)
	}
	file := os.NewFile(uintptr(fd), name)
	if file == nil {
		unix.Close(fd)
		return nil, fmt.Errorf("memfd: NewFile failed for %v", name)
	}
	return file, nil
}

// DupToMemfd reads content from reader to sealed (readonly) memfd for given name
func DupToMemfd(name string, reader io.Reader) (*os.File, error) {
	file, err := New(name)
	if err != nil {
		return nil, fmt.Errorf("DupToMemfd: %w", err)
	}
	if _, err = file.ReadFrom(reader); err != nil {
		file.Close()
		return nil, fmt.Errorf("DupToMemfd: read from %w", err)
	}
	// make memfd readonly
	if _, err = unix.FcntlInt(file.Fd(), unix.F_ADD_SEALS, roSeal); err != nil {
		file.Close()
		return nil, fmt.Errorf("DupToMemfd: memfd seal %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("DupToMemfd: file seek %w", err)
	}
	return file, nil
}

// DupFile copies the executable at path into a sealed memfd
func DupFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("memfd: %w", err)
	}
	defer f.Close()
	return DupToMemfd(path, f)
}
