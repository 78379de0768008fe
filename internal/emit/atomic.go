// internal/emit/atomic.go
package emit

import (
	"bufio"
	"os"
)

// AtomicFile writes through a ".partial" path and renames into place only
// on Commit. An aborted run therefore never leaves an output that looks
// complete.
type AtomicFile struct {
	f    *os.File
	w    *bufio.Writer
	path string
	done bool
}

// CreateAtomic opens path+".partial" for writing.
func CreateAtomic(path string) (*AtomicFile, error) {
	f, err := os.Create(path + ".partial")
	if err != nil {
		return nil, err
	}
	return &AtomicFile{f: f, w: bufio.NewWriter(f), path: path}, nil
}

func (a *AtomicFile) Write(p []byte) (int, error) { return a.w.Write(p) }

// Commit flushes, closes, and renames the partial file onto its final path.
func (a *AtomicFile) Commit() error {
	if a.done {
		return nil
	}
	a.done = true
	if err := a.w.Flush(); err != nil {
		_ = a.f.Close()
		return err
	}
	if err := a.f.Close(); err != nil {
		return err
	}
	return os.Rename(a.path+".partial", a.path)
}

// Abort discards the partial file. Safe to call after Commit (no-op).
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	_ = a.f.Close()
	_ = os.Remove(a.path + ".partial")
}
