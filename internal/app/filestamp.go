package app

import (
	"os"
	"time"
)

// fileStamp remembers a file's modification time and size so a reload can
// tell whether the file changed since it was last read.
type fileStamp struct {
	path    string
	modTime time.Time
	size    int64
}

// newFileStamp records the current state of path. A missing file yields a
// zero stamp, which any later existing file differs from.
func newFileStamp(path string) fileStamp {
	s := fileStamp{path: path}
	if info, err := os.Stat(path); err == nil {
		s.modTime = info.ModTime()
		s.size = info.Size()
	}
	return s
}

// Changed reports whether the file differs from the recorded stamp.
func (s fileStamp) Changed() bool {
	info, err := os.Stat(s.path)
	if err != nil {
		return !s.modTime.IsZero()
	}
	return !info.ModTime().Equal(s.modTime) || info.Size() != s.size
}
