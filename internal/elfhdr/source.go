package elfhdr

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Source guards a positionable reader so that only one read operation uses its cursor at a time.
// The lock is held for a single ReadIdent or ReadHeader32 call and never across calls.
type Source struct {
	mu sync.Mutex
	rs io.ReadSeeker
}

// NewSource wraps rs for exclusive use by the read operations
func NewSource(rs io.ReadSeeker) *Source {
	return &Source{rs: rs}
}

// Read implements io.Reader so a Source can be passed wherever an io.ReadSeeker is expected
func (s *Source) Read(p []byte) (int, error) {
	return s.rs.Read(p)
}

// Seek implements io.Seeker
func (s *Source) Seek(offset int64, whence int) (int64, error) {
	return s.rs.Seek(offset, whence)
}

func asSource(src io.ReadSeeker) *Source {
	switch v := src.(type) {
	case *Source:
		return v
	case *File:
		return &v.Source
	default:
		return NewSource(src)
	}
}

// File is an open ELF file guarded by a Source
type File struct {
	Source
	f *os.File
}

// Open opens the named file for header decoding
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &File{Source: Source{rs: f}, f: f}, nil
}

// Name returns the path the file was opened with
func (f *File) Name() string {
	return f.f.Name()
}

// Close closes the underlying file
func (f *File) Close() error {
	return f.f.Close()
}
