package carve

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	DefaultOutputDir = "output"
)

// Somewhere to put carved images. Each id is only ever created once per scan
type ImageSink interface {
	Create(id uint32) (io.WriteCloser, string, error)
}

// 9 digit zero padded, so files sort in detection order
func ImageFilename(id uint32) string {
	return fmt.Sprintf("%09d.png", id)
}

// Writes each image to its own file within Dir. The directory must already exist
type DirectorySink struct {
	Dir string
}

func (s *DirectorySink) Create(id uint32) (io.WriteCloser, string, error) {
	dir := s.Dir
	if dir == "" {
		dir = DefaultOutputDir
	}
	path := filepath.Join(dir, ImageFilename(id))
	f, err := os.Create(path)
	if err != nil {
		return nil, path, err
	}
	return f, path, nil
}

type discardCloser struct{}

func (discardCloser) Write(b []byte) (int, error) { return len(b), nil }
func (discardCloser) Close() error                { return nil }

// For dry runs: carve everything, keep nothing
type DiscardSink struct{}

func (DiscardSink) Create(id uint32) (io.WriteCloser, string, error) {
	return discardCloser{}, "", nil
}
