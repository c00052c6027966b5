package importer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
)

// Source is the input of an import: a path on disk or an open stream.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// FileSource reads the file at path.
func FileSource(path string) Source {
	return fileSource(path)
}

type fileSource string

func (f fileSource) Name() string { return filepath.Base(string(f)) }

func (f fileSource) Open() (io.ReadCloser, error) {
	file, err := os.Open(string(f))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", catalog.ErrFileNotFound, f)
	case err != nil:
		return nil, fmt.Errorf("%w: %s: %v", catalog.ErrFileUnreadable, f, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %s: %v", catalog.ErrFileUnreadable, f, err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("%w: %s is a directory", catalog.ErrFileUnreadable, f)
	}
	return file, nil
}

// ReaderSource wraps an already open stream, such as an uploaded file. The
// importer does not close r.
func ReaderSource(name string, r io.Reader) Source {
	return readerSource{name: name, r: r}
}

type readerSource struct {
	name string
	r    io.Reader
}

func (s readerSource) Name() string { return s.name }

func (s readerSource) Open() (io.ReadCloser, error) {
	if s.r == nil {
		return nil, fmt.Errorf("%w: %s", catalog.ErrFileUnreadable, s.name)
	}
	return io.NopCloser(s.r), nil
}
