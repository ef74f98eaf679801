package download

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	apperrors "aitranscribe/internal/app/errors"
)

// DefaultFilename is the name every transcription download is saved under.
const DefaultFilename = "transcription.txt"

// maxCollisions bounds the "name (n).ext" search.
const maxCollisions = 1000

// Saver materializes downloaded bytes under a suggested filename and
// returns where they ended up.
type Saver interface {
	Save(name string, data []byte) (string, error)
}

// FileSaver writes downloads into a directory. Existing files are never
// overwritten; a numbered variant of the name is chosen instead.
type FileSaver struct {
	Dir string
}

// NewFileSaver creates a FileSaver for dir. An empty dir means the
// current working directory.
func NewFileSaver(dir string) *FileSaver {
	if dir == "" {
		dir = "."
	}
	return &FileSaver{Dir: dir}
}

// Save writes data to Dir under name, or under "name (n).ext" when name
// is taken.
func (s *FileSaver) Save(name string, data []byte) (string, error) {
	name = filepath.Base(name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = DefaultFilename
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", apperrors.WithCause(apperrors.ErrFileWriteFailed, err)
	}

	for i := 0; i < maxCollisions; i++ {
		path := filepath.Join(s.Dir, candidateName(name, i))

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", apperrors.WithCause(apperrors.ErrFileWriteFailed, err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", apperrors.WithCause(apperrors.ErrFileWriteFailed, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", apperrors.WithCause(apperrors.ErrFileWriteFailed, err)
		}
		return path, nil
	}

	return "", apperrors.WithCause(apperrors.ErrFileWriteFailed,
		fmt.Errorf("no free name for %s in %s", name, s.Dir))
}

// candidateName returns name for n == 0, otherwise "base (n).ext".
func candidateName(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", base, n, ext)
}

// Download is one save recorded by a MemorySaver.
type Download struct {
	Name string
	Data []byte
}

// MemorySaver keeps downloads in memory.
type MemorySaver struct {
	mu        sync.Mutex
	downloads []Download
}

// NewMemorySaver creates an empty MemorySaver.
func NewMemorySaver() *MemorySaver {
	return &MemorySaver{}
}

// Save records a copy of data under name.
func (s *MemorySaver) Save(name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	s.downloads = append(s.downloads, Download{Name: name, Data: cp})
	return name, nil
}

// Downloads returns every recorded save in order.
func (s *MemorySaver) Downloads() []Download {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Download, len(s.downloads))
	copy(out, s.downloads)
	return out
}
