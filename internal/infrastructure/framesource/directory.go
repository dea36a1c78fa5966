package framesource

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"measure-bot/internal/domain/entity"
	"measure-bot/internal/domain/port"
)

// DirectorySource эмулирует поток камеры, выдавая изображения каталога по порядку.
type DirectorySource struct {
	dir     string
	files   []string
	maxSide int
	loop    bool
	now     func() time.Time

	mu   sync.Mutex
	next int
	seq  uint64
}

// NewDirectorySource собирает отсортированный список изображений каталога.
func NewDirectorySource(dir string, maxSide int, loop bool) (*DirectorySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := FormatFromPath(e.Name()); err != nil {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no images in %s", dir)
	}
	sort.Strings(files)
	return &DirectorySource{dir: dir, files: files, maxSide: maxSide, loop: loop, now: time.Now}, nil
}

// Name возвращает путь каталога.
func (s *DirectorySource) Name() string {
	return s.dir
}

// Len возвращает число изображений в каталоге.
func (s *DirectorySource) Len() int {
	return len(s.files)
}

// Next читает и декодирует очередное изображение. Без зацикливания
// после последнего файла возвращается io.EOF.
func (s *DirectorySource) Next(ctx context.Context) (*entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.next >= len(s.files) {
		if !s.loop {
			s.mu.Unlock()
			return nil, io.EOF
		}
		s.next = 0
	}
	path := s.files[s.next]
	s.next++
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frame %s: %w", path, err)
	}
	frame, err := Decode(data, s.maxSide)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", path, err)
	}
	frame.Seq = seq
	frame.CapturedAt = s.now()
	return frame, nil
}

// Проверка реализации интерфейса
var _ port.FrameSource = (*DirectorySource)(nil)
