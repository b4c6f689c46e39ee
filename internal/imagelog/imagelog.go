// Package imagelog saves intermediate pipeline images for diagnostics.
// Every generation request gets its own session with a unique prefix, so
// concurrent requests never interleave their captures. A nil session is a
// valid no-op, which keeps logging optional throughout the pipeline.
package imagelog

import (
	"image"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/candlr-app/candlr/internal/fsutil"
	"github.com/candlr-app/candlr/internal/imagecodec"
	"github.com/candlr-app/candlr/internal/monitoring"
	"github.com/candlr-app/candlr/internal/timeutil"
)

// Logger writes session image captures into a directory.
type Logger struct {
	fs    fsutil.FileSystem
	dir   string
	clock timeutil.Clock
}

// New creates a logger writing PNGs under dir, creating it if needed.
func New(fs fsutil.FileSystem, dir string) (*Logger, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Logger{fs: fs, dir: dir, clock: timeutil.RealClock{}}, nil
}

// Session groups the captures of one generation request under a shared
// filename prefix.
type Session struct {
	l  *Logger
	id string
}

// StartSession opens a new capture session. Safe on a nil logger, which
// yields a nil (disabled) session.
func (l *Logger) StartSession() *Session {
	if l == nil {
		return nil
	}
	id := l.clock.Now().Format("20060102_150405") + "_" + uuid.NewString()[:8]
	return &Session{l: l, id: id}
}

// ID returns the session identifier, or "" for a disabled session.
func (s *Session) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Save writes one capture as <session>_<step>_<name>.png. Failures are
// logged and swallowed: diagnostics must never fail a generation request.
func (s *Session) Save(step int, name string, img image.Image) {
	if s == nil || img == nil {
		return
	}
	data, err := imagecodec.EncodePNG(img)
	if err != nil {
		monitoring.Logf("imagelog: encode %s: %v", name, err)
		return
	}
	path := filepath.Join(s.l.dir, s.filename(step, name))
	if err := s.l.fs.WriteFile(path, data, 0644); err != nil {
		monitoring.Logf("imagelog: write %s: %v", path, err)
	}
}

func (s *Session) filename(step int, name string) string {
	return s.id + "_" + twoDigits(step) + "_" + name + ".png"
}

func twoDigits(n int) string {
	if n < 0 {
		n = 0
	}
	return string([]byte{'0' + byte(n/10%10), '0' + byte(n%10)})
}
