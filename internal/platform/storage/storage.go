package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrOutsideRoot = errors.New("path escapes storage root")

// Local writes artifacts below a root directory on the local filesystem.
type Local struct {
	Root string
	now  func() time.Time
}

func NewLocal(root string) *Local {
	return &Local{Root: root, now: time.Now}
}

// sealedExt is the suffix platform/crypto appends to encrypted files. It is
// kept together with the extension before it when a name is suffixed.
const sealedExt = ".enc"

const maxSaveAttempts = 16

// Save writes data under dir/name and returns the path it used. It never
// replaces an existing file: when the name is taken it retries with a
// -<unix millis> suffix before the extension, then with a counter after it.
func (l *Local) Save(dir, name string, data []byte) (string, error) {
	target := filepath.Join(l.Root, dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", err
	}
	name = SanitizeFileName(name)
	base, ext := splitExt(name)
	stamp := l.now().UnixMilli()
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		candidate := name
		switch {
		case attempt == 1:
			candidate = fmt.Sprintf("%s-%d%s", base, stamp, ext)
		case attempt > 1:
			candidate = fmt.Sprintf("%s-%d-%d%s", base, stamp, attempt-1, ext)
		}
		path := filepath.Join(target, candidate)
		err := writeNew(path, data)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		return path, nil
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, target)
}

// writeNew creates path exclusively and writes data to it.
func writeNew(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// splitExt splits "a.pdf" into "a", ".pdf" and "a.pdf.enc" into "a", ".pdf.enc".
func splitExt(name string) (string, string) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if ext == sealedExt {
		inner := filepath.Ext(base)
		base = strings.TrimSuffix(base, inner)
		ext = inner + ext
	}
	return base, ext
}

// Resolve checks that path lives inside the storage root.
func (l *Local) Resolve(path string) (string, error) {
	root, err := filepath.Abs(l.Root)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return abs, nil
}

func (l *Local) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (l *Local) Remove(path string) error {
	abs, err := l.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SanitizeFileName strips directories and characters that are unsafe in a
// file name. An empty result becomes "upload".
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == 0 || r < 32:
			continue
		case strings.ContainsRune(`<>:"|?*`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" || out == "." || out == ".." {
		return "upload"
	}
	return out
}
