package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"trading-bot-backend/internal/interfaces"
	"trading-bot-backend/internal/types"
)

const ext = ".jsonl"

// Log is the cycle audit journal: one JSON line per cycle outcome, in a file
// per day. Blocked cycles are recorded here even though they leave no trade row.
type Log struct {
	mu  sync.Mutex
	dir string
	loc *time.Location
	now func() time.Time
}

var _ interfaces.Journal = (*Log)(nil)

func New(dir string, loc *time.Location) *Log {
	if dir == "" {
		dir = "logs"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Log{dir: dir, loc: loc, now: time.Now}
}

// DailyPath is the journal file for t's date.
func (l *Log) DailyPath(t time.Time) string {
	return filepath.Join(l.dir, "cycles", t.In(l.loc).Format("2006-01-02")+ext)
}

func (l *Log) Append(e types.JournalEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().In(l.loc)
	if e.Time == "" {
		e.Time = now.Format(time.RFC3339)
	}
	p := l.DailyPath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips journal files last modified before retentionDays ago
// and removes the originals. retentionDays <= 0 disables it.
func (l *Log) CompressOlder(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().AddDate(0, 0, -retentionDays)
	compressed := 0
	err := filepath.WalkDir(l.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ext) {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := gzipFile(p); err != nil {
			return fmt.Errorf("compress %s: %w", p, err)
		}
		compressed++
		return nil
	})
	return compressed, err
}

func gzipFile(p string) error {
	gz := p + ".gz"
	if _, err := os.Stat(gz); err == nil {
		return os.Remove(p)
	}

	in, err := os.Open(p)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(gz)
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(p)
}
