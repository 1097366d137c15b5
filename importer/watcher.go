package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"medassist/database"
)

const (
	processedDir = "traites"
	failedDir    = "erreurs"
)

var dropName = regexp.MustCompile(`(?i)^(\d+)_(beneficiaires|participants)[^/\\]*\.(csv|xlsx)$`)

// ParseDropName extracts the campaign and roster from a drop folder file
// name such as 12_beneficiaires_mars.xlsx.
func ParseDropName(name string) (int64, Kind, bool) {
	m := dropName.FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	return id, Kind(strings.ToLower(m[2])), true
}

// Watcher imports files dropped in a folder once they stop changing.
type Watcher struct {
	db       *sqlx.DB
	dir      string
	debounce time.Duration
	fsw      *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time
}

func NewWatcher(db *sqlx.DB, dir string, debounce time.Duration) (*Watcher, error) {
	for _, d := range []string{dir, filepath.Join(dir, processedDir), filepath.Join(dir, failedDir)} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{db: db, dir: dir, debounce: debounce, fsw: fsw, pending: map[string]time.Time{}}, nil
}

// Close stops watching; Run calls it on exit.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run blocks until ctx is cancelled. Files already present are queued first.
func (w *Watcher) Run(ctx context.Context) {
	defer w.Close()

	if entries, err := os.ReadDir(w.dir); err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				w.touch(filepath.Join(w.dir, e.Name()))
			}
		}
	}
	zap.L().Info("import folder watcher started", zap.String("dir", w.dir), zap.Duration("debounce", w.debounce))

	tick := w.debounce / 2
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				w.touch(ev.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			zap.L().Error("import folder watcher error", zap.Error(err))
		case now := <-ticker.C:
			for _, path := range w.settled(now) {
				if err := w.ProcessFile(ctx, path); err != nil {
					zap.L().Error("drop file not processed", zap.String("file", path), zap.Error(err))
				}
			}
		}
	}
}

func (w *Watcher) touch(path string) {
	if _, _, ok := ParseDropName(filepath.Base(path)); !ok {
		return
	}
	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// settled pops the files with no event for a full debounce period.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	return ready
}

// ProcessFile imports one dropped file then moves it to traites/ or, when
// the file was refused as a whole, to erreurs/. A .log file lists the
// rejected rows or the refusal reason next to the moved file.
func (w *Watcher) ProcessFile(ctx context.Context, path string) error {
	name := filepath.Base(path)
	id, kind, ok := ParseDropName(name)
	if !ok {
		return fmt.Errorf("unexpected file name %s", name)
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	res, importErr := Import(ctx, w.db, kind, id, name, f, Options{})
	f.Close()

	dest := filepath.Join(w.dir, processedDir, database.Now().Format("20060102-150405")+"_"+name)
	var report string
	if importErr != nil {
		dest = filepath.Join(w.dir, failedDir, filepath.Base(dest))
		report = fmt.Sprintf("%s\nFichier refusé : %v\n", name, importErr)
		zap.L().Warn("drop file refused", zap.String("file", name), zap.Error(importErr))
	} else if res.Rejetes > 0 {
		report = formatReport(name, res)
	}

	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("move %s: %w", name, err)
	}
	if report != "" {
		if err := os.WriteFile(dest+".log", []byte(report), 0644); err != nil {
			return fmt.Errorf("write report for %s: %w", name, err)
		}
	}
	return nil
}

func formatReport(name string, res *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", name, res.Message)
	for _, e := range res.Erreurs {
		fmt.Fprintf(&b, "ligne %d [%s] : %s\n", e.Ligne, e.Champ, e.Message)
	}
	return b.String()
}
