package inventory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/logging"
)

const defaultDebounce = 250 * time.Millisecond

// Config configures a Detector.
type Config[T any] struct {
	// Roots are the directories scanned. Missing roots are skipped.
	Roots []string
	// Depth is how many directory levels below a root are examined. A
	// directory that classifies is not descended into.
	Depth int
	// Classify reports whether dir is an item.
	Classify func(dir string) (T, bool)
	// Compare orders the snapshot.
	Compare func(a, b T) int
	// Debounce is the quiet period after the last filesystem event before a
	// rescan. Zero uses a default.
	Debounce time.Duration
	// OnChange receives every snapshot published by a running Detector,
	// starting with the initial scan. It is never called once Stop has
	// returned, and must not call Stop itself.
	OnChange func(items []T)
	Logger   logging.Logger
}

// Detector scans roots for items and, once started, rescans when the
// filesystem under them changes.
type Detector[T any] struct {
	cfg    Config[T]
	logger logging.Logger

	mu       sync.Mutex
	snapshot []T
	fsw      *fsnotify.Watcher
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewDetector creates a Detector.
func NewDetector[T any](cfg Config[T]) *Detector[T] {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	return &Detector[T]{cfg: cfg, logger: logging.OrNop(cfg.Logger)}
}

// NewSDKDetector detects SDKs directly below each root. onChange may be nil.
func NewSDKDetector(roots []string, onChange func([]SDK), logger logging.Logger) *Detector[SDK] {
	return NewDetector(Config[SDK]{
		Roots:    roots,
		Depth:    1,
		Classify: ClassifySDK,
		Compare:  CompareSDKs,
		OnChange: onChange,
		Logger:   logger,
	})
}

// NewModuleDetector detects module versions three levels below each root.
func NewModuleDetector(roots []string, onChange func([]Module), logger logging.Logger) *Detector[Module] {
	return NewDetector(Config[Module]{
		Roots:    roots,
		Depth:    3,
		Classify: ClassifyModule,
		Compare:  CompareModules,
		OnChange: onChange,
		Logger:   logger,
	})
}

// Scan walks the roots once and returns the sorted items.
func (d *Detector[T]) Scan(ctx context.Context) ([]T, error) {
	var items []T
	seen := make(map[string]bool)

	for _, root := range d.cfg.Roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", root, err)
		}
		if err := d.scanDir(ctx, abs, 0, seen, &items); err != nil {
			return nil, err
		}
	}

	if d.cfg.Compare != nil {
		slices.SortStableFunc(items, d.cfg.Compare)
	}
	return items, nil
}

func (d *Detector[T]) scanDir(ctx context.Context, dir string, depth int, seen map[string]bool, items *[]T) error {
	if depth > 0 {
		if seen[dir] {
			return nil
		}
		if item, ok := d.cfg.Classify(dir); ok {
			seen[dir] = true
			*items = append(*items, item)
			return nil
		}
	}
	if depth >= d.cfg.Depth {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		d.logger.Warn("cannot read directory", "dir", dir, "error", err)
		return nil
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.IsDir() {
			continue
		}
		if err := d.scanDir(ctx, filepath.Join(dir, e.Name()), depth+1, seen, items); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns the last published items of a running Detector.
func (d *Detector[T]) Snapshot() []T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.snapshot)
}

// Start scans, publishes the result and keeps watching the roots until Stop
// is called or ctx is done.
func (d *Detector[T]) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.fsw != nil {
		d.mu.Unlock()
		return fmt.Errorf("detector already started")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		d.mu.Unlock()
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	d.fsw, d.cancel, d.done = fsw, cancel, make(chan struct{})
	d.mu.Unlock()

	d.addWatches()
	if err := d.rescan(ctx); err != nil {
		cancel()
		fsw.Close()
		d.mu.Lock()
		d.fsw, d.cancel, d.done = nil, nil, nil
		d.mu.Unlock()
		return err
	}

	go d.run(ctx, fsw)
	return nil
}

// Stop ends watching and waits for the event loop and any rescan in
// progress to finish.
func (d *Detector[T]) Stop() error {
	d.mu.Lock()
	fsw, cancel, done := d.fsw, d.cancel, d.done
	d.mu.Unlock()
	if fsw == nil {
		return nil
	}

	cancel()
	<-done

	d.mu.Lock()
	d.fsw, d.cancel, d.done = nil, nil, nil
	d.mu.Unlock()
	return nil
}

func (d *Detector[T]) run(ctx context.Context, fsw *fsnotify.Watcher) {
	var (
		mu      sync.Mutex
		timer   *time.Timer
		stopped bool
		fires   sync.WaitGroup
	)

	defer func() {
		mu.Lock()
		stopped = true
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		// A rescan already under way publishes before done is closed.
		fires.Wait()
		if err := fsw.Close(); err != nil {
			d.logger.Warn("close fsnotify watcher", "error", err)
		}
		close(d.done)
	}()

	fire := func() {
		mu.Lock()
		if stopped {
			mu.Unlock()
			return
		}
		fires.Add(1)
		mu.Unlock()
		defer fires.Done()

		if ctx.Err() != nil {
			return
		}
		d.addWatches()
		if err := d.rescan(ctx); err != nil && ctx.Err() == nil {
			d.logger.Warn("rescan failed", "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case evt, ok := <-fsw.Events:
			if !ok {
				return
			}
			d.logger.Debug("filesystem event", "path", evt.Name, "op", evt.Op.String())

			mu.Lock()
			if timer == nil {
				timer = time.AfterFunc(d.cfg.Debounce, fire)
			} else {
				timer.Reset(d.cfg.Debounce)
			}
			mu.Unlock()

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			d.logger.Warn("fsnotify error", "error", err)
		}
	}
}

func (d *Detector[T]) rescan(ctx context.Context) error {
	items, err := d.Scan(ctx)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.snapshot = items
	d.mu.Unlock()

	if d.cfg.OnChange != nil {
		d.cfg.OnChange(slices.Clone(items))
	}
	return nil
}

// addWatches watches every directory a scan looks at. A missing root is
// replaced by its nearest existing ancestor so its creation is noticed.
func (d *Detector[T]) addWatches() {
	d.mu.Lock()
	fsw := d.fsw
	d.mu.Unlock()
	if fsw == nil {
		return
	}

	for _, root := range d.cfg.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if _, err := os.Stat(abs); err != nil {
			if parent := existingAncestor(abs); parent != "" {
				_ = fsw.Add(parent)
			}
			continue
		}
		d.watchTree(fsw, abs, 0)
	}
}

func (d *Detector[T]) watchTree(fsw *fsnotify.Watcher, dir string, depth int) {
	if err := fsw.Add(dir); err != nil {
		d.logger.Debug("cannot watch directory", "dir", dir, "error", err)
		return
	}
	if depth >= d.cfg.Depth {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			d.watchTree(fsw, filepath.Join(dir, e.Name()), depth+1)
		}
	}
}

func existingAncestor(path string) string {
	for {
		parent := filepath.Dir(path)
		if parent == path {
			return ""
		}
		if info, err := os.Stat(parent); err == nil && info.IsDir() {
			return parent
		}
		path = parent
	}
}
