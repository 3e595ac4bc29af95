package venv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Result is the outcome of a Locate call.
type Result struct {
	Script string
	Found  bool
}

// CachedLocator memoizes Locate for a single root and invalidates the cached
// result when the filesystem under the root changes. Run must be running for
// invalidation to happen.
type CachedLocator struct {
	locator *Locator
	root    string
	watcher *fsnotify.Watcher

	mu     sync.Mutex
	valid  bool
	result Result
	err    error
}

// NewCachedLocator watches root, its immediate children and the directories
// holding their activation scripts.
func NewCachedLocator(l *Locator, root string) (*CachedLocator, error) {
	root = filepath.Clean(root)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	c := &CachedLocator{locator: l, root: root, watcher: watcher}
	if err := c.watchTree(); err != nil {
		watcher.Close()
		return nil, err
	}
	return c, nil
}

// Locate serves root from the cache. Any other root bypasses it.
func (c *CachedLocator) Locate(root string) (string, bool, error) {
	if root == "" || filepath.Clean(root) != c.root {
		return c.locator.Locate(root)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		script, found, err := c.locator.Locate(c.root)
		c.result = Result{Script: script, Found: found}
		c.err = err
		c.valid = true
	}
	return c.result.Script, c.result.Found, c.err
}

// Run processes filesystem events until ctx is cancelled or the watcher is
// closed. When the located script changes, onChange (if non-nil) receives the
// new result.
func (c *CachedLocator) Run(ctx context.Context, onChange func(Result)) error {
	last, _ := c.current()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-c.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && c.depth(event.Name) <= 2 {
					_ = c.watcher.Add(event.Name)
				}
			}
			c.invalidate()

			next, err := c.current()
			if err != nil {
				c.locator.logger().Warn("rescanning workspace", "root", c.root, "error", err)
				continue
			}
			if next != last {
				last = next
				if onChange != nil {
					onChange(next)
				}
			}

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; keep watching.
			c.locator.logger().Debug("workspace watcher error", "error", err)
		}
	}
}

// Close stops the underlying watcher.
func (c *CachedLocator) Close() error {
	return c.watcher.Close()
}

func (c *CachedLocator) current() (Result, error) {
	script, found, err := c.Locate(c.root)
	return Result{Script: script, Found: found}, err
}

func (c *CachedLocator) invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

func (c *CachedLocator) watchTree() error {
	if err := c.watcher.Add(c.root); err != nil {
		return &ScanError{Root: c.root, Err: err}
	}
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return &ScanError{Root: c.root, Err: err}
	}
	for _, entry := range entries {
		dir := filepath.Join(c.root, entry.Name())
		if !isDir(dir, entry) {
			continue
		}
		// Unreadable children are skipped, same as Locate.
		if err := c.watcher.Add(dir); err != nil {
			continue
		}
		for _, rel := range c.locator.Layout.Scripts {
			parent := filepath.Join(dir, filepath.Dir(rel))
			if parent == dir {
				continue
			}
			if info, err := os.Stat(parent); err == nil && info.IsDir() {
				_ = c.watcher.Add(parent)
			}
		}
	}
	return nil
}

// depth returns how many path elements path sits below the root.
func (c *CachedLocator) depth(path string) int {
	rel, err := filepath.Rel(c.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return 0
	}
	return len(strings.Split(rel, string(filepath.Separator)))
}
