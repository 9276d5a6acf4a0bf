// Package docs enumerates the text documents the search tool ranks against.
// Contents are cached in memory; an optional watcher reloads the cache when
// files under the directory change.
package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"datapilot/internal/relevance"
)

// Corpus caches the contents of every .txt document under a directory.
type Corpus struct {
	dir    string
	logger *zap.Logger

	mu   sync.RWMutex
	docs []relevance.Document

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewCorpus loads all documents under dir.
func NewCorpus(dir string, logger *zap.Logger) (*Corpus, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Corpus{dir: dir, logger: logger}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Documents returns the cached corpus snapshot. Enumeration order is stable
// (sorted by file name) so ranking tie-breaks are deterministic.
func (c *Corpus) Documents() []relevance.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]relevance.Document, len(c.docs))
	copy(out, c.docs)
	return out
}

// Len returns the number of cached documents.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// Reload re-reads every .txt file under the directory. Files are read
// concurrently; the cache swaps atomically on success.
func (c *Corpus) Reload() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("failed to read document directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	docs := make([]relevance.Document, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			data, err := os.ReadFile(filepath.Join(c.dir, name))
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", name, err)
			}
			docs[i] = relevance.Document{ID: name, Content: string(data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	c.docs = docs
	c.mu.Unlock()

	c.logger.Debug("document corpus loaded",
		zap.String("dir", c.dir),
		zap.Int("documents", len(docs)))
	return nil
}

// Watch starts reloading the corpus whenever files under the directory
// change. Call Close to stop.
func (c *Corpus) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(c.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", c.dir, err)
	}

	c.watcher = watcher
	c.done = make(chan struct{})

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if err := c.Reload(); err != nil {
					c.logger.Warn("corpus reload failed", zap.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.Warn("corpus watcher error", zap.Error(err))
			case <-c.done:
				return
			}
		}
	}()

	return nil
}

// Close stops the watcher if one is running.
func (c *Corpus) Close() error {
	if c.watcher == nil {
		return nil
	}
	close(c.done)
	return c.watcher.Close()
}
