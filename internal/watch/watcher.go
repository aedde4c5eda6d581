// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch turns a directory into a drop target. Files appearing in
// the directory raise drag events and, once they stop changing, are
// handed to a Handler one at a time.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pdiddy/signage-review/internal/export"
	"github.com/pdiddy/signage-review/pkg/types"
)

// DefaultSettle is used when the configured settle delay is zero.
const DefaultSettle = 500 * time.Millisecond

// Handler receives drop-folder events. DragEnter and DragLeave bracket a
// file that is still being written; Drop is called once it has settled.
type Handler interface {
	DragEnter(path string)
	DragLeave(path string)
	Drop(ctx context.Context, path string) error
}

type pendingFile struct {
	timer *time.Timer
	gen   int
}

type settledFile struct {
	path string
	gen  int
}

// Watcher watches one directory.
type Watcher struct {
	dir     string
	settle  time.Duration
	handler Handler
	logger  *slog.Logger
	fsw     *fsnotify.Watcher
}

// New starts watching cfg.Dir. Events are delivered once Run is called.
func New(cfg types.WatchConfig, h Handler, logger *slog.Logger) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, errors.New("watch: no directory configured")
	}
	if h == nil {
		return nil, errors.New("watch: nil handler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	settle := cfg.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(cfg.Dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", cfg.Dir, err)
	}
	return &Watcher{dir: cfg.Dir, settle: settle, handler: h, logger: logger, fsw: fsw}, nil
}

// Run delivers events until ctx is done. Drops are handled on the
// calling goroutine, so a slow extraction delays the next file.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	settled := make(chan settledFile)
	pending := map[string]*pendingFile{}
	defer func() {
		for _, p := range pending {
			p.timer.Stop()
		}
	}()

	// Each write re-arms the file's timer under a new generation so a
	// timer that already fired for an older write is ignored.
	arm := func(path string) {
		p, ok := pending[path]
		if !ok {
			p = &pendingFile{}
			pending[path] = p
		} else {
			p.timer.Stop()
		}
		p.gen++
		sf := settledFile{path: path, gen: p.gen}
		p.timer = time.AfterFunc(w.settle, func() {
			select {
			case settled <- sf:
			case <-ctx.Done():
			}
		})
	}

	w.logger.Info("watch.start", "dir", w.dir, "settle", w.settle)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch.stop", "dir", w.dir)
			return nil

		case e, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ignored(e.Name) {
				continue
			}
			switch {
			case e.Has(fsnotify.Create), e.Has(fsnotify.Write):
				if _, ok := pending[e.Name]; !ok {
					w.handler.DragEnter(e.Name)
				}
				arm(e.Name)
			case e.Has(fsnotify.Remove), e.Has(fsnotify.Rename):
				if p, ok := pending[e.Name]; ok {
					p.timer.Stop()
					delete(pending, e.Name)
					w.handler.DragLeave(e.Name)
				}
			}

		case sf := <-settled:
			p, ok := pending[sf.path]
			if !ok || p.gen != sf.gen {
				continue
			}
			path := sf.path
			delete(pending, path)
			if info, err := os.Stat(path); err != nil || info.IsDir() {
				w.handler.DragLeave(path)
				continue
			}
			w.logger.Info("watch.drop", "file", filepath.Base(path))
			if err := w.handler.Drop(ctx, path); err != nil {
				w.logger.Warn("watch.drop.failed", "file", filepath.Base(path), "err", err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch.error", "err", err)
		}
	}
}

// Run watches cfg.Dir until ctx is done.
func Run(ctx context.Context, cfg types.WatchConfig, h Handler, logger *slog.Logger) error {
	w, err := New(cfg, h, logger)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// ignored skips hidden and editor temp files, and the exports written
// back into the folder.
func ignored(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."), strings.HasPrefix(base, "~"):
		return true
	case strings.HasSuffix(base, ".tmp"), strings.HasSuffix(base, ".part"), strings.HasSuffix(base, ".crdownload"):
		return true
	case base == export.CSVFileName, base == export.SpreadsheetFileName:
		return true
	}
	return false
}
