package service

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the catalog whenever its file is written or replaced.
type Watcher struct {
	svc     *Service
	log     *zap.Logger
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewWatcher(svc *Service) *Watcher {
	return &Watcher{svc: svc, log: svc.log.Named("watcher")}
}

func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	path := filepath.Clean(w.svc.repo.Path())
	// editors replace files on save, so watch the directory
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return err
	}

	w.watcher = fw
	w.done = make(chan struct{})
	w.wg.Add(1)
	go w.loop(path)

	w.log.Info("watching catalog", zap.String("path", path))
	return nil
}

func (w *Watcher) Stop(context.Context) error {
	if w.watcher == nil {
		return nil
	}
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	w.watcher = nil
	return err
}

func (w *Watcher) loop(path string) {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			_ = w.svc.Reload(context.Background())
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("catalog watch error", zap.Error(err))
		}
	}
}
