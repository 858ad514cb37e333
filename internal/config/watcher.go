package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/zurustar/confsync/internal/logging"
)

// Watcher reloads the configuration file when it changes on disk. An
// invalid edit is logged and ignored; the last good configuration stays
// in effect.
type Watcher struct {
	manager  ConfigManager
	filename string
	logger   logging.Logger
	onChange func(*Config)

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

// NewWatcher creates a watcher for filename
func NewWatcher(manager ConfigManager, filename string, logger logging.Logger, onChange func(*Config)) *Watcher {
	return &Watcher{
		manager:  manager,
		filename: filepath.Clean(filename),
		logger:   logger,
		onChange: onChange,
	}
}

// Start begins watching. The directory is watched rather than the file
// so editors that replace the file by rename are picked up.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.filename)); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.filename, err)
	}
	w.watcher = fw

	w.wg.Add(1)
	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Config watcher error", logging.ErrorField(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := w.manager.Load(w.filename)
	if err != nil {
		w.logger.Error("Ignoring invalid configuration",
			logging.StringField("file", w.filename),
			logging.ErrorField(err))
		return
	}
	w.logger.Info("Configuration reloaded", logging.StringField("file", w.filename))
	w.onChange(cfg)
}

// Close stops watching and waits for the event loop to exit
func (w *Watcher) Close() error {
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.wg.Wait()
	w.watcher = nil
	return err
}
