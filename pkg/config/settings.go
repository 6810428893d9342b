package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/pario-ai/chatmeter/pkg/models"
)

// LoadSettings reads a YAML (or JSON) settings file over the default
// settings and validates the result.
func LoadSettings(path string) (models.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	s := models.DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return models.Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return models.Settings{}, err
	}
	return s, nil
}

const debounceInterval = 100 * time.Millisecond

// WatchSettings calls onChange with the new settings each time the file at
// path is written. Load failures go to onError and the watch continues. It
// blocks until ctx is done.
func WatchSettings(ctx context.Context, path string, onChange func(models.Settings), onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filepath.Base(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				reload = time.After(debounceInterval)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onError(err)
		case <-reload:
			reload = nil
			s, err := LoadSettings(path)
			if err != nil {
				onError(err)
				continue
			}
			onChange(s)
		}
	}
}
