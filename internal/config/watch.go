// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// FILE WATCHER
// =============================================================================

// watchDebounce collapses the burst of events an editor or atomic rename
// produces into a single notification.
const watchDebounce = 200 * time.Millisecond

// Watch calls fn each time the file at path is written, created, renamed or
// removed, until ctx is done.
//
// The parent directory is watched rather than the file itself so that
// replacement by rename (as SaveTOML and most editors do) is still seen.
// fn runs on the watcher goroutine.
func Watch(ctx context.Context, path string, fn func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return err
	}

	go processEvents(ctx, watcher, abs, fn)
	return nil
}

func processEvents(ctx context.Context, watcher *fsnotify.Watcher, path string, fn func()) {
	defer watcher.Close()

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			timer.Reset(watchDebounce)

		case <-timer.C:
			fn()

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
