// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/tracescope/services/trace/itf"
)

// traceChangedMsg signals that the watched trace file was written.
type traceChangedMsg struct{}

// traceReloadedMsg carries the result of re-loading the trace file.
type traceReloadedMsg struct {
	trace *itf.Trace
	err   error
}

// watchFile blocks until the trace file is written, then emits a
// traceChangedMsg. The watcher is per-invocation: the Update handler
// re-issues this command after each reload so watching continues for the
// life of the program.
func watchFile(path string) tea.Cmd {
	return func() tea.Msg {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil
		}
		defer w.Close()
		if err := w.Add(path); err != nil {
			return nil
		}
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					return traceChangedMsg{}
				}
			case _, ok := <-w.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

// reloadTrace re-reads the trace file off the event loop.
func reloadTrace(path string) tea.Cmd {
	return func() tea.Msg {
		tr, err := itf.Load(path)
		return traceReloadedMsg{trace: tr, err: err}
	}
}
