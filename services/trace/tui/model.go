// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tui implements the interactive trace inspector using bubbletea.
//
// # Description
//
// The model wraps a trace.Session and translates key and mouse events into
// its navigation operations. All diffing, filtering, and tree flattening
// happens in the session; this package only renders what the session
// exposes.
//
// # Thread Safety
//
// The model is single-threaded inside the bubbletea event loop. Do not
// access it from other goroutines.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AleutianAI/tracescope/pkg/logging"
	"github.com/AleutianAI/tracescope/services/trace"
)

// cursorPadding keeps this many lines between the cursor and the viewport
// edge while scrolling.
const cursorPadding = 2

// Config configures the inspector TUI.
type Config struct {
	// Watch reloads the trace when the source file changes.
	Watch bool

	// InitialFilter is applied before the first frame, if non-empty.
	InitialFilter string

	// WheelStep is how many lines a mouse wheel tick moves the cursor.
	// Zero means the default of 3.
	WheelStep int
}

// Model is the bubbletea model for the trace inspector.
type Model struct {
	session   *trace.Session
	tracePath string
	config    Config
	log       *logging.Logger

	viewport    viewport.Model
	filterInput textinput.Model

	width  int
	height int
	ready  bool

	editingFilter bool
	statusMsg     string
	quitting      bool
}

// NewModel builds the inspector model for an already-loaded session.
func NewModel(session *trace.Session, tracePath string, config Config, log *logging.Logger) Model {
	input := textinput.New()
	input.Placeholder = `filter, e.g. msgBuffer changed or x.length > 0`
	input.Prompt = "/"
	input.CharLimit = 256

	if config.WheelStep <= 0 {
		config.WheelStep = 3
	}

	m := Model{
		session:     session,
		tracePath:   tracePath,
		config:      config,
		log:         log,
		filterInput: input,
	}
	if config.InitialFilter != "" {
		if err := session.ApplyFilter(config.InitialFilter); err != nil {
			m.statusMsg = err.Error()
		}
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.config.Watch {
		return watchFile(m.tracePath)
	}
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vh := m.height - headerHeight - footerHeight
		if vh < 1 {
			vh = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vh)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vh
		}
		m.syncViewport()
		return m, nil

	case tea.KeyMsg:
		if m.editingFilter {
			return m.updateFilterInput(msg)
		}
		return m.updateKeys(msg)

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case traceChangedMsg:
		return m, tea.Batch(reloadTrace(m.tracePath), watchFile(m.tracePath))

	case traceReloadedMsg:
		if msg.err != nil {
			m.statusMsg = "reload failed: " + msg.err.Error()
			m.log.Error("trace reload failed", "path", m.tracePath, "error", msg.err.Error())
		} else {
			m.session.Reload(msg.trace)
			m.statusMsg = "trace reloaded"
			m.log.Info("trace reloaded", "path", m.tracePath, "states", msg.trace.Len())
		}
		m.syncViewport()
		return m, nil
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "left", "h":
		m.session.PrevState()
		m.statusMsg = ""

	case "right", "l":
		m.session.NextState()
		m.statusMsg = ""

	case "up", "k":
		m.session.MoveUp(1)

	case "down", "j":
		m.session.MoveDown(1)

	case "pgup":
		m.session.MoveUp(m.pageSize())

	case "pgdown":
		m.session.MoveDown(m.pageSize())

	case "home", "g":
		m.session.CursorHome()

	case "end", "G":
		m.session.CursorEnd()

	case "enter", " ":
		m.session.ToggleAtCursor()

	case "backspace":
		m.session.CollapseAtCursor()

	case "e":
		m.session.ExpandAll()

	case "c":
		m.session.CollapseAll()

	case "a":
		m.session.SetAutoExpand(!m.session.AutoExpand())

	case "/":
		m.editingFilter = true
		m.filterInput.SetValue(m.session.FilterText())
		m.filterInput.Focus()
		return m, textinput.Blink

	case "x":
		m.session.ClearFilter()
		m.statusMsg = ""
	}
	m.syncViewport()
	return m, nil
}

func (m Model) updateFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editingFilter = false
		m.filterInput.Blur()
		text := strings.TrimSpace(m.filterInput.Value())
		if text == "" {
			m.session.ClearFilter()
			m.statusMsg = ""
		} else if err := m.session.ApplyFilter(text); err != nil {
			// Compile failure retains the prior filter; surface inline.
			m.statusMsg = err.Error()
			m.log.Warn("filter rejected", "query", text, "error", err.Error())
		} else {
			m.statusMsg = ""
		}
		m.syncViewport()
		return m, nil

	case "esc":
		m.editingFilter = false
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.session.MoveUp(m.config.WheelStep)
	case tea.MouseButtonWheelDown:
		m.session.MoveDown(m.config.WheelStep)
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		row := msg.Y - headerHeight
		if row >= 0 {
			line := m.viewport.YOffset + row
			nodes := m.session.VisibleNodes()
			if line < len(nodes) {
				m.session.MoveUp(m.session.CursorPos())
				m.session.MoveDown(line)
				m.session.ToggleAtCursor()
			}
		}
	}
	m.syncViewport()
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading...\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) pageSize() int {
	n := m.viewport.Height - cursorPadding
	if n < 1 {
		n = 1
	}
	return n
}

// syncViewport rebuilds the viewport content and keeps the cursor inside
// the visible window with a little padding.
func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTree())

	cursor := m.session.CursorPos()
	offset := m.viewport.YOffset
	if cursor < offset+cursorPadding {
		offset = cursor - cursorPadding
	} else if cursor >= offset+m.viewport.Height-cursorPadding {
		offset = cursor - m.viewport.Height + cursorPadding + 1
	}
	if offset < 0 {
		offset = 0
	}
	m.viewport.SetYOffset(offset)
}
